package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/AnshRaj112/moodjournal-backend/internal/middleware"
	"github.com/AnshRaj112/moodjournal-backend/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

type JournalResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message,omitempty"`
	Journal *models.JournalEntry `json:"journal,omitempty"`
}

type JournalsResponse struct {
	Success  bool                  `json:"success"`
	Message  string                `json:"message,omitempty"`
	Journals []models.JournalEntry `json:"journals"`
	Total    int                   `json:"total"`
}

// userID returns the id of the authenticated caller.
func userID(r *http.Request) (uuid.UUID, bool) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		return uuid.Nil, false
	}
	return sess.UserID, true
}

func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := userID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Response{Message: "Authentication required", Error: "unauthorized"})
	}
	return id, ok
}

func entryID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, Response{Message: "journal entry not found", Error: "not_found"})
		return uuid.Nil, false
	}
	return id, true
}

// CreateJournal saves an entry for the caller. With "analyze": true the
// text is run through mood analysis first.
func (h *Handler) CreateJournal(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var req models.CreateJournalEntry
	if !decodeJSON(w, r, &req) {
		return
	}
	entry, err := h.journals.Create(r.Context(), uid, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, JournalResponse{Success: true, Message: "Journal entry saved", Journal: entry})
}

// ListJournals lists the caller's entries newest first. Query parameters:
// mood, search, start, end (RFC 3339 or YYYY-MM-DD, both inclusive), limit
// (default 50, at most 100) and offset.
func (h *Handler) ListJournals(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	filters, field, msg := parseFilters(r)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, Response{Message: msg, Error: "validation_failed", Field: field})
		return
	}
	entries, err := h.journals.List(r.Context(), uid, filters)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, JournalsResponse{Success: true, Journals: entries, Total: len(entries)})
}

// ListJournalsByMood lists entries whose score for the emotion in the path
// reaches the mood threshold.
func (h *Handler) ListJournalsByMood(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	emotion, err := models.ParseEmotion(chi.URLParam(r, "emotion"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: err.Error(), Error: "validation_failed", Field: "mood"})
		return
	}
	entries, err := h.journals.ListByMood(r.Context(), uid, emotion)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, JournalsResponse{Success: true, Journals: entries, Total: len(entries)})
}

func (h *Handler) GetJournal(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	id, ok := entryID(w, r)
	if !ok {
		return
	}
	entry, err := h.journals.Get(r.Context(), uid, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, JournalResponse{Success: true, Journal: entry})
}

func (h *Handler) UpdateJournal(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	id, ok := entryID(w, r)
	if !ok {
		return
	}
	var patch models.UpdateJournalEntry
	if !decodeJSON(w, r, &patch) {
		return
	}
	entry, err := h.journals.Update(r.Context(), uid, id, patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, JournalResponse{Success: true, Message: "Journal entry updated", Journal: entry})
}

func (h *Handler) DeleteJournal(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	id, ok := entryID(w, r)
	if !ok {
		return
	}
	if err := h.journals.Delete(r.Context(), uid, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Journal entry deleted"})
}

// parseFilters reads the listing query. On a bad parameter it returns the
// field name and a message.
func parseFilters(r *http.Request) (models.JournalFilters, string, string) {
	q := r.URL.Query()
	var f models.JournalFilters

	if m := strings.TrimSpace(q.Get("mood")); m != "" {
		emotion, err := models.ParseEmotion(m)
		if err != nil {
			return f, "mood", err.Error()
		}
		f.Mood = emotion
	}
	f.Search = strings.TrimSpace(q.Get("search"))

	if s := q.Get("start"); s != "" {
		t, err := parseDate(s, false)
		if err != nil {
			return f, "start", "start must be an RFC 3339 time or YYYY-MM-DD"
		}
		f.Start = &t
	}
	if s := q.Get("end"); s != "" {
		t, err := parseDate(s, true)
		if err != nil {
			return f, "end", "end must be an RFC 3339 time or YYYY-MM-DD"
		}
		f.End = &t
	}
	if f.Start != nil && f.End != nil && f.End.Before(*f.Start) {
		return f, "end", "end must not be before start"
	}

	f.Limit = defaultPageSize
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return f, "limit", "limit must be a non-negative integer"
		}
		if n > 0 {
			f.Limit = min(n, maxPageSize)
		}
	}
	if s := q.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return f, "offset", "offset must be a non-negative integer"
		}
		f.Offset = n
	}
	return f, "", ""
}

// parseDate accepts RFC 3339 or a bare date. A bare end date covers the
// whole day.
func parseDate(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
