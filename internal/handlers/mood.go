package handlers

import (
	"net/http"
	"strconv"

	"github.com/AnshRaj112/moodjournal-backend/internal/models"
	"github.com/AnshRaj112/moodjournal-backend/internal/services"
)

type AnalyzeRequest struct {
	Text string `json:"text"`
}

type AnalyzeResponse struct {
	Success  bool                 `json:"success"`
	Analysis *models.MoodAnalysis `json:"analysis,omitempty"`
}

type AnalysesResponse struct {
	Success  bool                      `json:"success"`
	Analyses []services.AnalysisRecord `json:"analyses"`
}

// AnalyzeMood runs a mood analysis without saving an entry.
func (h *Handler) AnalyzeMood(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var req AnalyzeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	analysis, err := h.moods.Analyze(r.Context(), uid, req.Text)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AnalyzeResponse{Success: true, Analysis: analysis})
}

// ListAnalyses returns the caller's recent analyses (?limit=, default 20).
func (h *Handler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	records, err := h.moods.History(r.Context(), uid, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AnalysesResponse{Success: true, Analyses: records})
}
