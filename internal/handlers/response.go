package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/AnshRaj112/moodjournal-backend/internal/services"
	"github.com/AnshRaj112/moodjournal-backend/pkg/utils"
	"go.uber.org/zap"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Response is the envelope of every JSON reply.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: "Invalid request body", Error: "invalid_body"})
		return false
	}
	return true
}

// writeError maps a service error to a status and a message the app can show.
// Unexpected errors are logged and reported without detail.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *utils.ValidationError
		input      *services.InputError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, Response{Message: validation.Message, Error: "validation_failed", Field: validation.Field})
	case errors.As(err, &input):
		writeJSON(w, http.StatusBadRequest, Response{Message: input.Message, Error: "validation_failed", Field: input.Field})
	case errors.Is(err, services.ErrEmptyText):
		writeJSON(w, http.StatusBadRequest, Response{Message: err.Error(), Error: "validation_failed", Field: "text"})
	case errors.Is(err, services.ErrInvalidResetToken):
		writeJSON(w, http.StatusBadRequest, Response{Message: err.Error(), Error: "invalid_token"})
	case errors.Is(err, services.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, Response{Message: "Invalid email or password", Error: "invalid_credentials"})
	case errors.Is(err, services.ErrSessionNotFound):
		writeJSON(w, http.StatusUnauthorized, Response{Message: "Session expired. Please sign in again.", Error: "unauthorized"})
	case errors.Is(err, services.ErrEntryNotFound), errors.Is(err, services.ErrProfileNotFound), errors.Is(err, services.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, Response{Message: err.Error(), Error: "not_found"})
	case errors.Is(err, services.ErrEmailTaken):
		writeJSON(w, http.StatusConflict, Response{Message: err.Error(), Error: "email_taken"})
	case errors.Is(err, services.ErrAnalysisUnavailable), errors.Is(err, services.ErrUploadUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, Response{Message: err.Error(), Error: "unavailable"})
	case errors.Is(err, services.ErrMalformedAnalysis):
		h.log.Warn("mood analysis returned malformed output", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, Response{Message: "Mood analysis failed. Please try again.", Error: "analysis_failed"})
	case errors.Is(err, services.ErrAnalysisFailed):
		h.log.Error("mood analysis failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, Response{Message: "Mood analysis failed. Please try again.", Error: "analysis_failed"})
	default:
		h.log.Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Response{Message: "Something went wrong. Please try again.", Error: "internal"})
	}
}
