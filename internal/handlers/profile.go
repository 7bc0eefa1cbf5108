package handlers

import (
	"net/http"

	"github.com/AnshRaj112/moodjournal-backend/internal/models"
)

// maxAvatarBytes caps avatar uploads at 5MB.
const maxAvatarBytes = 5 << 20

type ProfileResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Profile *models.Profile `json:"profile,omitempty"`
}

type UpdateProfileRequest struct {
	Name string `json:"name"`
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	p, err := h.profiles.Get(r.Context(), uid)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileResponse{Success: true, Profile: p})
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.profiles.UpdateName(r.Context(), uid, req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileResponse{Success: true, Message: "Profile updated", Profile: p})
}

// UploadAvatar accepts a multipart form with the image in the "file" field.
func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes+1<<10)
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: "Failed to parse form", Error: "invalid_body"})
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: "No file provided", Error: "validation_failed", Field: "file"})
		return
	}
	defer file.Close()

	p, err := h.profiles.UploadAvatar(r.Context(), uid, file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileResponse{Success: true, Message: "Avatar uploaded", Profile: p})
}
