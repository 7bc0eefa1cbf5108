package handlers

import (
	"errors"
	"net/http"

	"github.com/AnshRaj112/moodjournal-backend/internal/middleware"
	"github.com/AnshRaj112/moodjournal-backend/internal/models"
	"github.com/AnshRaj112/moodjournal-backend/internal/services"
)

type SignUpRequest struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type AuthResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Session *models.Session `json:"session,omitempty"`
}

// SignUp creates an account and returns its first session.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := h.auth.SignUp(r.Context(), req.FullName, req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, AuthResponse{Success: true, Message: "Account created", Session: sess})
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := h.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{Success: true, Message: "Signed in", Session: sess})
}

// SignOut ends the caller's session. Signing out twice is not an error.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token != "" {
		if err := h.auth.SignOut(r.Context(), token); err != nil && !isSessionGone(err) {
			h.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Signed out"})
}

// ForgotPassword always answers with the same message so the response
// does not reveal whether an account exists.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "If an account exists for this email, a password reset link has been sent.",
	})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.auth.ResetPassword(r.Context(), req.Token, req.Password, req.ConfirmPassword); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Password updated. Please sign in again."})
}

// Session returns the caller's current session.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		h.writeError(w, r, services.ErrSessionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{Success: true, Session: sess})
}

// RefreshSession extends the caller's session lifetime.
func (h *Handler) RefreshSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.auth.RefreshSession(r.Context(), middleware.BearerToken(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{Success: true, Session: sess})
}

func isSessionGone(err error) bool {
	return errors.Is(err, services.ErrSessionNotFound)
}
