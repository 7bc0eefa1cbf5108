package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is an authenticated user's opaque token plus identity.
type Session struct {
	Token     string    `json:"token"`
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionEventType follows the auth state change names the mobile client listens for.
type SessionEventType string

const (
	SessionSignedIn         SessionEventType = "SIGNED_IN"
	SessionSignedOut        SessionEventType = "SIGNED_OUT"
	SessionPasswordRecovery SessionEventType = "PASSWORD_RECOVERY"
	SessionUserUpdated      SessionEventType = "USER_UPDATED"
)

// SessionEvent is published on every auth state change of a user.
type SessionEvent struct {
	Type      SessionEventType `json:"type"`
	UserID    string           `json:"user_id"`
	Timestamp time.Time        `json:"timestamp"`
}
