package services

import "errors"

var (
	ErrEntryNotFound       = errors.New("journal entry not found")
	ErrEmptyText           = errors.New("journal text is required")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailTaken          = errors.New("an account with this email already exists")
	ErrUserNotFound        = errors.New("user not found")
	ErrProfileNotFound     = errors.New("profile not found")
	ErrSessionNotFound     = errors.New("session not found or expired")
	ErrInvalidResetToken   = errors.New("password reset link is invalid or has expired")
	ErrAnalysisUnavailable = errors.New("mood analysis is not configured")
	ErrMalformedAnalysis   = errors.New("mood analysis response is malformed")
	ErrAnalysisFailed      = errors.New("mood analysis request failed")
	ErrUploadUnavailable   = errors.New("file uploads are not configured")
)

// InputError wraps a request problem the caller can fix, such as an
// out-of-range mood score.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}
