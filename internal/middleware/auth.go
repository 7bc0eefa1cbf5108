package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/AnshRaj112/moodjournal-backend/internal/models"
	"github.com/AnshRaj112/moodjournal-backend/internal/services"
	"go.uber.org/zap"
)

type contextKey string

const sessionContextKey contextKey = "session"

// SessionResolver looks up the session behind a bearer token.
type SessionResolver interface {
	CurrentSession(ctx context.Context, token string) (*models.Session, error)
}

// BearerToken reads "Authorization: Bearer <token>". WebSocket clients
// cannot set headers, so the access_token query parameter is accepted too.
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return strings.TrimSpace(r.URL.Query().Get("access_token"))
}

// Authenticate rejects requests without a live session and stores the
// session in the request context.
func Authenticate(sessions SessionResolver, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				writeUnauthorized(w, "Authentication required")
				return
			}
			sess, err := sessions.CurrentSession(r.Context(), token)
			if err != nil {
				if !errors.Is(err, services.ErrSessionNotFound) {
					log.Error("session lookup failed", zap.Error(err))
				}
				writeUnauthorized(w, "Session expired. Please sign in again.")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// WithSession returns a copy of ctx carrying sess.
func WithSession(ctx context.Context, sess *models.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// SessionFromContext returns the session stored by Authenticate.
func SessionFromContext(ctx context.Context) (*models.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(*models.Session)
	return sess, ok && sess != nil
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"success":false,"message":"` + message + `"}`))
}
