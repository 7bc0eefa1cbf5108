package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/AnshRaj112/moodjournal-backend/pkg/clientip"
	"golang.org/x/time/rate"
)

const (
	headerXContentTypeOptions     = "X-Content-Type-Options"
	headerXFrameOptions           = "X-Frame-Options"
	headerXXSSProtection          = "X-XSS-Protection"
	headerContentSecurityPolicy   = "Content-Security-Policy"
	headerStrictTransportSecurity = "Strict-Transport-Security"
)

// SecurityHeaders sets security-related response headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headerXContentTypeOptions, "nosniff")
		w.Header().Set(headerXFrameOptions, "DENY")
		w.Header().Set(headerXXSSProtection, "1; mode=block")
		w.Header().Set(headerContentSecurityPolicy, "default-src 'self'")
		w.Header().Set(headerStrictTransportSecurity, "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterTTL             = 30 * time.Minute
)

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

// KeyedLimiter keeps one token bucket per key (client IP or user id).
// Idle buckets are dropped by Run.
type KeyedLimiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	limit   rate.Limit
	burst   int
}

func NewKeyedLimiter(limit rate.Limit, burst int) *KeyedLimiter {
	return &KeyedLimiter{entries: make(map[string]*limiterEntry), limit: limit, burst: burst}
}

// GlobalLimiter allows each IP 1 req/s with a burst of 10.
func GlobalLimiter() *KeyedLimiter {
	return NewKeyedLimiter(rate.Limit(1), 10)
}

// LoginLimiter allows each IP one auth attempt per 5s with a burst of 2.
func LoginLimiter() *KeyedLimiter {
	return NewKeyedLimiter(rate.Every(5*time.Second), 2)
}

// AnalysisLimiter allows each user 10 mood analyses per minute.
func AnalysisLimiter() *KeyedLimiter {
	return NewKeyedLimiter(rate.Every(6*time.Second), 10)
}

// Allow reports whether key may proceed now.
func (l *KeyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastUse = time.Now()
	l.mu.Unlock()
	return e.limiter.Allow()
}

// Len reports the number of tracked keys.
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Prune drops buckets idle for longer than ttl.
func (l *KeyedLimiter) Prune(ttl time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	for key, e := range l.entries {
		if now.Sub(e.lastUse) > ttl {
			delete(l.entries, key)
		}
	}
}

// Run prunes idle buckets until ctx is cancelled.
func (l *KeyedLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Prune(limiterTTL)
		}
	}
}

// RateLimitByIP rejects requests from an IP whose bucket is empty.
func RateLimitByIP(l *KeyedLimiter, trustProxy bool, message string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(clientip.RealClientIP(r, trustProxy)) {
				writeTooMany(w, message, 0)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByUser limits the signed-in user. Use after Authenticate.
func RateLimitByUser(l *KeyedLimiter, message string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFromContext(r.Context())
			if ok && !l.Allow(sess.UserID.String()) {
				writeTooMany(w, message, 0)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
