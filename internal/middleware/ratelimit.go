package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/AnshRaj112/moodjournal-backend/pkg/clientip"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// RateLimitKeyPrefix is the Redis key prefix for rate limiting
	RateLimitKeyPrefix = "ratelimit:"
	// BlockedIPKeyPrefix is the Redis key prefix for blocked IPs
	BlockedIPKeyPrefix = "blocked_ip:"
)

// RateLimitConfig is a fixed window shared by every API instance.
type RateLimitConfig struct {
	Window      time.Duration
	MaxRequests int
	// BlockFor is how long an IP stays blocked after exceeding the window.
	BlockFor   time.Duration
	TrustProxy bool
}

// DefaultRateLimitConfig allows 120 requests per two minutes and blocks
// offenders for an hour.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Window:      120 * time.Second,
		MaxRequests: 120,
		BlockFor:    time.Hour,
	}
}

// RedisRateLimiter counts requests per IP in Redis and blocks IPs that
// exceed the window. Redis errors fail open.
type RedisRateLimiter struct {
	client redis.Cmdable
	cfg    RateLimitConfig
	log    *zap.Logger
}

func NewRedisRateLimiter(client redis.Cmdable, cfg RateLimitConfig, log *zap.Logger) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, cfg: cfg, log: log}
}

func (l *RedisRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ip := clientip.RealClientIP(r, l.cfg.TrustProxy)

		blocked, err := l.IsBlocked(ctx, ip)
		if err == nil && blocked {
			writeTooMany(w, "Your IP has been temporarily blocked due to excessive requests. Please try again later.", 0)
			return
		}

		key := RateLimitKeyPrefix + ip
		n, err := l.client.Incr(ctx, key).Result()
		if err == nil && n == 1 {
			// First request opens the window.
			err = l.client.Expire(ctx, key, l.cfg.Window).Err()
		}
		if err != nil {
			l.log.Warn("rate limiter unavailable, allowing request", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		count := int(n)
		if count > l.cfg.MaxRequests {
			if err := l.client.Set(ctx, BlockedIPKeyPrefix+ip, "1", l.cfg.BlockFor).Err(); err != nil {
				l.log.Warn("failed to block ip", zap.String("ip", ip), zap.Error(err))
			} else {
				l.log.Warn("ip blocked for excessive requests", zap.String("ip", ip), zap.Int("count", count))
			}
			writeTooMany(w, "Rate limit exceeded. Your IP has been temporarily blocked. Please try again later.", int(l.cfg.Window.Seconds()))
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.MaxRequests))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(l.cfg.MaxRequests-count))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(l.cfg.Window).Unix(), 10))
		next.ServeHTTP(w, r)
	})
}

// IsBlocked checks if an IP is currently blocked
func (l *RedisRateLimiter) IsBlocked(ctx context.Context, ip string) (bool, error) {
	n, err := l.client.Exists(ctx, BlockedIPKeyPrefix+ip).Result()
	return n > 0, err
}

// Unblock removes an IP from the blocked list.
func (l *RedisRateLimiter) Unblock(ctx context.Context, ip string) error {
	return l.client.Del(ctx, BlockedIPKeyPrefix+ip, RateLimitKeyPrefix+ip).Err()
}

func writeTooMany(w http.ResponseWriter, message string, retryAfter int) {
	w.Header().Set("Content-Type", "application/json")
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	}
	w.WriteHeader(http.StatusTooManyRequests)
	if retryAfter > 0 {
		fmt.Fprintf(w, `{"success":false,"message":%q,"retry_after":%d}`, message, retryAfter)
		return
	}
	fmt.Fprintf(w, `{"success":false,"message":%q}`, message)
}
