package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AnshRaj112/moodjournal-backend/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// SessionKeyPrefix is the Redis key prefix for sessions
	SessionKeyPrefix = "session:"
	// UserSessionsKeyPrefix holds the set of live tokens of one user
	UserSessionsKeyPrefix = "user_sessions:"
)

// SessionStore issues and resolves opaque session tokens.
type SessionStore interface {
	Create(ctx context.Context, userID uuid.UUID, email string) (*models.Session, error)
	Get(ctx context.Context, token string) (*models.Session, error)
	Refresh(ctx context.Context, token string) (*models.Session, error)
	Invalidate(ctx context.Context, token string) (*models.Session, error)
	InvalidateUser(ctx context.Context, userID uuid.UUID) error
}

type sessionRecord struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RedisSessionStore keeps session:<token> -> record with a TTL and a
// user_sessions:<user> set so all of a user's sessions can be dropped at once.
type RedisSessionStore struct {
	client redis.Cmdable
	ttl    time.Duration
	now    func() time.Time
}

var _ SessionStore = (*RedisSessionStore)(nil)

func NewRedisSessionStore(client redis.Cmdable, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl, now: time.Now}
}

func newSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (s *RedisSessionStore) Create(ctx context.Context, userID uuid.UUID, email string) (*models.Session, error) {
	token, err := newSessionToken()
	if err != nil {
		return nil, err
	}
	rec := sessionRecord{UserID: userID, Email: email, ExpiresAt: s.now().Add(s.ttl).UTC()}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}

	userKey := UserSessionsKeyPrefix + userID.String()
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, SessionKeyPrefix+token, data, s.ttl)
		p.SAdd(ctx, userKey, token)
		p.Expire(ctx, userKey, s.ttl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return rec.session(token), nil
}

func (s *RedisSessionStore) Get(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	data, err := s.client.Get(ctx, SessionKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return rec.session(token), nil
}

// Refresh extends the session by the full lifetime from now.
func (s *RedisSessionStore) Refresh(ctx context.Context, token string) (*models.Session, error) {
	sess, err := s.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	rec := sessionRecord{UserID: sess.UserID, Email: sess.Email, ExpiresAt: s.now().Add(s.ttl).UTC()}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	userKey := UserSessionsKeyPrefix + sess.UserID.String()
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, SessionKeyPrefix+token, data, s.ttl)
		p.Expire(ctx, userKey, s.ttl)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec.session(token), nil
}

// Invalidate removes a session and returns what it belonged to.
func (s *RedisSessionStore) Invalidate(ctx context.Context, token string) (*models.Session, error) {
	sess, err := s.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, SessionKeyPrefix+token)
		p.SRem(ctx, UserSessionsKeyPrefix+sess.UserID.String(), token)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// InvalidateUser drops every session of a user (used after a password reset).
func (s *RedisSessionStore) InvalidateUser(ctx context.Context, userID uuid.UUID) error {
	userKey := UserSessionsKeyPrefix + userID.String()
	tokens, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(tokens)+1)
	for _, t := range tokens {
		keys = append(keys, SessionKeyPrefix+t)
	}
	keys = append(keys, userKey)
	return s.client.Del(ctx, keys...).Err()
}

func (r sessionRecord) session(token string) *models.Session {
	return &models.Session{Token: token, UserID: r.UserID, Email: r.Email, ExpiresAt: r.ExpiresAt}
}
