package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/AnshRaj112/moodjournal-backend/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SessionEventChannelPrefix is followed by the user id.
const SessionEventChannelPrefix = "session:events:"

// EventPublisher announces auth state changes.
type EventPublisher interface {
	Publish(ctx context.Context, event models.SessionEvent) error
}

// RedisEventPublisher publishes on session:events:<user> so every API
// instance can forward the event to that user's sockets.
type RedisEventPublisher struct {
	client redis.Cmdable
}

func NewRedisEventPublisher(client redis.Cmdable) *RedisEventPublisher {
	return &RedisEventPublisher{client: client}
}

func (p *RedisEventPublisher) Publish(ctx context.Context, event models.SessionEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, SessionEventChannelPrefix+event.UserID, data).Err()
}

// SessionHub fans events out to the local subscribers of each user.
type SessionHub struct {
	mu     sync.RWMutex
	subs   map[string]map[chan models.SessionEvent]struct{}
	buffer int
	log    *zap.Logger
}

func NewSessionHub(log *zap.Logger) *SessionHub {
	return &SessionHub{
		subs:   make(map[string]map[chan models.SessionEvent]struct{}),
		buffer: 8,
		log:    log,
	}
}

// Subscribe returns a channel of the user's events and a function that
// unsubscribes and closes the channel. The function is safe to call twice.
func (h *SessionHub) Subscribe(userID string) (<-chan models.SessionEvent, func()) {
	ch := make(chan models.SessionEvent, h.buffer)

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan models.SessionEvent]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[userID], ch)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers reports how many local subscribers a user has.
func (h *SessionHub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

// FanOut delivers an event to every local subscriber of its user. A
// subscriber whose buffer is full misses the event rather than blocking.
func (h *SessionHub) FanOut(event models.SessionEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[event.UserID] {
		select {
		case ch <- event:
		default:
			h.log.Warn("dropping session event for slow subscriber",
				zap.String("user_id", event.UserID), zap.String("type", string(event.Type)))
		}
	}
}

// Run listens on session:events:* until ctx is cancelled, reconnecting with
// capped exponential backoff.
func (h *SessionHub) Run(ctx context.Context, client *redis.Client) {
	var backoff time.Duration
	for ctx.Err() == nil {
		subscribed, err := h.receive(ctx, client)
		if ctx.Err() != nil {
			return
		}
		backoff = nextBackoff(backoff, subscribed)
		h.log.Warn("session event subscriber error", zap.Error(err), zap.Duration("retry_in", backoff))
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
	}
}

const (
	minSubscribeBackoff = time.Second
	maxSubscribeBackoff = 30 * time.Second
)

// nextBackoff returns the wait before the next subscribe attempt. A
// connection that got as far as a confirmed subscription starts over.
func nextBackoff(cur time.Duration, subscribed bool) time.Duration {
	if subscribed || cur < minSubscribeBackoff {
		return minSubscribeBackoff
	}
	return min(cur*2, maxSubscribeBackoff)
}

// receive reports whether the subscription was confirmed before it failed.
func (h *SessionHub) receive(ctx context.Context, client *redis.Client) (bool, error) {
	pubsub := client.PSubscribe(ctx, SessionEventChannelPrefix+"*")
	defer pubsub.Close()
	// ReceiveMessage does not return on cancellation by itself.
	stop := context.AfterFunc(ctx, func() { pubsub.Close() })
	defer stop()

	if _, err := pubsub.Receive(ctx); err != nil {
		return false, err
	}
	h.log.Info("✅ Session event subscriber started", zap.String("pattern", SessionEventChannelPrefix+"*"))

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			return true, err
		}
		var event models.SessionEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			h.log.Warn("failed to unmarshal session event", zap.Error(err))
			continue
		}
		if event.UserID == "" {
			event.UserID = strings.TrimPrefix(msg.Channel, SessionEventChannelPrefix)
		}
		h.FanOut(event)
	}
}
