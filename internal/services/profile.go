package services

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/AnshRaj112/moodjournal-backend/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const profileCacheTTL = 15 * time.Minute

// ProfileService reads and edits profiles through a Redis cache.
type ProfileService struct {
	users    UserStore
	cache    *Cache
	uploader AvatarUploader
	events   EventPublisher
	log      *zap.Logger
	now      func() time.Time
}

// NewProfileService accepts a nil cache and a nil uploader.
func NewProfileService(users UserStore, cache *Cache, uploader AvatarUploader, events EventPublisher, log *zap.Logger) *ProfileService {
	return &ProfileService{users: users, cache: cache, uploader: uploader, events: events, log: log, now: time.Now}
}

func profileCacheKey(id uuid.UUID) string {
	return CacheKey("profile", id.String())
}

func (s *ProfileService) Get(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	if s.cache != nil {
		var cached models.Profile
		hit, err := s.cache.Get(ctx, profileCacheKey(id), &cached)
		if err != nil {
			s.log.Warn("profile cache read failed", zap.String("user_id", id.String()), zap.Error(err))
		}
		if hit {
			return &cached, nil
		}
	}

	p, err := s.users.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetWithTTL(ctx, profileCacheKey(id), p, profileCacheTTL); err != nil {
			s.log.Warn("profile cache write failed", zap.String("user_id", id.String()), zap.Error(err))
		}
	}
	return p, nil
}

// UpdateName changes the display name.
func (s *ProfileService) UpdateName(ctx context.Context, id uuid.UUID, name string) (*models.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &InputError{Field: "name", Message: "Full name is required"}
	}
	if len(name) > 100 {
		return nil, &InputError{Field: "name", Message: "Full name must be at most 100 characters"}
	}
	return s.update(ctx, id, &name, nil)
}

// UploadAvatar stores the image and points the profile at it.
func (s *ProfileService) UploadAvatar(ctx context.Context, id uuid.UUID, file io.Reader) (*models.Profile, error) {
	if s.uploader == nil {
		return nil, ErrUploadUnavailable
	}
	url, err := s.uploader.UploadAvatar(ctx, file, id.String())
	if err != nil {
		return nil, err
	}
	return s.update(ctx, id, nil, &url)
}

func (s *ProfileService) update(ctx context.Context, id uuid.UUID, name, avatarURL *string) (*models.Profile, error) {
	p, err := s.users.UpdateProfile(ctx, id, name, avatarURL, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, profileCacheKey(id)); err != nil {
			s.log.Warn("profile cache invalidation failed", zap.String("user_id", id.String()), zap.Error(err))
		}
	}
	if s.events != nil {
		event := models.SessionEvent{Type: models.SessionUserUpdated, UserID: id.String(), Timestamp: s.now().UTC()}
		if err := s.events.Publish(ctx, event); err != nil {
			s.log.Warn("failed to publish session event", zap.Error(err))
		}
	}
	return p, nil
}
