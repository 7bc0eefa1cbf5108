package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AnshRaj112/moodjournal-backend/internal/models"
	"github.com/AnshRaj112/moodjournal-backend/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ResetTokenTTL is how long a mailed reset link stays valid.
const ResetTokenTTL = time.Hour

// AuthService handles accounts and sessions.
type AuthService struct {
	users    UserStore
	sessions SessionStore
	events   EventPublisher
	mailer   Mailer
	resetURL string
	log      *zap.Logger
	now      func() time.Time
}

type AuthDeps struct {
	Users    UserStore
	Sessions SessionStore
	Events   EventPublisher
	Mailer   Mailer
	ResetURL string
	Log      *zap.Logger
}

func NewAuthService(d AuthDeps) *AuthService {
	return &AuthService{
		users:    d.Users,
		sessions: d.Sessions,
		events:   d.Events,
		mailer:   d.Mailer,
		resetURL: d.ResetURL,
		log:      d.Log,
		now:      time.Now,
	}
}

// SignUp creates the account and its profile, then signs the user in.
func (s *AuthService) SignUp(ctx context.Context, fullName, email, password, confirm string) (*models.Session, error) {
	if err := utils.ValidateSignUp(fullName, email, password, confirm); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Email:        utils.NormalizeEmail(email),
		PasswordHash: hash,
		CreatedAt:    now,
	}
	profile := &models.Profile{ID: user.ID, Name: strings.TrimSpace(fullName), CreatedAt: now, UpdatedAt: now}
	if err := s.users.CreateUserWithProfile(ctx, user, profile); err != nil {
		return nil, err
	}

	return s.startSession(ctx, user)
}

// SignIn checks the password. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	if err := utils.ValidateSignIn(email, password); err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByEmail(ctx, utils.NormalizeEmail(email))
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	ok, err := utils.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		s.log.Warn("stored password hash is unreadable", zap.String("user_id", user.ID.String()), zap.Error(err))
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return s.startSession(ctx, user)
}

func (s *AuthService) startSession(ctx context.Context, user *models.User) (*models.Session, error) {
	sess, err := s.sessions.Create(ctx, user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, models.SessionSignedIn, user.ID)
	return sess, nil
}

// SignOut ends the session behind token.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	sess, err := s.sessions.Invalidate(ctx, token)
	if err != nil {
		return err
	}
	s.publish(ctx, models.SessionSignedOut, sess.UserID)
	return nil
}

// CurrentSession resolves a bearer token.
func (s *AuthService) CurrentSession(ctx context.Context, token string) (*models.Session, error) {
	return s.sessions.Get(ctx, token)
}

// RefreshSession extends the lifetime of a live session.
func (s *AuthService) RefreshSession(ctx context.Context, token string) (*models.Session, error) {
	return s.sessions.Refresh(ctx, token)
}

// RequestPasswordReset mails a reset link when the address belongs to an
// account. It succeeds either way so callers cannot probe for accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if err := utils.ValidateEmail(email); err != nil {
		return err
	}
	user, err := s.users.GetUserByEmail(ctx, utils.NormalizeEmail(email))
	if errors.Is(err, ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	token, err := newResetToken()
	if err != nil {
		return err
	}
	rt := &models.PasswordResetToken{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: s.now().Add(ResetTokenTTL).UTC(),
	}
	if err := s.users.CreateResetToken(ctx, rt); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	if err := s.mailer.SendPasswordReset(ctx, user.Email, s.resetURL+token); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	s.publish(ctx, models.SessionPasswordRecovery, user.ID)
	return nil
}

// ResetPassword sets a new password from a mailed token and signs the user
// out everywhere.
func (s *AuthService) ResetPassword(ctx context.Context, token, password, confirm string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidResetToken
	}
	if err := utils.ValidateNewPassword(password, confirm); err != nil {
		return err
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	userID, err := s.users.ResetPasswordWithToken(ctx, token, hash, s.now().UTC())
	if err != nil {
		return err
	}
	if err := s.sessions.InvalidateUser(ctx, userID); err != nil {
		s.log.Error("failed to drop sessions after password reset", zap.String("user_id", userID.String()), zap.Error(err))
	}
	s.publish(ctx, models.SessionUserUpdated, userID)
	return nil
}

func (s *AuthService) publish(ctx context.Context, t models.SessionEventType, userID uuid.UUID) {
	if s.events == nil {
		return
	}
	event := models.SessionEvent{Type: t, UserID: userID.String(), Timestamp: s.now().UTC()}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn("failed to publish session event", zap.String("type", string(t)), zap.Error(err))
	}
}

func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
