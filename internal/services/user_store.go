package services

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/AnshRaj112/moodjournal-backend/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// UserStore keeps accounts, profiles and password reset tokens.
type UserStore interface {
	CreateUserWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, name, avatarURL *string, now time.Time) (*models.Profile, error)

	CreateResetToken(ctx context.Context, token *models.PasswordResetToken) error
	// ResetPasswordWithToken marks an unused, unexpired token as used and
	// sets its owner's password hash atomically. Anything else yields
	// ErrInvalidResetToken and leaves the token usable.
	ResetPasswordWithToken(ctx context.Context, token, passwordHash string, now time.Time) (uuid.UUID, error)
}

// HashResetToken is the form a reset token is persisted in.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

const uniqueViolation = "23505"

type PostgresUserStore struct {
	db *sql.DB
}

var _ UserStore = (*PostgresUserStore)(nil)

func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

// CreateUserWithProfile inserts the account and its profile in one transaction.
func (s *PostgresUserStore) CreateUserWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`, user.ID, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO profiles (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`, profile.ID, profile.Name, profile.CreatedAt, profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}

	return tx.Commit()
}

func (s *PostgresUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE LOWER(email) = LOWER($1)`, email)
}

func (s *PostgresUserStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.getUser(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE id = $1`, id)
}

func (s *PostgresUserStore) getUser(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresUserStore) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, avatar_url, created_at, updated_at FROM profiles WHERE id = $1
	`, id)
	return scanProfile(row)
}

func (s *PostgresUserStore) UpdateProfile(ctx context.Context, id uuid.UUID, name, avatarURL *string, now time.Time) (*models.Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE profiles
		SET name = COALESCE($1, name), avatar_url = COALESCE($2, avatar_url), updated_at = $3
		WHERE id = $4
		RETURNING id, name, avatar_url, created_at, updated_at
	`, name, avatarURL, now, id)
	return scanProfile(row)
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	var p models.Profile
	var avatar sql.NullString
	err := row.Scan(&p.ID, &p.Name, &avatar, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	if avatar.Valid {
		p.AvatarURL = &avatar.String
	}
	return &p, nil
}

// CreateResetToken stores only the SHA-256 of the token.
func (s *PostgresUserStore) CreateResetToken(ctx context.Context, t *models.PasswordResetToken) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO password_reset_tokens (user_id, token_hash, expires_at, used)
		VALUES ($1, $2, $3, FALSE)
	`, t.UserID, HashResetToken(t.Token), t.ExpiresAt)
	return err
}

func (s *PostgresUserStore) ResetPasswordWithToken(ctx context.Context, token, passwordHash string, now time.Time) (uuid.UUID, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	var userID uuid.UUID
	err = tx.QueryRowContext(ctx, `
		UPDATE password_reset_tokens SET used = TRUE
		WHERE token_hash = $1 AND used = FALSE AND expires_at > $2
		RETURNING user_id
	`, HashResetToken(token), now).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, ErrInvalidResetToken
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("consume reset token: %w", err)
	}

	res, err := tx.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("update password: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return uuid.Nil, ErrUserNotFound
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, err
	}
	return userID, nil
}
