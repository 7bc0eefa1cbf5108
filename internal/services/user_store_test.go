package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AnshRaj112/moodjournal-backend/internal/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresUserStore_CreateUserWithProfile(t *testing.T) {
	now := time.Now().UTC()
	user := &models.User{ID: uuid.New(), Email: "ada@example.com", PasswordHash: "hash", CreatedAt: now}
	profile := &models.Profile{ID: user.ID, Name: "Ada", CreatedAt: now, UpdatedAt: now}

	t.Run("commits both rows", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO users").
			WithArgs(user.ID, user.Email, user.PasswordHash, now).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO profiles").
			WithArgs(user.ID, "Ada", now, now).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, NewPostgresUserStore(db).CreateUserWithProfile(context.Background(), user, profile))
	})

	t.Run("duplicate email", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO users").WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()

		err := NewPostgresUserStore(db).CreateUserWithProfile(context.Background(), user, profile)
		assert.ErrorIs(t, err, ErrEmailTaken)
	})
}

func TestPostgresUserStore_GetUserByEmailNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("FROM users WHERE LOWER\\(email\\) = LOWER\\(\\$1\\)").
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "created_at"}))

	_, err := NewPostgresUserStore(db).GetUserByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestPostgresUserStore_CreateResetTokenStoresHash(t *testing.T) {
	const raw = "plain-reset-token-abc"
	userID := uuid.New()
	expires := time.Now().Add(time.Hour).UTC()

	db, mock := newMockDB(t)
	mock.ExpectExec("INSERT INTO password_reset_tokens").
		WithArgs(userID, HashResetToken(raw), expires).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewPostgresUserStore(db).CreateResetToken(context.Background(), &models.PasswordResetToken{
		Token:     raw,
		UserID:    userID,
		ExpiresAt: expires,
	})
	require.NoError(t, err)
	assert.NotEqual(t, raw, HashResetToken(raw))
	assert.Len(t, HashResetToken(raw), 64)
}

func TestPostgresUserStore_ResetPasswordWithToken(t *testing.T) {
	now := time.Now().UTC()
	userID := uuid.New()
	hashed := HashResetToken("tok")

	t.Run("consumes token and updates password together", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE password_reset_tokens SET used = TRUE").
			WithArgs(hashed, now).
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(userID.String()))
		mock.ExpectExec("UPDATE users SET password_hash").
			WithArgs("newhash", userID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		got, err := NewPostgresUserStore(db).ResetPasswordWithToken(context.Background(), "tok", "newhash", now)
		require.NoError(t, err)
		assert.Equal(t, userID, got)
	})

	t.Run("unknown or spent token", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE password_reset_tokens SET used = TRUE").
			WithArgs(hashed, now).
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}))
		mock.ExpectRollback()

		_, err := NewPostgresUserStore(db).ResetPasswordWithToken(context.Background(), "tok", "newhash", now)
		assert.ErrorIs(t, err, ErrInvalidResetToken)
	})

	t.Run("failed password update rolls the token back", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE password_reset_tokens SET used = TRUE").
			WithArgs(hashed, now).
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(userID.String()))
		mock.ExpectExec("UPDATE users SET password_hash").
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		_, err := NewPostgresUserStore(db).ResetPasswordWithToken(context.Background(), "tok", "newhash", now)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidResetToken)
	})
}

func TestPostgresUserStore_UpdateProfile(t *testing.T) {
	now := time.Now().UTC()
	id := uuid.New()
	url := "https://res.example.com/a.png"

	db, mock := newMockDB(t)
	mock.ExpectQuery("UPDATE profiles").
		WithArgs(nil, url, now, id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "avatar_url", "created_at", "updated_at"}).
			AddRow(id.String(), "Ada", url, now, now))

	p, err := NewPostgresUserStore(db).UpdateProfile(context.Background(), id, nil, &url, now)
	require.NoError(t, err)
	require.NotNil(t, p.AvatarURL)
	assert.Equal(t, url, *p.AvatarURL)
}
