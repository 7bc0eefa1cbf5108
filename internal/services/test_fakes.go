package services

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AnshRaj112/moodjournal-backend/internal/models"
	"github.com/google/uuid"
)

// FakeJournalStore is a test-only JournalStore backed by a map. It applies
// the same user scoping, search, date range and ordering as the SQL store.
type FakeJournalStore struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]models.JournalEntry
	ListErr error
}

func NewFakeJournalStore() *FakeJournalStore {
	return &FakeJournalStore{entries: make(map[uuid.UUID]models.JournalEntry)}
}

func (f *FakeJournalStore) Insert(_ context.Context, e *models.JournalEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[e.ID] = *e
	return nil
}

func (f *FakeJournalStore) Get(_ context.Context, userID, id uuid.UUID) (*models.JournalEntry, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	e, ok := f.entries[id]
	if !ok || e.UserID != userID {
		return nil, ErrEntryNotFound
	}
	return &e, nil
}

func (f *FakeJournalStore) List(_ context.Context, userID uuid.UUID, filters models.JournalFilters) ([]models.JournalEntry, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.ListErr != nil {
		return nil, f.ListErr
	}

	search := strings.ToLower(strings.TrimSpace(filters.Search))
	out := make([]models.JournalEntry, 0)
	for _, e := range f.entries {
		if e.UserID != userID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(e.Text), search) {
			continue
		}
		if filters.Start != nil && e.CreatedAt.Before(*filters.Start) {
			continue
		}
		if filters.End != nil && e.CreatedAt.After(*filters.End) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, filters.Limit, filters.Offset), nil
}

func (f *FakeJournalStore) Update(_ context.Context, userID, id uuid.UUID, patch models.UpdateJournalEntry, now time.Time) (*models.JournalEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[id]
	if !ok || e.UserID != userID {
		return nil, ErrEntryNotFound
	}
	if patch.Text != nil {
		e.Text = *patch.Text
	}
	if patch.Mood != nil {
		e.Mood = *patch.Mood
	}
	if patch.MoodConfidence != nil {
		e.MoodConfidence = patch.MoodConfidence
	}
	if patch.MoodKeywords != nil {
		e.MoodKeywords = *patch.MoodKeywords
	}
	if patch.MoodSummary != nil {
		e.MoodSummary = patch.MoodSummary
	}
	e.UpdatedAt = now
	f.entries[id] = e
	return &e, nil
}

func (f *FakeJournalStore) Delete(_ context.Context, userID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[id]
	if !ok || e.UserID != userID {
		return ErrEntryNotFound
	}
	delete(f.entries, id)
	return nil
}

// FakeUserStore is a test-only UserStore.
type FakeUserStore struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]models.User
	profiles map[uuid.UUID]models.Profile
	resets   map[string]models.PasswordResetToken

	// PasswordErr fails password resets after the token checks pass.
	PasswordErr error
}

func NewFakeUserStore() *FakeUserStore {
	return &FakeUserStore{
		users:    make(map[uuid.UUID]models.User),
		profiles: make(map[uuid.UUID]models.Profile),
		resets:   make(map[string]models.PasswordResetToken),
	}
}

func (f *FakeUserStore) CreateUserWithProfile(_ context.Context, user *models.User, profile *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrEmailTaken
		}
	}
	f.users[user.ID] = *user
	f.profiles[profile.ID] = *profile
	return nil
}

func (f *FakeUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (f *FakeUserStore) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	u, ok := f.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (f *FakeUserStore) GetProfile(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	p, ok := f.profiles[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return &p, nil
}

func (f *FakeUserStore) UpdateProfile(_ context.Context, id uuid.UUID, name, avatarURL *string, now time.Time) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	if name != nil {
		p.Name = *name
	}
	if avatarURL != nil {
		p.AvatarURL = avatarURL
	}
	p.UpdatedAt = now
	f.profiles[id] = p
	return &p, nil
}

func (f *FakeUserStore) CreateResetToken(_ context.Context, t *models.PasswordResetToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets[t.Token] = *t
	return nil
}

func (f *FakeUserStore) ResetPasswordWithToken(_ context.Context, token, passwordHash string, now time.Time) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.resets[token]
	if !ok || t.Used || !t.ExpiresAt.After(now) {
		return uuid.Nil, ErrInvalidResetToken
	}
	u, ok := f.users[t.UserID]
	if !ok {
		return uuid.Nil, ErrUserNotFound
	}
	if f.PasswordErr != nil {
		return uuid.Nil, f.PasswordErr
	}
	t.Used = true
	f.resets[token] = t
	u.PasswordHash = passwordHash
	f.users[u.ID] = u
	return t.UserID, nil
}

// ResetTokens returns the stored reset tokens of a user.
func (f *FakeUserStore) ResetTokens(userID uuid.UUID) []models.PasswordResetToken {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []models.PasswordResetToken
	for _, t := range f.resets {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

// FakeSessionStore is a test-only SessionStore with no expiry.
type FakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]models.Session
}

func NewFakeSessionStore() *FakeSessionStore {
	return &FakeSessionStore{sessions: make(map[string]models.Session)}
}

func (f *FakeSessionStore) Create(_ context.Context, userID uuid.UUID, email string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := models.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		Email:     email,
		ExpiresAt: time.Now().Add(time.Hour).UTC(),
	}
	f.sessions[s.Token] = s
	return &s, nil
}

func (f *FakeSessionStore) Get(_ context.Context, token string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (f *FakeSessionStore) Refresh(ctx context.Context, token string) (*models.Session, error) {
	return f.Get(ctx, token)
}

func (f *FakeSessionStore) Invalidate(_ context.Context, token string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	delete(f.sessions, token)
	return &s, nil
}

func (f *FakeSessionStore) InvalidateUser(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for token, s := range f.sessions {
		if s.UserID == userID {
			delete(f.sessions, token)
		}
	}
	return nil
}

// FakeEventPublisher records published events.
type FakeEventPublisher struct {
	mu     sync.Mutex
	events []models.SessionEvent
}

func (f *FakeEventPublisher) Publish(_ context.Context, e models.SessionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

// Types lists the published event types in order.
func (f *FakeEventPublisher) Types() []models.SessionEventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.SessionEventType, len(f.events))
	for i, e := range f.events {
		out[i] = e.Type
	}
	return out
}

// FakeMailer keeps the last reset link per address.
type FakeMailer struct {
	mu    sync.Mutex
	Links map[string]string
}

func NewFakeMailer() *FakeMailer {
	return &FakeMailer{Links: make(map[string]string)}
}

func (f *FakeMailer) SendPasswordReset(_ context.Context, email, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Links[email] = link
	return nil
}

// Link returns the last link mailed to email.
func (f *FakeMailer) Link(email string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.Links[email]
	return l, ok
}

// FakeCompleter returns a fixed completion and counts calls.
type FakeCompleter struct {
	Reply Completion
	Err   error

	mu       sync.Mutex
	calls    int
	LastUser string
}

func (f *FakeCompleter) Complete(ctx context.Context, _, userPrompt string) (Completion, error) {
	f.mu.Lock()
	f.calls++
	f.LastUser = userPrompt
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return Completion{}, err
	}
	if f.Err != nil {
		return Completion{}, f.Err
	}
	return f.Reply, nil
}

func (f *FakeCompleter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// FakeAnalysisRecorder keeps records in memory; RecordErr fails Record.
type FakeAnalysisRecorder struct {
	mu        sync.Mutex
	records   []AnalysisRecord
	RecordErr error
	LastLimit int64
}

func (f *FakeAnalysisRecorder) Record(_ context.Context, rec AnalysisRecord) error {
	if f.RecordErr != nil {
		return f.RecordErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

func (f *FakeAnalysisRecorder) Recent(_ context.Context, userID uuid.UUID, limit int64) ([]AnalysisRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastLimit = limit
	out := make([]AnalysisRecord, 0)
	for i := len(f.records) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		if f.records[i].UserID == userID {
			out = append(out, f.records[i])
		}
	}
	return out, nil
}

// FakeUploader returns a URL derived from the public id.
type FakeUploader struct {
	Err  error
	Size int
}

func (f *FakeUploader) UploadAvatar(_ context.Context, file io.Reader, publicID string) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", errors.New("empty upload")
	}
	f.Size = len(data)
	return "https://res.example.com/avatars/" + publicID + ".png", nil
}
