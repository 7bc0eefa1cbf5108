package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/AnshRaj112/moodjournal-backend/internal/models"
	"github.com/AnshRaj112/moodjournal-backend/internal/services"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Auth is the account API the handlers need.
type Auth interface {
	SignUp(ctx context.Context, fullName, email, password, confirm string) (*models.Session, error)
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context, token string) error
	CurrentSession(ctx context.Context, token string) (*models.Session, error)
	RefreshSession(ctx context.Context, token string) (*models.Session, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password, confirm string) error
}

// Journals is the journal API the handlers need.
type Journals interface {
	Create(ctx context.Context, userID uuid.UUID, in models.CreateJournalEntry) (*models.JournalEntry, error)
	List(ctx context.Context, userID uuid.UUID, f models.JournalFilters) ([]models.JournalEntry, error)
	ListByMood(ctx context.Context, userID uuid.UUID, emotion models.Emotion) ([]models.JournalEntry, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*models.JournalEntry, error)
	Update(ctx context.Context, userID, id uuid.UUID, patch models.UpdateJournalEntry) (*models.JournalEntry, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// Moods runs and lists mood analyses.
type Moods interface {
	Analyze(ctx context.Context, userID uuid.UUID, text string) (*models.MoodAnalysis, error)
	History(ctx context.Context, userID uuid.UUID, limit int64) ([]services.AnalysisRecord, error)
}

// Profiles reads and edits the signed-in user's profile.
type Profiles interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	UpdateName(ctx context.Context, id uuid.UUID, name string) (*models.Profile, error)
	UploadAvatar(ctx context.Context, id uuid.UUID, file io.Reader) (*models.Profile, error)
}

// SessionEvents hands out per-user event streams.
type SessionEvents interface {
	Subscribe(userID string) (<-chan models.SessionEvent, func())
}

// Handler serves the HTTP API.
type Handler struct {
	auth     Auth
	journals Journals
	moods    Moods
	profiles Profiles
	events   SessionEvents
	log      *zap.Logger
	upgrader websocket.Upgrader
}

type Deps struct {
	Auth           Auth
	Journals       Journals
	Moods          Moods
	Profiles       Profiles
	Events         SessionEvents
	Log            *zap.Logger
	AllowedOrigins []string
}

func New(d Deps) *Handler {
	h := &Handler{
		auth:     d.Auth,
		journals: d.Journals,
		moods:    d.Moods,
		profiles: d.Profiles,
		events:   d.Events,
		log:      d.Log,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(d.AllowedOrigins),
	}
	return h
}

// Health reports that the process is serving.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "ok"})
}
