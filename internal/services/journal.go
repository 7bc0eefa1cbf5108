package services

import (
	"context"
	"strings"
	"time"

	"github.com/AnshRaj112/moodjournal-backend/internal/models"
	"github.com/google/uuid"
)

// Analyzer is the part of MoodAnalyzer the journal needs.
type Analyzer interface {
	Analyze(ctx context.Context, userID uuid.UUID, text string) (*models.MoodAnalysis, error)
}

// JournalService validates journal operations and applies the mood filter.
type JournalService struct {
	store     JournalStore
	analyzer  Analyzer
	threshold float64
	now       func() time.Time
}

func NewJournalService(store JournalStore, analyzer Analyzer, moodThreshold float64) *JournalService {
	return &JournalService{store: store, analyzer: analyzer, threshold: moodThreshold, now: time.Now}
}

// Threshold is the minimum score an emotion needs for an entry to match a mood filter.
func (s *JournalService) Threshold() float64 {
	return s.threshold
}

// FilterByMood keeps the entries whose score for emotion is at least threshold.
// Order is preserved.
func FilterByMood(entries []models.JournalEntry, emotion models.Emotion, threshold float64) []models.JournalEntry {
	out := make([]models.JournalEntry, 0, len(entries))
	for _, e := range entries {
		if e.Mood.Score(emotion) >= threshold {
			out = append(out, e)
		}
	}
	return out
}

func validateMoodFields(mood *models.Mood, confidence *float64) error {
	if mood != nil {
		if err := mood.Validate(); err != nil {
			return &InputError{Field: "mood", Message: err.Error()}
		}
	}
	if confidence != nil && (*confidence < 0 || *confidence > 1) {
		return &InputError{Field: "mood_confidence", Message: "mood_confidence must be between 0 and 1"}
	}
	return nil
}

// Create saves a new entry. With in.Analyze set the text is analysed first
// and the analysis replaces any mood fields sent by the client.
func (s *JournalService) Create(ctx context.Context, userID uuid.UUID, in models.CreateJournalEntry) (*models.JournalEntry, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, ErrEmptyText
	}
	if in.Analyze {
		if s.analyzer == nil {
			return nil, ErrAnalysisUnavailable
		}
		analysis, err := s.analyzer.Analyze(ctx, userID, in.Text)
		if err != nil {
			return nil, err
		}
		in.ApplyAnalysis(*analysis)
	}
	if err := validateMoodFields(in.Mood, in.MoodConfidence); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	entry := &models.JournalEntry{
		ID:             uuid.New(),
		UserID:         userID,
		Text:           in.Text,
		Mood:           models.DefaultMood(),
		MoodConfidence: in.MoodConfidence,
		MoodKeywords:   in.MoodKeywords,
		MoodSummary:    in.MoodSummary,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if in.Mood != nil {
		entry.Mood = *in.Mood
	}
	if err := s.store.Insert(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// List returns the user's entries newest first. When a mood filter is set
// pagination is applied after filtering so pages stay full.
func (s *JournalService) List(ctx context.Context, userID uuid.UUID, f models.JournalFilters) ([]models.JournalEntry, error) {
	if f.Mood == "" {
		return s.store.List(ctx, userID, f)
	}

	unpaged := f
	unpaged.Limit, unpaged.Offset = 0, 0
	entries, err := s.store.List(ctx, userID, unpaged)
	if err != nil {
		return nil, err
	}
	return paginate(FilterByMood(entries, f.Mood, s.threshold), f.Limit, f.Offset), nil
}

// ListByMood is List filtered by a single emotion.
func (s *JournalService) ListByMood(ctx context.Context, userID uuid.UUID, emotion models.Emotion) ([]models.JournalEntry, error) {
	return s.List(ctx, userID, models.JournalFilters{Mood: emotion})
}

func paginate(entries []models.JournalEntry, limit, offset int) []models.JournalEntry {
	if offset >= len(entries) {
		return []models.JournalEntry{}
	}
	if offset > 0 {
		entries = entries[offset:]
	}
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries
}

func (s *JournalService) Get(ctx context.Context, userID, id uuid.UUID) (*models.JournalEntry, error) {
	return s.store.Get(ctx, userID, id)
}

// Update applies a patch; an empty patch returns the entry unchanged.
func (s *JournalService) Update(ctx context.Context, userID, id uuid.UUID, patch models.UpdateJournalEntry) (*models.JournalEntry, error) {
	if patch.Text != nil && strings.TrimSpace(*patch.Text) == "" {
		return nil, ErrEmptyText
	}
	if err := validateMoodFields(patch.Mood, patch.MoodConfidence); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return s.store.Get(ctx, userID, id)
	}
	return s.store.Update(ctx, userID, id, patch, s.now().UTC())
}

func (s *JournalService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.store.Delete(ctx, userID, id)
}
