package models

import (
	"time"

	"github.com/google/uuid"
)

// JournalEntry is one saved journal entry, owned by a single user.
type JournalEntry struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	Text           string    `json:"text"`
	Mood           Mood      `json:"mood"`
	MoodConfidence *float64  `json:"mood_confidence,omitempty"`
	MoodKeywords   []string  `json:"mood_keywords,omitempty"`
	MoodSummary    *string   `json:"mood_summary,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateJournalEntry carries the fields accepted when saving a new entry.
type CreateJournalEntry struct {
	Text           string   `json:"text"`
	Mood           *Mood    `json:"mood,omitempty"`
	MoodConfidence *float64 `json:"mood_confidence,omitempty"`
	MoodKeywords   []string `json:"mood_keywords,omitempty"`
	MoodSummary    *string  `json:"mood_summary,omitempty"`
	// Analyze runs the mood analysis before saving and overrides the mood fields.
	Analyze bool `json:"analyze,omitempty"`
}

// UpdateJournalEntry is a patch; nil fields are left unchanged.
type UpdateJournalEntry struct {
	Text           *string   `json:"text,omitempty"`
	Mood           *Mood     `json:"mood,omitempty"`
	MoodConfidence *float64  `json:"mood_confidence,omitempty"`
	MoodKeywords   *[]string `json:"mood_keywords,omitempty"`
	MoodSummary    *string   `json:"mood_summary,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (u UpdateJournalEntry) Empty() bool {
	return u.Text == nil && u.Mood == nil && u.MoodConfidence == nil &&
		u.MoodKeywords == nil && u.MoodSummary == nil
}

// JournalFilters narrows a listing. Zero values mean "no filter".
type JournalFilters struct {
	Mood   Emotion
	Search string
	Start  *time.Time
	End    *time.Time
	Limit  int
	Offset int
}

// ApplyAnalysis copies an analysis result onto the mood fields of an entry.
func (c *CreateJournalEntry) ApplyAnalysis(a MoodAnalysis) {
	mood := a.Mood
	confidence := a.Confidence
	c.Mood = &mood
	c.MoodConfidence = &confidence
	c.MoodKeywords = a.Keywords
	if a.Summary != "" {
		summary := a.Summary
		c.MoodSummary = &summary
	}
}
