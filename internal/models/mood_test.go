package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmotion(t *testing.T) {
	e, err := ParseEmotion("  Happiness ")
	require.NoError(t, err)
	assert.Equal(t, Happiness, e)

	_, err = ParseEmotion("boredom")
	assert.Error(t, err)

	_, err = ParseEmotion("")
	assert.Error(t, err)
}

func TestMood_Score(t *testing.T) {
	m := Mood{Happiness: 1, Fear: 2, Sadness: 3, Anger: 4, Surprise: 5, Disgust: 6}
	for i, e := range Emotions {
		assert.Equal(t, float64(i+1), m.Score(e), string(e))
	}
	assert.Zero(t, m.Score(Emotion("calm")))
}

func TestMood_ClampAndValidate(t *testing.T) {
	m := Mood{Happiness: 12, Fear: -1, Sadness: 4.5}
	require.Error(t, m.Validate())

	clamped := m.Clamp()
	assert.Equal(t, 10.0, clamped.Happiness)
	assert.Equal(t, 0.0, clamped.Fear)
	assert.Equal(t, 4.5, clamped.Sadness)
	assert.NoError(t, clamped.Validate())

	// Clamp works on a copy.
	assert.Equal(t, 12.0, m.Happiness)
}

func TestMood_Validate_NamesField(t *testing.T) {
	err := Mood{Anger: 11}.Validate()
	assert.EqualError(t, err, "anger must be between 0 and 10")
}

func TestMood_Dominant(t *testing.T) {
	assert.Equal(t, Sadness, Mood{Happiness: 2, Sadness: 8}.Dominant())
	assert.Equal(t, Happiness, DefaultMood().Dominant(), "ties resolve to the first emotion")
}

func TestCreateJournalEntry_ApplyAnalysis(t *testing.T) {
	c := CreateJournalEntry{Text: "hello"}
	c.ApplyAnalysis(MoodAnalysis{
		Mood:       Mood{Happiness: 9},
		Confidence: 0.8,
		Keywords:   []string{"sun"},
	})
	require.NotNil(t, c.Mood)
	assert.Equal(t, 9.0, c.Mood.Happiness)
	require.NotNil(t, c.MoodConfidence)
	assert.Equal(t, 0.8, *c.MoodConfidence)
	assert.Equal(t, []string{"sun"}, c.MoodKeywords)
	assert.Nil(t, c.MoodSummary, "empty summary is not stored")
}

func TestUpdateJournalEntry_Empty(t *testing.T) {
	assert.True(t, UpdateJournalEntry{}.Empty())
	text := "x"
	assert.False(t, UpdateJournalEntry{Text: &text}.Empty())
}
