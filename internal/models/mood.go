package models

import (
	"fmt"
	"strings"
)

// Emotion names one dimension of the mood vector.
type Emotion string

const (
	Happiness Emotion = "happiness"
	Fear      Emotion = "fear"
	Sadness   Emotion = "sadness"
	Anger     Emotion = "anger"
	Surprise  Emotion = "surprise"
	Disgust   Emotion = "disgust"
)

const (
	MinMoodScore = 0.0
	MaxMoodScore = 10.0
)

// Emotions lists every emotion in display order.
var Emotions = []Emotion{Happiness, Fear, Sadness, Anger, Surprise, Disgust}

// ParseEmotion maps a name to an Emotion, ignoring case and surrounding space.
func ParseEmotion(s string) (Emotion, error) {
	e := Emotion(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Emotions {
		if e == known {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown emotion %q", s)
}

// Mood is the six-emotion intensity vector, each score within 0-10.
// The scores are independent; nothing requires them to sum to a total.
type Mood struct {
	Happiness float64 `json:"happiness" bson:"happiness"`
	Fear      float64 `json:"fear" bson:"fear"`
	Sadness   float64 `json:"sadness" bson:"sadness"`
	Anger     float64 `json:"anger" bson:"anger"`
	Surprise  float64 `json:"surprise" bson:"surprise"`
	Disgust   float64 `json:"disgust" bson:"disgust"`
}

// DefaultMood is stored when an entry is saved without an analysis.
func DefaultMood() Mood {
	return Mood{Happiness: 5, Fear: 5}
}

// Score returns the intensity of e, or 0 for an unknown emotion.
func (m Mood) Score(e Emotion) float64 {
	switch e {
	case Happiness:
		return m.Happiness
	case Fear:
		return m.Fear
	case Sadness:
		return m.Sadness
	case Anger:
		return m.Anger
	case Surprise:
		return m.Surprise
	case Disgust:
		return m.Disgust
	}
	return 0
}

func (m *Mood) fields() []*float64 {
	return []*float64{&m.Happiness, &m.Fear, &m.Sadness, &m.Anger, &m.Surprise, &m.Disgust}
}

// Clamp forces every score into the 0-10 range.
func (m Mood) Clamp() Mood {
	for _, f := range m.fields() {
		if *f < MinMoodScore {
			*f = MinMoodScore
		}
		if *f > MaxMoodScore {
			*f = MaxMoodScore
		}
	}
	return m
}

// Validate reports the first score outside 0-10.
func (m Mood) Validate() error {
	for i, f := range m.fields() {
		if *f < MinMoodScore || *f > MaxMoodScore {
			return fmt.Errorf("%s must be between 0 and 10", Emotions[i])
		}
	}
	return nil
}

// Dominant returns the emotion with the highest score. Ties go to the
// emotion listed first in Emotions.
func (m Mood) Dominant() Emotion {
	best := Emotions[0]
	for _, e := range Emotions[1:] {
		if m.Score(e) > m.Score(best) {
			best = e
		}
	}
	return best
}

// MoodAnalysis is the structured result of one inference call.
type MoodAnalysis struct {
	Mood       Mood     `json:"mood" bson:"mood"`
	Confidence float64  `json:"confidence" bson:"confidence"`
	Keywords   []string `json:"keywords" bson:"keywords"`
	Summary    string   `json:"summary,omitempty" bson:"summary,omitempty"`
}
