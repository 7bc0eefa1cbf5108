package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/AnshRaj112/moodjournal-backend/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const moodSystemPrompt = "You are an expert emotional analysis AI. Your task is to analyze the emotional content of journal entries and provide detailed, accurate emotional assessments."

const moodPromptTemplate = `Analyze the emotional content of this journal entry and provide a detailed analysis.
Return your response in the following JSON format:
{
  "mood": {
    "happiness": number (0-10),
    "fear": number (0-10),
    "sadness": number (0-10),
    "anger": number (0-10),
    "surprise": number (0-10),
    "disgust": number (0-10)
  },
  "keywords": string[],
  "summary": string
}

The numbers should reflect the intensity of each emotion in the text.
Keywords should be emotional terms or significant phrases from the text.
The summary should be a brief emotional analysis of the text.

Journal entry: %q`

const (
	baseConfidence = 0.7
	maxConfidence  = 0.95
)

// Completion is the raw JSON text of a model reply plus its output token count.
type Completion struct {
	Content          string
	CompletionTokens int
}

// Completer runs one chat completion in JSON response mode.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (Completion, error)
}

// AnalysisRecord is one stored analysis, kept for the user's history.
type AnalysisRecord struct {
	UserID    uuid.UUID           `json:"user_id"`
	Text      string              `json:"text"`
	Result    models.MoodAnalysis `json:"analysis_result"`
	CreatedAt time.Time           `json:"created_at"`
}

// AnalysisRecorder persists analyses after they succeed.
type AnalysisRecorder interface {
	Record(ctx context.Context, rec AnalysisRecord) error
	Recent(ctx context.Context, userID uuid.UUID, limit int64) ([]AnalysisRecord, error)
}

// MoodAnalyzer turns journal text into a mood vector through the completer.
type MoodAnalyzer struct {
	completer Completer
	recorder  AnalysisRecorder
	timeout   time.Duration
	log       *zap.Logger
	now       func() time.Time
}

// NewMoodAnalyzer accepts a nil completer; Analyze then reports
// ErrAnalysisUnavailable. A nil recorder skips the history.
func NewMoodAnalyzer(completer Completer, recorder AnalysisRecorder, timeout time.Duration, log *zap.Logger) *MoodAnalyzer {
	return &MoodAnalyzer{completer: completer, recorder: recorder, timeout: timeout, log: log, now: time.Now}
}

// BuildPrompt embeds the journal text in the analysis instructions.
func BuildPrompt(text string) string {
	return fmt.Sprintf(moodPromptTemplate, text)
}

// Confidence grows with the length of the model's answer, capped at 0.95.
func Confidence(completionTokens int) float64 {
	if completionTokens < 0 {
		completionTokens = 0
	}
	return math.Min(maxConfidence, baseConfidence+float64(completionTokens)/1000)
}

// ParseAnalysis decodes a model reply. Scores are clamped to 0-10 and
// blank keywords are dropped.
func ParseAnalysis(c Completion) (*models.MoodAnalysis, error) {
	var raw struct {
		Mood     *models.Mood `json:"mood"`
		Keywords []string     `json:"keywords"`
		Summary  string       `json:"summary"`
	}
	content := strings.TrimSpace(c.Content)
	if content == "" {
		content = "{}"
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAnalysis, err)
	}
	if raw.Mood == nil {
		return nil, fmt.Errorf("%w: missing mood", ErrMalformedAnalysis)
	}

	keywords := make([]string, 0, len(raw.Keywords))
	for _, k := range raw.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	return &models.MoodAnalysis{
		Mood:       raw.Mood.Clamp(),
		Confidence: Confidence(c.CompletionTokens),
		Keywords:   keywords,
		Summary:    strings.TrimSpace(raw.Summary),
	}, nil
}

// Analyze runs the inference call and records the result. Recording
// failures are logged only.
func (a *MoodAnalyzer) Analyze(ctx context.Context, userID uuid.UUID, text string) (*models.MoodAnalysis, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if a.completer == nil {
		return nil, ErrAnalysisUnavailable
	}

	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	completion, err := a.completer.Complete(callCtx, moodSystemPrompt, BuildPrompt(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	analysis, err := ParseAnalysis(completion)
	if err != nil {
		return nil, err
	}

	if a.recorder != nil {
		rec := AnalysisRecord{UserID: userID, Text: text, Result: *analysis, CreatedAt: a.now().UTC()}
		if err := a.recorder.Record(ctx, rec); err != nil {
			a.log.Error("failed to store mood analysis", zap.String("user_id", userID.String()), zap.Error(err))
		}
	}
	return analysis, nil
}

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// History returns the user's most recent analyses, newest first. A
// non-positive limit means DefaultHistoryLimit.
func (a *MoodAnalyzer) History(ctx context.Context, userID uuid.UUID, limit int64) ([]AnalysisRecord, error) {
	if a.recorder == nil {
		return []AnalysisRecord{}, nil
	}
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}
	return a.recorder.Recent(ctx, userID, limit)
}
