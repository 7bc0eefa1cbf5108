package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AnshRaj112/moodjournal-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAnalyzer(completer Completer, recorder AnalysisRecorder) *MoodAnalyzer {
	return NewMoodAnalyzer(completer, recorder, time.Second, zap.NewNop())
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(`I said "hello" today`)
	assert.Contains(t, prompt, `"happiness": number (0-10)`)
	assert.Contains(t, prompt, `Journal entry: "I said \"hello\" today"`)
}

func TestConfidence(t *testing.T) {
	assert.InDelta(t, 0.7, Confidence(0), 1e-9)
	assert.InDelta(t, 0.85, Confidence(150), 1e-9)
	assert.Equal(t, 0.95, Confidence(250))
	assert.Equal(t, 0.95, Confidence(5000))
	assert.InDelta(t, 0.7, Confidence(-10), 1e-9)
}

func TestParseAnalysis(t *testing.T) {
	t.Run("clamps scores and trims keywords", func(t *testing.T) {
		a, err := ParseAnalysis(Completion{
			Content:          `{"mood":{"happiness":14,"fear":-2,"sadness":3.5},"keywords":[" calm ",""],"summary":" ok "}`,
			CompletionTokens: 400,
		})
		require.NoError(t, err)
		assert.Equal(t, models.Mood{Happiness: 10, Fear: 0, Sadness: 3.5}, a.Mood)
		assert.Equal(t, []string{"calm"}, a.Keywords)
		assert.Equal(t, "ok", a.Summary)
		assert.Equal(t, 0.95, a.Confidence)
	})

	for name, content := range map[string]string{
		"not json":     "the user seems happy",
		"missing mood": `{"keywords":["x"]}`,
		"empty":        "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAnalysis(Completion{Content: content})
			assert.ErrorIs(t, err, ErrMalformedAnalysis)
		})
	}
}

func TestMoodAnalyzer_Analyze(t *testing.T) {
	ctx := context.Background()
	user := uuid.New()
	reply := Completion{Content: `{"mood":{"happiness":7},"keywords":["sunny"],"summary":"Upbeat."}`, CompletionTokens: 50}

	t.Run("records the result", func(t *testing.T) {
		completer := &FakeCompleter{Reply: reply}
		recorder := &FakeAnalysisRecorder{}
		analyzer := newTestAnalyzer(completer, recorder)

		a, err := analyzer.Analyze(ctx, user, "A sunny walk")
		require.NoError(t, err)
		assert.Equal(t, 7.0, a.Mood.Happiness)
		assert.Contains(t, completer.LastUser, "A sunny walk")

		history, err := analyzer.History(ctx, user, 0)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, "A sunny walk", history[0].Text)
		assert.Equal(t, *a, history[0].Result)
	})

	t.Run("history limit is defaulted and capped", func(t *testing.T) {
		recorder := &FakeAnalysisRecorder{}
		analyzer := newTestAnalyzer(&FakeCompleter{Reply: reply}, recorder)

		for _, tc := range []struct{ in, want int64 }{
			{0, DefaultHistoryLimit},
			{-3, DefaultHistoryLimit},
			{50, 50},
			{100, MaxHistoryLimit},
			{500, MaxHistoryLimit},
		} {
			_, err := analyzer.History(ctx, user, tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, recorder.LastLimit, "limit %d", tc.in)
		}
	})

	t.Run("blank text skips the model", func(t *testing.T) {
		completer := &FakeCompleter{Reply: reply}
		_, err := newTestAnalyzer(completer, nil).Analyze(ctx, user, "   ")
		assert.ErrorIs(t, err, ErrEmptyText)
		assert.Zero(t, completer.Calls())
	})

	t.Run("no completer", func(t *testing.T) {
		_, err := newTestAnalyzer(nil, nil).Analyze(ctx, user, "text")
		assert.ErrorIs(t, err, ErrAnalysisUnavailable)
	})

	t.Run("completer error", func(t *testing.T) {
		upstream := errors.New("quota exceeded")
		_, err := newTestAnalyzer(&FakeCompleter{Err: upstream}, nil).Analyze(ctx, user, "text")
		assert.ErrorIs(t, err, upstream)
	})

	t.Run("record failure does not fail analysis", func(t *testing.T) {
		recorder := &FakeAnalysisRecorder{RecordErr: errors.New("mongo down")}
		a, err := newTestAnalyzer(&FakeCompleter{Reply: reply}, recorder).Analyze(ctx, user, "text")
		require.NoError(t, err)
		assert.NotNil(t, a)
	})
}
