package pipeline

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/happyhackingspace/hamspam/internal/vectorizer"
	"github.com/happyhackingspace/hamspam/linear"
	"github.com/stretchr/testify/require"
)

var (
	texts = []string{
		"win free money now",
		"free prize claim now",
		"cheap pills free offer",
		"claim your free cash prize",
		"meeting moved to noon",
		"lunch with the team tomorrow",
		"project report attached for review",
		"see you at the meeting tomorrow",
	}
	labels = []int{1, 1, 1, 1, 0, 0, 0, 0}
)

func TestSetQualifiedAndBare(t *testing.T) {
	req := require.New(t)

	// Given
	cfg := DefaultConfig()

	// When
	req.NoError(cfg.Set("svc__C", 0.5))
	req.NoError(cfg.Set("max_df", 0.8))
	req.NoError(cfg.Set("tfidf__ngram_range", []any{1, 2}))
	req.NoError(cfg.Set("min_df", 2.0))

	// Then
	req.Equal(0.5, cfg.SVC.C)
	req.Equal(0.8, cfg.Tfidf.MaxDF)
	req.Equal([2]int{1, 2}, cfg.Tfidf.NgramRange)
	req.Equal(2, cfg.Tfidf.MinDF)
}

func TestSetErrors(t *testing.T) {
	tests := []struct {
		name  string
		param string
		value any
		want  error
	}{
		{"unknown name", "gamma", 1.0, ErrUnknownParam},
		{"wrong stage", "svc__max_df", 0.5, ErrUnknownParam},
		{"unknown stage", "clf__C", 1.0, ErrUnknownParam},
		{"wrong type", "C", "big", ErrInvalidParam},
		{"out of range", "C", -1.0, ErrInvalidParam},
		{"max_df above one", "max_df", 1.5, ErrInvalidParam},
		{"fractional min_df", "min_df", 1.5, ErrInvalidParam},
		{"bad range", "ngram_range", []any{2, 1}, ErrInvalidParam},
		{"bad stop words", "stop_words", "klingon", ErrInvalidParam},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			cfg := DefaultConfig()
			err := cfg.Set(tt.param, tt.value)
			req.ErrorIs(err, tt.want)
			req.Equal(DefaultConfig(), cfg, "failed Set must leave config unchanged")
		})
	}
}

func TestSetWrapsStageError(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Set("C", 0.0)
	require.ErrorIs(t, err, ErrInvalidParam)
	require.ErrorIs(t, err, linear.ErrInvalidParam)

	err = cfg.Set("max_df", 0.0)
	require.ErrorIs(t, err, vectorizer.ErrInvalidParam)
}

func TestWithReturnsCopy(t *testing.T) {
	req := require.New(t)
	base := DefaultConfig()

	next, err := base.With(map[string]any{"C": 10.0, "sublinear_tf": true})
	req.NoError(err)

	req.Equal(10.0, next.SVC.C)
	req.True(next.Tfidf.SublinearTF)
	req.Equal(1.0, base.SVC.C)
	req.False(base.Tfidf.SublinearTF)
}

func TestParams(t *testing.T) {
	req := require.New(t)
	p := DefaultConfig().Params()

	req.Len(p, len(ParamNames()))
	req.Equal(1.0, p["svc__C"])
	req.Equal(1.0, p["tfidf__max_df"])
	req.Equal([2]int{1, 1}, p["tfidf__ngram_range"])

	name, err := CanonicalName("C")
	req.NoError(err)
	req.Equal("svc__C", name)
	req.Equal([]string{StageTfidf, StageSVC}, Stages())
}

func TestFitPredict(t *testing.T) {
	req := require.New(t)

	// Given
	m, err := DefaultConfig().Fit(texts, labels)
	req.NoError(err)

	// When
	pred, err := m.Predict(texts)
	req.NoError(err)

	// Then
	req.Equal(labels, pred)
	req.Equal(m.Tfidf.VocabSize(), m.SVC.Dim())

	got, err := m.Predict([]string{"free cash prize now", "team meeting tomorrow"})
	req.NoError(err)
	req.Equal([]int{1, 0}, got)
}

func TestPredictEmptyAndUnseen(t *testing.T) {
	req := require.New(t)
	m, err := DefaultConfig().Fit(texts, labels)
	req.NoError(err)

	scores, err := m.DecisionScores([]string{"", "zzz qqq"})
	req.NoError(err)
	req.Equal(m.SVC.Bias, scores[0])
	req.Equal(m.SVC.Bias, scores[1])
}

func TestFitErrors(t *testing.T) {
	_, err := DefaultConfig().Fit(nil, nil)
	require.ErrorIs(t, err, vectorizer.ErrEmptyInput)

	_, err = DefaultConfig().Fit(texts, labels[:3])
	require.ErrorIs(t, err, linear.ErrDimensionMismatch)

	_, err = DefaultConfig().Fit(texts[:4], labels[:4])
	require.ErrorIs(t, err, linear.ErrDegenerateLabels)
}

func TestModelJSONRoundTrip(t *testing.T) {
	req := require.New(t)
	cfg := DefaultConfig()
	cfg.Tfidf.StopWords = vectorizer.StopWordsEnglish
	m, err := cfg.Fit(texts, labels)
	req.NoError(err)

	data, err := json.Marshal(m)
	req.NoError(err)
	var loaded Model
	req.NoError(json.Unmarshal(data, &loaded))
	req.NoError(loaded.Init())

	want, err := m.DecisionScores(texts)
	req.NoError(err)
	got, err := loaded.DecisionScores(texts)
	req.NoError(err)
	req.Equal(want, got)
}

func TestInitRejectsBrokenModel(t *testing.T) {
	require.Error(t, (&Model{}).Init())

	m, err := DefaultConfig().Fit(texts, labels)
	require.NoError(t, err)
	m.Tfidf.IDF = m.Tfidf.IDF[:1]
	require.ErrorIs(t, m.Init(), vectorizer.ErrInconsistent)
}

func TestTopTerms(t *testing.T) {
	req := require.New(t)
	m, err := DefaultConfig().Fit(texts, labels)
	req.NoError(err)

	spam, ham := m.TopTerms(3)
	req.NotEmpty(spam)
	req.NotEmpty(ham)
	spamWords := strings.Fields(strings.Join(texts[:4], " "))
	hamWords := strings.Fields(strings.Join(texts[4:], " "))
	req.Contains(spamWords, spam[0].Term)
	req.Contains(hamWords, ham[0].Term)
	for _, tw := range spam {
		req.Positive(tw.Weight)
	}
	for _, tw := range ham {
		req.Negative(tw.Weight)
	}

	spam, ham = m.TopTerms(-1)
	req.Empty(spam)
	req.Empty(ham)
}
