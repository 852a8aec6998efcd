package search

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/happyhackingspace/hamspam/internal/metrics"
	"github.com/happyhackingspace/hamspam/pipeline"
	"github.com/happyhackingspace/hamspam/report"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

var (
	spamWords = []string{"free", "winner", "prize", "cash", "claim", "offer", "urgent", "credit"}
	hamWords  = []string{"meeting", "lunch", "report", "project", "tomorrow", "family", "review", "notes"}
)

// messages builds n short messages per class, cycling through word pairs.
func messages(n int) ([]string, []int) {
	var docs []string
	var labels []int
	for i := range n {
		docs = append(docs, fmt.Sprintf("%s %s %s today", hamWords[i%8], hamWords[(i/8+3)%8], "hello"))
		labels = append(labels, 0)
		docs = append(docs, fmt.Sprintf("%s %s %s today", spamWords[i%8], spamWords[(i/8+5)%8], "hello"))
		labels = append(labels, 1)
	}
	return docs, labels
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustGrid(t *testing.T, params ...Param) Grid {
	t.Helper()
	grid, err := NewGrid(params...)
	require.NoError(t, err)
	return grid
}

func TestSearchUnitsAndSelection(t *testing.T) {
	req := require.New(t)

	// Given
	docs, labels := messages(40)
	grid := mustGrid(t,
		Param{Name: "C", Values: []any{0.1, 1.0}},
		Param{Name: "max_df", Values: []any{0.9, 1.0}},
	)

	// When
	res, err := Search(context.Background(), pipeline.DefaultConfig(), grid, docs, labels,
		Options{Folds: 5, Seed: 42, Parallelism: 4, Logger: quiet()})
	req.NoError(err)

	// Then
	req.Len(res.Units, 20)
	req.Len(res.Candidates, 4)
	req.False(res.Partial)
	req.NotNil(res.Best)

	lo, hi := 1.0, 0.0
	for i, c := range res.Candidates {
		req.Equal(i, c.Index)
		req.Len(c.Scores, 5)
		req.True(c.Complete())
		lo = min(lo, c.Mean)
		hi = max(hi, c.Mean)
	}
	best := res.BestCandidate()
	req.Equal(1, best.Rank)
	req.GreaterOrEqual(best.Mean, lo)
	req.LessOrEqual(best.Mean, hi)
	req.Equal(hi, res.BestScore())

	for i, u := range res.Units {
		req.Equal(i/5, u.Point)
		req.Equal(i%5, u.Fold)
		req.NoError(u.Err)
	}

	cfg, err := pipeline.DefaultConfig().With(best.Params)
	req.NoError(err)
	req.Equal(cfg, res.BestConfig)
	req.Equal(res.BestConfig, res.Best.Config)
}

func TestSearchParallelismDoesNotChangeScores(t *testing.T) {
	req := require.New(t)
	docs, labels := messages(30)
	grid := mustGrid(t, Param{Name: "C", Values: []any{0.01, 0.1, 1.0, 10.0}})

	serial, err := Search(context.Background(), pipeline.DefaultConfig(), grid, docs, labels,
		Options{Seed: 3, Parallelism: 1, Logger: quiet()})
	req.NoError(err)
	parallel, err := Search(context.Background(), pipeline.DefaultConfig(), grid, docs, labels,
		Options{Seed: 3, Parallelism: 8, Logger: quiet()})
	req.NoError(err)

	for i := range serial.Candidates {
		req.Equal(serial.Candidates[i].Scores, parallel.Candidates[i].Scores)
	}
	req.Equal(serial.BestIndex, parallel.BestIndex)
}

func TestSearchTieGoesToFirstPoint(t *testing.T) {
	docs, labels := messages(20)
	grid := mustGrid(t, Param{Name: "C", Values: []any{1.0, 1.0, 1.0}})

	res, err := Search(context.Background(), pipeline.DefaultConfig(), grid, docs, labels,
		Options{Folds: 4, Logger: quiet()})
	require.NoError(t, err)
	require.Equal(t, 0, res.BestIndex)
	require.Equal(t, []int{1, 2, 3}, []int{res.Candidates[0].Rank, res.Candidates[1].Rank, res.Candidates[2].Rank})
}

func TestSearchFailureContainment(t *testing.T) {
	req := require.New(t)

	// 21 docs per class and k=5 give test folds of 9, 9, 8, 8 and 8, so
	// training sets hold 33 or 34 documents. "common" occurs in every one.
	var docs []string
	var labels []int
	for i := range 21 {
		docs = append(docs, fmt.Sprintf("common hamword h%d", i))
		labels = append(labels, 0)
	}
	for i := range 21 {
		docs = append(docs, fmt.Sprintf("common spamword s%d", i))
		labels = append(labels, 1)
	}
	grid := mustGrid(t, Param{Name: "min_df", Values: []any{1, 34, 100000}})

	res, err := Search(context.Background(), pipeline.DefaultConfig(), grid, docs, labels,
		Options{Folds: 5, Logger: quiet()})
	req.NoError(err)

	ok, partial, failed := res.Candidates[0], res.Candidates[1], res.Candidates[2]
	req.True(ok.Complete())
	req.Equal(1, ok.Rank)

	req.Equal(2, partial.Failed)
	req.Len(partial.Scores, 3)
	req.False(partial.Excluded)
	req.Equal(2, partial.Rank)

	req.True(failed.Excluded)
	req.Equal(5, failed.Failed)
	req.Zero(failed.Rank)
	req.Equal(0, res.BestIndex)
}

func TestRankPutsIncompleteLast(t *testing.T) {
	candidates := []Candidate{
		{Index: 0, Mean: 0.7, Scores: []float64{0.7}},
		{Index: 1, Mean: 0.99, Scores: []float64{0.99}, Failed: 1},
		{Index: 2, Mean: 0.8, Scores: []float64{0.8}},
		{Index: 3, Excluded: true, Failed: 1},
		{Index: 4, Mean: 0.8, Scores: []float64{0.8}},
	}
	order := rank(candidates)
	require.Equal(t, []int{2, 4, 0, 1}, order)
	require.Equal(t, 0, candidates[3].Rank)
}

func TestSearchNoValidCandidate(t *testing.T) {
	docs, labels := messages(10)
	grid := mustGrid(t, Param{Name: "min_df", Values: []any{100000}})
	_, err := Search(context.Background(), pipeline.DefaultConfig(), grid, docs, labels, Options{Logger: quiet()})
	require.ErrorIs(t, err, ErrNoValidCandidate)
}

func TestSearchEmptyGrid(t *testing.T) {
	docs, labels := messages(10)
	grid := mustGrid(t, Param{Name: "C"})
	_, err := Search(context.Background(), pipeline.DefaultConfig(), grid, docs, labels, Options{Logger: quiet()})
	require.ErrorIs(t, err, ErrEmptyGrid)
}

func TestSearchCancelledBeforeStart(t *testing.T) {
	docs, labels := messages(10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Search(ctx, pipeline.DefaultConfig(), mustGrid(t), docs, labels, Options{Logger: quiet()})
	require.ErrorIs(t, err, context.Canceled)
}

func TestSearchPartialOnDeadline(t *testing.T) {
	req := require.New(t)
	docs, labels := messages(20)
	grid := mustGrid(t, Param{Name: "C", Values: []any{0.1, 1.0}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// The first scored unit ends the context; with one worker every later unit is skipped.
	scorer := func(yTrue, yPred []int) float64 {
		cancel()
		return report.Accuracy(yTrue, yPred)
	}

	res, err := Search(ctx, pipeline.DefaultConfig(), grid, docs, labels,
		Options{Folds: 5, Parallelism: 1, Scoring: scorer, Logger: quiet()})
	req.NoError(err)
	req.True(res.Partial)
	req.Len(res.Units, 10)
	req.Equal(0, res.BestIndex)
	req.Len(res.Candidates[0].Scores, 1)
	req.Equal(4, res.Candidates[0].Skipped)
	req.True(res.Candidates[1].Excluded)
	req.NotNil(res.Best)
}

func TestSearchMetrics(t *testing.T) {
	docs, labels := messages(20)
	m := metrics.New(prometheus.NewRegistry())
	grid := mustGrid(t, Param{Name: "C", Values: []any{0.1, 1.0}})

	res, err := Search(context.Background(), pipeline.DefaultConfig(), grid, docs, labels,
		Options{Folds: 3, Metrics: m, Logger: quiet()})
	require.NoError(t, err)
	require.Equal(t, 6.0, testutil.ToFloat64(m.SearchUnitsTotal.WithLabelValues(metrics.StatusOK)))
	require.Equal(t, res.BestScore(), testutil.ToFloat64(m.SearchBestScore))
}

func TestCrossValScore(t *testing.T) {
	req := require.New(t)
	docs, labels := messages(25)

	scores, err := CrossValScore(context.Background(), pipeline.DefaultConfig(), docs, labels, CVOptions{Folds: 5})
	req.NoError(err)
	req.Len(scores, 5)
	for _, s := range scores {
		req.GreaterOrEqual(s, 0.0)
		req.LessOrEqual(s, 1.0)
	}

	again, err := CrossValScore(context.Background(), pipeline.DefaultConfig(), docs, labels, CVOptions{Folds: 5, Seed: 99})
	req.NoError(err)
	req.Equal(scores, again)

	_, err = CrossValScore(context.Background(), pipeline.DefaultConfig(), docs, labels, CVOptions{Folds: 1})
	req.ErrorIs(err, ErrInvalidFolds)
}
