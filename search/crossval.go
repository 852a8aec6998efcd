package search

import (
	"context"
	"fmt"

	"github.com/happyhackingspace/hamspam/internal/metrics"
	"github.com/happyhackingspace/hamspam/linear"
	"github.com/happyhackingspace/hamspam/pipeline"
)

// CVOptions tune CrossValScore.
type CVOptions struct {
	Folds       int // default 5
	Shuffle     bool
	Seed        uint64
	Parallelism int
	Scoring     Scorer
	Metrics     *metrics.Metrics
}

// CrossValScore scores cfg on each of k stratified folds. Folds are not
// shuffled unless opts.Shuffle is set, so the assignment generally differs
// from the one a Search with the same data uses. Any failed fold fails the
// whole call.
func CrossValScore(ctx context.Context, cfg pipeline.Config, docs []string, labels []int, opts CVOptions) ([]float64, error) {
	if len(docs) != len(labels) {
		return nil, fmt.Errorf("search: %w: %d documents but %d labels", linear.ErrDimensionMismatch, len(docs), len(labels))
	}
	so := Options{
		Folds:       opts.Folds,
		Seed:        opts.Seed,
		Parallelism: opts.Parallelism,
		Scoring:     opts.Scoring,
		Metrics:     opts.Metrics,
	}.withDefaults()

	folds, err := StratifiedKFold(labels, so.Folds, opts.Seed, opts.Shuffle)
	if err != nil {
		return nil, err
	}
	units := runUnits(ctx, []pipeline.Config{cfg}, folds, docs, labels, so)

	scores := make([]float64, len(units))
	for i, u := range units {
		switch {
		case u.Skipped:
			return nil, fmt.Errorf("search: fold %d skipped: %w", u.Fold, ctx.Err())
		case u.Err != nil:
			return nil, fmt.Errorf("search: fold %d: %w", u.Fold, u.Err)
		}
		scores[i] = u.Score
	}
	return scores, nil
}
