// Package search selects pipeline hyperparameters by exhaustive grid search
// scored with stratified k-fold cross-validation.
package search

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"time"

	"github.com/happyhackingspace/hamspam/internal/metrics"
	"github.com/happyhackingspace/hamspam/linear"
	"github.com/happyhackingspace/hamspam/pipeline"
	"github.com/happyhackingspace/hamspam/report"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrEmptyGrid is returned when the grid has zero configurations.
	ErrEmptyGrid = errors.New("search: grid has no configurations")
	// ErrInvalidGrid is returned for malformed grid definitions.
	ErrInvalidGrid = errors.New("search: invalid grid")
	// ErrInvalidFolds is returned when k is outside [2, n].
	ErrInvalidFolds = errors.New("search: invalid number of folds")
	// ErrNoValidCandidate is returned when every configuration failed on every fold.
	ErrNoValidCandidate = errors.New("search: no configuration produced a score")
)

// Scorer rates predictions against the truth. Higher is better.
type Scorer func(yTrue, yPred []int) float64

// Options tune a search.
type Options struct {
	Folds       int    // default 5
	Seed        uint64 // fold shuffling
	Parallelism int    // concurrent units; <= 0 means GOMAXPROCS
	Scoring     Scorer // default report.Accuracy
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Folds == 0 {
		o.Folds = 5
	}
	if o.Parallelism <= 0 {
		o.Parallelism = runtime.GOMAXPROCS(0)
	}
	if o.Scoring == nil {
		o.Scoring = report.Accuracy
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Unit is the outcome of fitting one configuration on all folds but one and
// scoring it on the held-out fold.
type Unit struct {
	Point    int
	Fold     int
	Score    float64
	Err      error
	Skipped  bool // never started because the context ended
	Duration time.Duration
}

// Candidate aggregates the units of one grid point.
type Candidate struct {
	Index    int
	Params   map[string]any
	Scores   []float64 // successful folds, in fold order
	Mean     float64
	Std      float64
	Failed   int
	Skipped  int
	Excluded bool // no fold produced a score
	Rank     int  // 1 is best; 0 when excluded
}

// Complete reports whether every fold of the candidate produced a score.
func (c Candidate) Complete() bool {
	return !c.Excluded && c.Failed == 0 && c.Skipped == 0
}

// Result is the outcome of a search.
type Result struct {
	Candidates []Candidate
	Units      []Unit // len(Candidates) * len(Folds), ordered by (point, fold)
	Folds      Folds
	BestIndex  int
	BestConfig pipeline.Config
	Best       *pipeline.Model // refit on all training data
	Partial    bool            // the context ended before every unit ran
}

// BestCandidate returns the selected candidate.
func (r *Result) BestCandidate() Candidate {
	return r.Candidates[r.BestIndex]
}

// BestScore returns the mean cross-validation score of the selected candidate.
func (r *Result) BestScore() float64 {
	return r.Candidates[r.BestIndex].Mean
}

// Search evaluates every grid point applied on top of base, selects the one
// with the highest mean score and refits it on all of docs. Ties go to the
// earliest point. If ctx ends early, units not yet started are skipped and the
// best evaluated point is selected.
func Search(ctx context.Context, base pipeline.Config, grid Grid, docs []string, labels []int, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	log := opts.Logger

	points := grid.Points()
	if len(points) == 0 {
		return nil, ErrEmptyGrid
	}
	if len(docs) != len(labels) {
		return nil, fmt.Errorf("search: %w: %d documents but %d labels", linear.ErrDimensionMismatch, len(docs), len(labels))
	}
	configs := make([]pipeline.Config, len(points))
	for i, p := range points {
		cfg, err := base.With(p)
		if err != nil {
			return nil, fmt.Errorf("search: grid point %d: %w", i, err)
		}
		configs[i] = cfg
	}
	folds, err := StratifiedKFold(labels, opts.Folds, opts.Seed, true)
	if err != nil {
		return nil, err
	}

	log.Info("Grid search started",
		"configurations", len(points),
		"folds", len(folds),
		"units", len(points)*len(folds),
		"parallelism", opts.Parallelism,
	)
	start := time.Now()
	units := runUnits(ctx, configs, folds, docs, labels, opts)

	res := &Result{
		Candidates: aggregate(points, units, len(folds)),
		Units:      units,
		Folds:      folds,
	}
	for _, u := range units {
		if u.Skipped {
			res.Partial = true
			break
		}
	}

	order := rank(res.Candidates)
	if len(order) == 0 {
		if ctxErr := ctx.Err(); ctxErr != nil && allSkipped(units) {
			return nil, fmt.Errorf("search: no unit completed: %w", ctxErr)
		}
		return nil, ErrNoValidCandidate
	}
	res.BestIndex = order[0]
	res.BestConfig = configs[res.BestIndex]
	best := res.Candidates[res.BestIndex]
	opts.Metrics.SetBestScore(best.Mean)

	if res.Partial {
		log.Warn("Grid search deadline reached, selecting among evaluated configurations",
			"skipped", countSkipped(units), "error", ctx.Err())
	}
	log.Info("Grid search finished",
		"best_index", best.Index,
		"best_params", best.Params,
		"mean", best.Mean,
		"std", best.Std,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	// Fitting ignores ctx, so the refit completes even past the deadline.
	model, err := res.BestConfig.Fit(docs, labels)
	if err != nil {
		return nil, fmt.Errorf("search: refit configuration %d: %w", res.BestIndex, err)
	}
	res.Best = model
	return res, nil
}

// runUnits evaluates every (config, fold) pair. Results are stored by
// point*k+fold, so completion order never matters.
func runUnits(ctx context.Context, configs []pipeline.Config, folds Folds, docs []string, labels []int, opts Options) []Unit {
	k := len(folds)
	units := make([]Unit, len(configs)*k)

	var g errgroup.Group
	g.SetLimit(opts.Parallelism)
	for i := range units {
		p, f := i/k, i%k
		units[i] = Unit{Point: p, Fold: f}
		if ctx.Err() != nil {
			units[i].Skipped = true
			opts.Metrics.ObserveUnit(metrics.StatusSkipped, 0)
			continue
		}
		g.Go(func() error {
			runUnit(ctx, &units[i], configs[p], folds, docs, labels, opts)
			return nil
		})
	}
	_ = g.Wait()
	return units
}

func runUnit(ctx context.Context, u *Unit, cfg pipeline.Config, folds Folds, docs []string, labels []int, opts Options) {
	if ctx.Err() != nil {
		u.Skipped = true
		opts.Metrics.ObserveUnit(metrics.StatusSkipped, 0)
		return
	}
	start := time.Now()
	u.Score, u.Err = fitAndScore(cfg, folds, u.Fold, docs, labels, opts.Scoring)
	u.Duration = time.Since(start)

	if u.Err != nil {
		opts.Logger.Warn("Grid search unit failed", "point", u.Point, "fold", u.Fold, "error", u.Err)
		opts.Metrics.ObserveUnit(metrics.StatusFailed, u.Duration)
		return
	}
	opts.Logger.Debug("Grid search unit done", "point", u.Point, "fold", u.Fold, "score", u.Score, "duration", u.Duration)
	opts.Metrics.ObserveUnit(metrics.StatusOK, u.Duration)
}

func fitAndScore(cfg pipeline.Config, folds Folds, f int, docs []string, labels []int, score Scorer) (s float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("search: unit panicked: %v", r)
		}
	}()
	train, test := folds.Train(f), folds.Test(f)
	model, err := cfg.Fit(gather(docs, train), gather(labels, train))
	if err != nil {
		return 0, err
	}
	pred, err := model.Predict(gather(docs, test))
	if err != nil {
		return 0, err
	}
	return score(gather(labels, test), pred), nil
}

func aggregate(points []map[string]any, units []Unit, k int) []Candidate {
	candidates := make([]Candidate, len(points))
	for p := range points {
		c := Candidate{Index: p, Params: points[p]}
		for _, u := range units[p*k : (p+1)*k] {
			switch {
			case u.Skipped:
				c.Skipped++
			case u.Err != nil:
				c.Failed++
			default:
				c.Scores = append(c.Scores, u.Score)
			}
		}
		if len(c.Scores) == 0 {
			c.Excluded = true
		} else {
			c.Mean, c.Std = stat.PopMeanStdDev(c.Scores, nil)
		}
		candidates[p] = c
	}
	return candidates
}

// rank orders the scored candidates best first and stores each one's rank.
// Candidates missing folds come after every complete one.
func rank(candidates []Candidate) []int {
	var order []int
	for i, c := range candidates {
		if !c.Excluded {
			order = append(order, i)
		}
	}
	slices.SortStableFunc(order, func(a, b int) int {
		ca, cb := candidates[a], candidates[b]
		if ca.Complete() != cb.Complete() {
			if ca.Complete() {
				return -1
			}
			return 1
		}
		if c := cmp.Compare(cb.Mean, ca.Mean); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	for r, i := range order {
		candidates[i].Rank = r + 1
	}
	return order
}

func allSkipped(units []Unit) bool {
	return countSkipped(units) == len(units)
}

func countSkipped(units []Unit) int {
	n := 0
	for _, u := range units {
		if u.Skipped {
			n++
		}
	}
	return n
}
