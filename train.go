package hamspam

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/happyhackingspace/hamspam/internal/artifact"
	"github.com/happyhackingspace/hamspam/internal/corpus"
	"github.com/happyhackingspace/hamspam/internal/metrics"
	"github.com/happyhackingspace/hamspam/internal/vectorizer"
	"github.com/happyhackingspace/hamspam/pipeline"
	"github.com/happyhackingspace/hamspam/report"
	"github.com/happyhackingspace/hamspam/search"
)

// TrainConfig holds configuration for training.
type TrainConfig struct {
	Pipeline    pipeline.Config
	Grid        search.Grid
	TestSize    float64       // holdout fraction
	Seed        uint64        // split and fold shuffling
	Folds       int           // grid search folds
	CVFolds     int           // diagnostic folds
	Parallelism int           // <= 0 means GOMAXPROCS
	Timeout     time.Duration // grid search deadline; 0 means none
	Metrics     *metrics.Metrics
}

// DefaultTrainConfig returns a configuration searching C over {0.1, 1, 10}.
func DefaultTrainConfig() *TrainConfig {
	grid, err := search.NewGrid(search.Param{Name: "svc__C", Values: []any{0.1, 1.0, 10.0}})
	if err != nil {
		panic(err)
	}
	return &TrainConfig{
		Pipeline: pipeline.DefaultConfig(),
		Grid:     grid,
		TestSize: 0.2,
		Seed:     42,
		Folds:    5,
		CVFolds:  5,
	}
}

// Experiment is the outcome of Train.
type Experiment struct {
	Classifier *Classifier
	BestParams map[string]any
	BestScore  float64 // mean grid search CV score
	Search     *search.Result
	Holdout    *report.Report // on the untouched test partition
	CV         report.Summary // independent diagnostic over the training partition
	TrainSize  int
	TestSize   int
	Partial    bool // the search deadline cut the grid short
}

// Train splits docs into train and test partitions, grid-searches the
// training partition, evaluates the refit winner once on the test partition
// and cross-validates it again as a diagnostic.
func Train(ctx context.Context, docs []corpus.Document, config *TrainConfig) (*Experiment, error) {
	if config == nil {
		config = DefaultTrainConfig()
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("hamspam: %w", vectorizer.ErrEmptyInput)
	}
	log := slog.Default()

	train, test, err := corpus.Split(docs, config.TestSize, config.Seed)
	if err != nil {
		return nil, fmt.Errorf("hamspam: %w", err)
	}
	log.Info("Split corpus", "train", len(train), "test", len(test), "seed", config.Seed)

	searchCtx := ctx
	if config.Timeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}
	trainTexts, trainLabels := corpus.Texts(train), corpus.Labels(train)
	res, err := search.Search(searchCtx, config.Pipeline, config.Grid, trainTexts, trainLabels, search.Options{
		Folds:       config.Folds,
		Seed:        config.Seed,
		Parallelism: config.Parallelism,
		Metrics:     config.Metrics,
		Logger:      log,
	})
	if err != nil {
		return nil, fmt.Errorf("hamspam: %w", err)
	}

	// The holdout partition is scored exactly once, by the refit winner.
	pred, err := res.Best.Predict(corpus.Texts(test))
	if err != nil {
		return nil, fmt.Errorf("hamspam: holdout: %w", err)
	}
	holdout, err := report.Classification(corpus.Labels(test), pred, corpus.ClassNames)
	if err != nil {
		return nil, fmt.Errorf("hamspam: holdout: %w", err)
	}

	scores, err := search.CrossValScore(ctx, res.BestConfig, trainTexts, trainLabels, search.CVOptions{
		Folds:       config.CVFolds,
		Parallelism: config.Parallelism,
	})
	if err != nil {
		return nil, fmt.Errorf("hamspam: cross-validation diagnostic: %w", err)
	}
	cv := report.Summarize(scores)
	log.Info("Experiment finished",
		"best_params", res.BestCandidate().Params,
		"search_mean", res.BestScore(),
		"cv_mean", cv.Mean,
		"holdout_accuracy", holdout.Accuracy,
	)

	meta := artifact.NewMeta()
	meta.Params = res.BestConfig.Params()
	meta.CVMean = res.BestScore()
	meta.HoldoutAccuracy = holdout.Accuracy
	meta.TrainSize = len(train)
	meta.Partial = res.Partial

	return &Experiment{
		Classifier: NewClassifier(res.Best, meta),
		BestParams: res.BestCandidate().Params,
		BestScore:  res.BestScore(),
		Search:     res,
		Holdout:    holdout,
		CV:         cv,
		TrainSize:  len(train),
		TestSize:   len(test),
		Partial:    res.Partial,
	}, nil
}

// EvalResult holds cross-validation results for a fixed configuration.
type EvalResult struct {
	Folds  report.Summary // per-fold accuracy
	Report *report.Report // pooled out-of-fold predictions
}

// Evaluate cross-validates cfg on docs with shuffled stratified folds.
func Evaluate(ctx context.Context, docs []corpus.Document, cfg pipeline.Config, folds int, seed uint64) (*EvalResult, error) {
	texts, labels := corpus.Texts(docs), corpus.Labels(docs)
	assignment, err := search.StratifiedKFold(labels, folds, seed, true)
	if err != nil {
		return nil, fmt.Errorf("hamspam: %w", err)
	}

	pooled := make([]int, len(docs))
	scores := make([]float64, 0, len(assignment))
	for f := range assignment {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("hamspam: %w", err)
		}
		trainIdx, testIdx := assignment.Train(f), assignment.Test(f)
		model, err := cfg.Fit(pick(texts, trainIdx), pick(labels, trainIdx))
		if err != nil {
			return nil, fmt.Errorf("hamspam: fold %d: %w", f, err)
		}
		pred, err := model.Predict(pick(texts, testIdx))
		if err != nil {
			return nil, fmt.Errorf("hamspam: fold %d: %w", f, err)
		}
		for i, idx := range testIdx {
			pooled[idx] = pred[i]
		}
		scores = append(scores, report.Accuracy(pick(labels, testIdx), pred))
		slog.Debug("Fold evaluated", "fold", f, "accuracy", scores[len(scores)-1])
	}

	r, err := report.Classification(labels, pooled, corpus.ClassNames)
	if err != nil {
		return nil, fmt.Errorf("hamspam: %w", err)
	}
	return &EvalResult{Folds: report.Summarize(scores), Report: r}, nil
}

func pick[T any](src []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = src[j]
	}
	return out
}
