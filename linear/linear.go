// Package linear implements a binary linear support vector classifier.
//
// Training minimizes the L2-regularized squared hinge loss
//
//	0.5*||w||^2 + C * sum_i max(0, 1 - y_i*(w·x_i + b))^2
//
// with the dual coordinate descent method of Hsieh et al. (2008), the same
// solver liblinear (and so sklearn's LinearSVC) uses. The intercept is learned
// as the weight of a constant feature and is therefore regularized too.
package linear

import (
	"errors"
	"fmt"
	"math"

	"github.com/happyhackingspace/hamspam/internal/vectorizer"
	"gonum.org/v1/gonum/floats"
)

var (
	// ErrEmptyInput is returned when fitting on zero samples.
	ErrEmptyInput = errors.New("linear: no samples")
	// ErrDimensionMismatch is returned when vector dimensions disagree with each other or with the model.
	ErrDimensionMismatch = errors.New("linear: input dimension mismatch")
	// ErrDegenerateLabels is returned when the training labels hold fewer than two classes.
	ErrDegenerateLabels = errors.New("linear: fewer than two distinct classes")
	// ErrInvalidLabel is returned for labels outside {0, 1}.
	ErrInvalidLabel = errors.New("linear: label must be 0 or 1")
	// ErrInvalidParam is returned for out-of-range hyperparameters.
	ErrInvalidParam = errors.New("linear: invalid parameter")
)

// Config holds training hyperparameters.
type Config struct {
	C                float64 `json:"C" yaml:"C"`
	Tol              float64 `json:"tol" yaml:"tol"`
	MaxIter          int     `json:"max_iter" yaml:"max_iter"`
	InterceptScaling float64 `json:"intercept_scaling" yaml:"intercept_scaling"` // 0 disables the intercept
	Seed             uint64  `json:"seed" yaml:"seed"`
}

// DefaultConfig returns LinearSVC's defaults.
func DefaultConfig() Config {
	return Config{
		C:                1.0,
		Tol:              1e-4,
		MaxIter:          1000,
		InterceptScaling: 1.0,
	}
}

// Validate checks the hyperparameters.
func (c Config) Validate() error {
	switch {
	case math.IsNaN(c.C) || c.C <= 0:
		return fmt.Errorf("%w: C=%v must be > 0", ErrInvalidParam, c.C)
	case math.IsNaN(c.Tol) || c.Tol <= 0:
		return fmt.Errorf("%w: tol=%v must be > 0", ErrInvalidParam, c.Tol)
	case c.MaxIter < 1:
		return fmt.Errorf("%w: max_iter=%d must be >= 1", ErrInvalidParam, c.MaxIter)
	case math.IsNaN(c.InterceptScaling) || c.InterceptScaling < 0:
		return fmt.Errorf("%w: intercept_scaling=%v must be >= 0", ErrInvalidParam, c.InterceptScaling)
	}
	return nil
}

// Model is a trained linear decision function. It is never modified after Fit returns.
type Model struct {
	Weights    []float64 `json:"weights"`
	Bias       float64   `json:"bias"`
	C          float64   `json:"C"`
	WeightNorm float64   `json:"weight_norm"` // ||w||, excluding the bias
	Iterations int       `json:"iterations"`
	Converged  bool      `json:"converged"`
}

// Check reports a model unusable for prediction: no weights, or a weight or
// bias that is NaN or infinite.
func (m *Model) Check() error {
	if len(m.Weights) == 0 {
		return fmt.Errorf("%w: model has no weights", ErrInvalidParam)
	}
	if floats.HasNaN(m.Weights) || math.IsNaN(m.Bias) ||
		math.IsInf(floats.Max(m.Weights), 1) || math.IsInf(floats.Min(m.Weights), -1) || math.IsInf(m.Bias, 0) {
		return fmt.Errorf("%w: non-finite weights", ErrInvalidParam)
	}
	return nil
}

// Dim returns the expected input dimension.
func (m *Model) Dim() int {
	return len(m.Weights)
}

// DecisionScore returns the signed margin w·x + b. Positive means spam.
func (m *Model) DecisionScore(x vectorizer.SparseVector) (float64, error) {
	if x.Dim != len(m.Weights) {
		return 0, fmt.Errorf("%w: vector has %d dimensions, model has %d", ErrDimensionMismatch, x.Dim, len(m.Weights))
	}
	return x.Dot(m.Weights) + m.Bias, nil
}

// Predict returns 1 when the margin is positive and 0 otherwise.
func (m *Model) Predict(x vectorizer.SparseVector) (int, error) {
	score, err := m.DecisionScore(x)
	if err != nil {
		return 0, err
	}
	return labelOf(score), nil
}

// DecisionScores scores every vector.
func (m *Model) DecisionScores(xs []vectorizer.SparseVector) ([]float64, error) {
	scores := make([]float64, len(xs))
	for i, x := range xs {
		s, err := m.DecisionScore(x)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		scores[i] = s
	}
	return scores, nil
}

// PredictAll predicts a label for every vector.
func (m *Model) PredictAll(xs []vectorizer.SparseVector) ([]int, error) {
	scores, err := m.DecisionScores(xs)
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(scores))
	for i, s := range scores {
		labels[i] = labelOf(s)
	}
	return labels, nil
}

func labelOf(score float64) int {
	if score > 0 {
		return 1
	}
	return 0
}
