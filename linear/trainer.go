package linear

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/happyhackingspace/hamspam/internal/vectorizer"
	"gonum.org/v1/gonum/floats"
)

// Fit trains a model on x with labels y in {0, 1}.
func (c Config) Fit(x []vectorizer.SparseVector, y []int) (*Model, error) {
	if len(x) == 0 {
		return nil, ErrEmptyInput
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d vectors but %d labels", ErrDimensionMismatch, len(x), len(y))
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	dim := x[0].Dim
	for i, xi := range x {
		if xi.Dim != dim {
			return nil, fmt.Errorf("%w: sample %d has %d dimensions, sample 0 has %d", ErrDimensionMismatch, i, xi.Dim, dim)
		}
	}
	signs, err := labelSigns(y)
	if err != nil {
		return nil, err
	}

	n := len(x)
	bias := c.InterceptScaling
	diag := 0.5 / c.C // squared hinge: D_ii = 1/(2C), no upper bound on alpha

	qd := make([]float64, n)
	for i, xi := range x {
		qd[i] = xi.SquaredNorm() + bias*bias + diag
	}

	w := make([]float64, dim)
	wb := 0.0
	alpha := make([]float64, n)
	index := make([]int, n)
	for i := range index {
		index[i] = i
	}
	rng := rand.New(rand.NewPCG(c.Seed, c.Seed^0x9e3779b97f4a7c15))

	iter := 0
	converged := false
	for iter < c.MaxIter {
		rng.Shuffle(n, func(i, j int) { index[i], index[j] = index[j], index[i] })

		pgMax := math.Inf(-1)
		pgMin := math.Inf(1)
		for _, i := range index {
			yi := signs[i]
			g := yi*(x[i].Dot(w)+wb*bias) - 1 + alpha[i]*diag

			// Projected gradient: alpha is bounded below by zero only.
			pg := g
			if alpha[i] == 0 && g > 0 {
				pg = 0
			}
			pgMax = math.Max(pgMax, pg)
			pgMin = math.Min(pgMin, pg)

			if math.Abs(pg) > 1e-12 {
				old := alpha[i]
				alpha[i] = math.Max(alpha[i]-g/qd[i], 0)
				d := (alpha[i] - old) * yi
				x[i].AddTo(w, d)
				wb += d * bias
			}
		}
		iter++

		if pgMax-pgMin <= c.Tol {
			converged = true
			break
		}
	}

	weightNorm := floats.Norm(w, 2)
	if converged {
		slog.Debug("SVC converged", "iterations", iter, "C", c.C, "weight_norm", weightNorm)
	} else {
		slog.Debug("SVC reached max_iter without converging", "max_iter", c.MaxIter, "C", c.C)
	}

	return &Model{
		Weights:    w,
		Bias:       wb * bias,
		C:          c.C,
		WeightNorm: weightNorm,
		Iterations: iter,
		Converged:  converged,
	}, nil
}

// labelSigns maps {0, 1} labels to {-1, +1} and checks both classes occur.
func labelSigns(y []int) ([]float64, error) {
	signs := make([]float64, len(y))
	var seen [2]bool
	for i, label := range y {
		switch label {
		case 0:
			signs[i] = -1
		case 1:
			signs[i] = 1
		default:
			return nil, fmt.Errorf("%w: sample %d has label %d", ErrInvalidLabel, i, label)
		}
		seen[label] = true
	}
	if !seen[0] || !seen[1] {
		return nil, fmt.Errorf("%w: all %d samples share one label", ErrDegenerateLabels, len(y))
	}
	return signs, nil
}
