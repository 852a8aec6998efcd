// Package report computes classification diagnostics.
package report

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrLengthMismatch is returned when truth and predictions differ in length.
	ErrLengthMismatch = errors.New("report: label slices differ in length")
	// ErrUnknownLabel is returned for a label with no class name.
	ErrUnknownLabel = errors.New("report: label out of range")
)

// Accuracy returns the fraction of yPred equal to yTrue, or 0 for no samples.
// yPred must be at least as long as yTrue.
func Accuracy(yTrue, yPred []int) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	correct := 0
	for i, y := range yTrue {
		if yPred[i] == y {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue))
}

// ClassMetrics holds one class's scores.
type ClassMetrics struct {
	Name      string  `json:"name"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Average holds averaged precision, recall and F1.
type Average struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// Report is a per-class breakdown of predictions. Labels are indices into Names.
type Report struct {
	Classes   []ClassMetrics `json:"classes"`
	Accuracy  float64        `json:"accuracy"`
	Macro     Average        `json:"macro_avg"`
	Weighted  Average        `json:"weighted_avg"`
	Confusion [][]int        `json:"confusion"` // [true][predicted]
}

// Total returns the number of evaluated samples.
func (r *Report) Total() int {
	return lo.SumBy(r.Classes, func(c ClassMetrics) int { return c.Support })
}

// Correct returns the number of correctly predicted samples.
func (r *Report) Correct() int {
	n := 0
	for i := range r.Confusion {
		n += r.Confusion[i][i]
	}
	return n
}

// Classification builds a report for labels 0..len(names)-1. Undefined
// precision or recall (no predictions or no samples for a class) counts as 0.
func Classification(yTrue, yPred []int, names []string) (*Report, error) {
	if len(yTrue) != len(yPred) {
		return nil, fmt.Errorf("%w: %d true, %d predicted", ErrLengthMismatch, len(yTrue), len(yPred))
	}
	k := len(names)
	confusion := make([][]int, k)
	for i := range confusion {
		confusion[i] = make([]int, k)
	}
	for i := range yTrue {
		t, p := yTrue[i], yPred[i]
		if t < 0 || t >= k || p < 0 || p >= k {
			return nil, fmt.Errorf("%w: sample %d has true=%d predicted=%d for %d classes", ErrUnknownLabel, i, t, p, k)
		}
		confusion[t][p]++
	}

	r := &Report{Confusion: confusion, Accuracy: Accuracy(yTrue, yPred)}
	total := len(yTrue)
	for c := range k {
		tp := confusion[c][c]
		support := lo.Sum(confusion[c])
		predicted := 0
		for t := range k {
			predicted += confusion[t][c]
		}
		m := ClassMetrics{
			Name:      names[c],
			Precision: ratio(tp, predicted),
			Recall:    ratio(tp, support),
			Support:   support,
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		r.Classes = append(r.Classes, m)

		r.Macro.Precision += m.Precision / float64(k)
		r.Macro.Recall += m.Recall / float64(k)
		r.Macro.F1 += m.F1 / float64(k)
		if total > 0 {
			w := float64(support) / float64(total)
			r.Weighted.Precision += w * m.Precision
			r.Weighted.Recall += w * m.Recall
			r.Weighted.F1 += w * m.F1
		}
	}
	return r, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Summary describes a set of cross-validation scores.
type Summary struct {
	Scores []float64 `json:"scores"`
	Mean   float64   `json:"mean"`
	Std    float64   `json:"std"`
}

// Summarize computes the mean and population standard deviation of scores.
func Summarize(scores []float64) Summary {
	s := Summary{Scores: scores}
	if len(scores) > 0 {
		s.Mean, s.Std = stat.PopMeanStdDev(scores, nil)
	}
	return s
}
