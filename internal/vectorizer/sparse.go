// Package vectorizer turns raw documents into TF-IDF weighted sparse vectors,
// following sklearn's TfidfVectorizer semantics.
package vectorizer

import (
	"math"
	"sort"
)

// SparseVector represents a sparse float64 vector. Indices are strictly ascending.
type SparseVector struct {
	Indices []int
	Values  []float64
	Dim     int
}

// NewSparseVector creates an empty sparse vector with given dimension.
func NewSparseVector(dim int) SparseVector {
	return SparseVector{Dim: dim}
}

// FromMap builds a sparse vector from an index->value map, dropping zeros.
func FromMap(dim int, entries map[int]float64) SparseVector {
	sv := SparseVector{
		Indices: make([]int, 0, len(entries)),
		Values:  make([]float64, 0, len(entries)),
		Dim:     dim,
	}
	for idx, v := range entries {
		if v != 0 {
			sv.Indices = append(sv.Indices, idx)
		}
	}
	sort.Ints(sv.Indices)
	for _, idx := range sv.Indices {
		sv.Values = append(sv.Values, entries[idx])
	}
	return sv
}

// Dot computes the dot product with a dense vector. Indices beyond the dense
// vector contribute nothing.
func (sv SparseVector) Dot(dense []float64) float64 {
	var sum float64
	for i, idx := range sv.Indices {
		if idx < len(dense) {
			sum += sv.Values[i] * dense[idx]
		}
	}
	return sum
}

// AddTo adds scale*sv to the dense vector in place.
func (sv SparseVector) AddTo(dense []float64, scale float64) {
	for i, idx := range sv.Indices {
		if idx < len(dense) {
			dense[idx] += scale * sv.Values[i]
		}
	}
}

// SquaredNorm returns the sum of squared values.
func (sv SparseVector) SquaredNorm() float64 {
	var sum float64
	for _, v := range sv.Values {
		sum += v * v
	}
	return sum
}

// L2Norm returns the L2 norm of the sparse vector.
func (sv SparseVector) L2Norm() float64 {
	return math.Sqrt(sv.SquaredNorm())
}

// ToDense converts to a dense float64 slice.
func (sv SparseVector) ToDense() []float64 {
	dense := make([]float64, sv.Dim)
	for i, idx := range sv.Indices {
		if idx < sv.Dim {
			dense[idx] = sv.Values[i]
		}
	}
	return dense
}

// Nnz returns the number of non-zero entries.
func (sv SparseVector) Nnz() int {
	return len(sv.Indices)
}
