package search

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/samber/lo"
)

// Folds holds the sorted test indices of each fold. Folds are disjoint and
// together cover every sample.
type Folds [][]int

// StratifiedKFold splits sample indices into k folds so each fold keeps
// roughly the label proportions of the whole set. With shuffle set, members
// of each class are permuted with seed before dealing; without it, the
// assignment depends on labels alone.
func StratifiedKFold(labels []int, k int, seed uint64, shuffle bool) (Folds, error) {
	n := len(labels)
	if k < 2 {
		return nil, fmt.Errorf("%w: k=%d must be at least 2", ErrInvalidFolds, k)
	}
	if k > n {
		return nil, fmt.Errorf("%w: k=%d exceeds %d samples", ErrInvalidFolds, k, n)
	}

	byClass := lo.GroupBy(lo.Range(n), func(i int) int { return labels[i] })
	classes := lo.Keys(byClass)
	slices.Sort(classes)

	var rng *rand.Rand
	if shuffle {
		rng = rand.New(rand.NewPCG(seed, seed^0xda3e39cb94b95bdb))
	}

	folds := make(Folds, k)
	next := 0
	for _, class := range classes {
		members := byClass[class]
		if rng != nil {
			rng.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
		}
		for _, idx := range members {
			folds[next] = append(folds[next], idx)
			next = (next + 1) % k
		}
	}
	for _, f := range folds {
		slices.Sort(f)
	}
	return folds, nil
}

// Test returns the held-out indices of fold f.
func (fs Folds) Test(f int) []int {
	return fs[f]
}

// Train returns every index outside fold f, ascending.
func (fs Folds) Train(f int) []int {
	var train []int
	for i, fold := range fs {
		if i != f {
			train = append(train, fold...)
		}
	}
	slices.Sort(train)
	return train
}

func gather[T any](src []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = src[j]
	}
	return out
}
