package corpus

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/samber/lo"
)

// Split partitions docs into train and test sets, keeping each class's share
// in both. testSize is the test fraction in (0, 1). The result depends only
// on docs, testSize and seed; both partitions keep the input order.
func Split(docs []Document, testSize float64, seed uint64) (train, test []Document, err error) {
	if math.IsNaN(testSize) || testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("%w: test size %v not in (0, 1)", ErrInvalidSplit, testSize)
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d))

	byClass := lo.GroupBy(lo.Range(len(docs)), func(i int) int { return docs[i].Label })
	classes := lo.Keys(byClass)
	slices.Sort(classes)

	inTest := make([]bool, len(docs))
	for _, class := range classes {
		members := byClass[class]
		rng.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
		n := int(math.Round(testSize * float64(len(members))))
		for _, idx := range members[:n] {
			inTest[idx] = true
		}
	}
	for i, d := range docs {
		if inTest[i] {
			test = append(test, d)
		} else {
			train = append(train, d)
		}
	}
	if len(train) == 0 || len(test) == 0 {
		return nil, nil, fmt.Errorf("%w: %d documents split into %d train and %d test", ErrInvalidSplit, len(docs), len(train), len(test))
	}
	return train, test, nil
}
