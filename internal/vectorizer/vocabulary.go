package vectorizer

import (
	"fmt"
	"sort"
)

// Vocabulary maps terms to stable feature indices and keeps the document
// frequencies observed while fitting.
type Vocabulary struct {
	Terms   map[string]int `json:"terms"`
	DocFreq []int          `json:"doc_freq"` // indexed by feature
	NDocs   int            `json:"n_docs"`
}

// Size returns the number of terms.
func (v *Vocabulary) Size() int {
	return len(v.DocFreq)
}

// Index returns the feature index of term.
func (v *Vocabulary) Index(term string) (int, bool) {
	idx, ok := v.Terms[term]
	return idx, ok
}

// FeatureNames returns the terms ordered by feature index.
func (v *Vocabulary) FeatureNames() []string {
	names := make([]string, len(v.DocFreq))
	for term, idx := range v.Terms {
		names[idx] = term
	}
	return names
}

// FitVocabulary builds a vocabulary from docs. Terms appearing in more than
// MaxDF*len(docs) documents or in fewer than MinDF documents are dropped;
// survivors are indexed in lexicographic order.
func (c Config) FitVocabulary(docs []string) (*Vocabulary, error) {
	if len(docs) == 0 {
		return nil, ErrEmptyInput
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c.fitVocabulary(docs, c.stopWordSet())
}

func (c Config) fitVocabulary(docs []string, stopWords map[string]bool) (*Vocabulary, error) {
	dfCounts := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, f := range c.analyze(doc, stopWords) {
			if !seen[f] {
				dfCounts[f]++
				seen[f] = true
			}
		}
	}

	maxDocCount := c.MaxDF * float64(len(docs))
	terms := make([]string, 0, len(dfCounts))
	for term, count := range dfCounts {
		if count >= c.MinDF && float64(count) <= maxDocCount {
			terms = append(terms, term)
		}
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: %d candidate terms, none within min_df=%d max_df=%v over %d documents",
			ErrEmptyVocabulary, len(dfCounts), c.MinDF, c.MaxDF, len(docs))
	}
	sort.Strings(terms)

	vocab := &Vocabulary{
		Terms:   make(map[string]int, len(terms)),
		DocFreq: make([]int, len(terms)),
		NDocs:   len(docs),
	}
	for i, term := range terms {
		vocab.Terms[term] = i
		vocab.DocFreq[i] = dfCounts[term]
	}
	return vocab, nil
}
