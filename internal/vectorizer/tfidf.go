package vectorizer

import (
	"errors"
	"fmt"
	"math"
)

// ErrInconsistent is returned by Check for a vectorizer whose parts disagree.
var ErrInconsistent = errors.New("vectorizer: inconsistent state")

// Tfidf is a fitted TF-IDF vectorizer. It is immutable once returned by Fit.
type Tfidf struct {
	Config     Config      `json:"config"`
	Vocabulary *Vocabulary `json:"vocabulary"`
	IDF        []float64   `json:"idf"`

	// Runtime state (not serialized)
	stopWords map[string]bool
}

// Fit learns the vocabulary and IDF weights from docs.
func (c Config) Fit(docs []string) (*Tfidf, error) {
	if len(docs) == 0 {
		return nil, ErrEmptyInput
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	stopWords := c.stopWordSet()
	vocab, err := c.fitVocabulary(docs, stopWords)
	if err != nil {
		return nil, err
	}

	// sklearn smooth IDF: log((1 + n) / (1 + df)) + 1
	nDocs := float64(vocab.NDocs)
	idf := make([]float64, vocab.Size())
	for i, df := range vocab.DocFreq {
		idf[i] = math.Log((1+nDocs)/(1+float64(df))) + 1
	}

	return &Tfidf{
		Config:     c,
		Vocabulary: vocab,
		IDF:        idf,
		stopWords:  stopWords,
	}, nil
}

// FitTransform fits on docs and returns their vectors.
func (c Config) FitTransform(docs []string) (*Tfidf, []SparseVector, error) {
	tv, err := c.Fit(docs)
	if err != nil {
		return nil, nil, err
	}
	return tv, tv.TransformAll(docs), nil
}

// Check verifies a deserialized vectorizer: a valid config, one IDF weight
// and one document frequency per term, and term indices forming 0..n-1.
func (tv *Tfidf) Check() error {
	if err := tv.Config.Validate(); err != nil {
		return err
	}
	if tv.Vocabulary == nil {
		return fmt.Errorf("%w: no vocabulary", ErrInconsistent)
	}
	n := tv.Vocabulary.Size()
	if len(tv.IDF) != n || len(tv.Vocabulary.Terms) != n {
		return fmt.Errorf("%w: %d terms, %d document frequencies, %d idf weights",
			ErrInconsistent, len(tv.Vocabulary.Terms), n, len(tv.IDF))
	}
	seen := make([]bool, n)
	for term, idx := range tv.Vocabulary.Terms {
		if idx < 0 || idx >= n || seen[idx] {
			return fmt.Errorf("%w: term %q has index %d", ErrInconsistent, term, idx)
		}
		seen[idx] = true
	}
	for i, w := range tv.IDF {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: idf[%d] = %v", ErrInconsistent, i, w)
		}
	}
	return nil
}

// Init initializes runtime state after the vectorizer was deserialized.
func (tv *Tfidf) Init() {
	tv.stopWords = tv.Config.stopWordSet()
}

// VocabSize returns the vocabulary size, which is the vector dimension.
func (tv *Tfidf) VocabSize() int {
	return tv.Vocabulary.Size()
}

// Transform converts a single document to an L2-normalized TF-IDF vector.
// Terms outside the vocabulary are ignored.
func (tv *Tfidf) Transform(text string) SparseVector {
	counts := make(map[int]float64)
	for _, f := range tv.Config.analyze(text, tv.stopWords) {
		if idx, ok := tv.Vocabulary.Terms[f]; ok {
			counts[idx]++
		}
	}

	for idx, tf := range counts {
		if tv.Config.SublinearTF {
			tf = 1 + math.Log(tf)
		}
		counts[idx] = tf * tv.IDF[idx]
	}

	sv := FromMap(tv.VocabSize(), counts)
	if norm := sv.L2Norm(); norm > 0 {
		for i := range sv.Values {
			sv.Values[i] /= norm
		}
	}
	return sv
}

// TransformAll transforms every document.
func (tv *Tfidf) TransformAll(docs []string) []SparseVector {
	result := make([]SparseVector, len(docs))
	for i, doc := range docs {
		result[i] = tv.Transform(doc)
	}
	return result
}
