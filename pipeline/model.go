package pipeline

import (
	"fmt"
	"slices"

	"github.com/happyhackingspace/hamspam/internal/vectorizer"
	"github.com/happyhackingspace/hamspam/linear"
)

// Model is a fitted pipeline. It owns its vectorizer and classifier and is
// safe for concurrent use once fitted or initialised.
type Model struct {
	Config Config            `json:"config"`
	Tfidf  *vectorizer.Tfidf `json:"tfidf"`
	SVC    *linear.Model     `json:"svc"`
}

// Fit fits the vectorizer on docs, then the classifier on the resulting vectors.
func (c Config) Fit(docs []string, labels []int) (*Model, error) {
	if len(docs) != len(labels) {
		return nil, fmt.Errorf("pipeline: %w: %d documents but %d labels", linear.ErrDimensionMismatch, len(docs), len(labels))
	}
	tv, x, err := c.Tfidf.FitTransform(docs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StageTfidf, err)
	}
	svc, err := c.SVC.Fit(x, labels)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StageSVC, err)
	}
	return &Model{Config: c, Tfidf: tv, SVC: svc}, nil
}

// Init restores runtime state after the model was deserialized.
func (m *Model) Init() error {
	if m.Tfidf == nil || m.Tfidf.Vocabulary == nil || m.SVC == nil {
		return fmt.Errorf("pipeline: model is missing a fitted stage")
	}
	if err := m.Tfidf.Check(); err != nil {
		return fmt.Errorf("%s: %w", StageTfidf, err)
	}
	if err := m.SVC.Check(); err != nil {
		return fmt.Errorf("%s: %w", StageSVC, err)
	}
	if err := m.Config.Validate(); err != nil {
		return err
	}
	if m.Tfidf.VocabSize() != m.SVC.Dim() {
		return fmt.Errorf("pipeline: %w: vocabulary has %d terms, classifier %d weights",
			linear.ErrDimensionMismatch, m.Tfidf.VocabSize(), m.SVC.Dim())
	}
	m.Tfidf.Init()
	return nil
}

// Transform vectorizes texts.
func (m *Model) Transform(texts []string) []vectorizer.SparseVector {
	return m.Tfidf.TransformAll(texts)
}

// DecisionScores returns the signed margin for each text.
func (m *Model) DecisionScores(texts []string) ([]float64, error) {
	return m.SVC.DecisionScores(m.Transform(texts))
}

// Predict labels each text 1 (spam) or 0 (ham).
func (m *Model) Predict(texts []string) ([]int, error) {
	return m.SVC.PredictAll(m.Transform(texts))
}

// TermWeight is a vocabulary term with its classifier weight.
type TermWeight struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// TopTerms returns the n terms pushing hardest toward spam and toward ham.
func (m *Model) TopTerms(n int) (spam, ham []TermWeight) {
	names := m.Tfidf.Vocabulary.FeatureNames()
	all := make([]TermWeight, len(names))
	for i, name := range names {
		all[i] = TermWeight{Term: name, Weight: m.SVC.Weights[i]}
	}
	slices.SortStableFunc(all, func(a, b TermWeight) int {
		switch {
		case a.Weight > b.Weight:
			return -1
		case a.Weight < b.Weight:
			return 1
		}
		return 0
	})
	n = max(0, min(n, len(all)))
	for _, tw := range all[:n] {
		if tw.Weight > 0 {
			spam = append(spam, tw)
		}
	}
	for i := len(all) - 1; i >= len(all)-n; i-- {
		if all[i].Weight < 0 {
			ham = append(ham, all[i])
		}
	}
	return spam, ham
}
