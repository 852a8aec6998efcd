// Package hamspam classifies email text as spam or ham.
//
// It fits a TF-IDF vectorizer and a linear SVM, tunes them by cross-validated
// grid search and persists the winner as a checksummed JSON artifact.
//
//	c, _ := hamspam.New()
//	preds, _ := c.Predict([]string{"You have WON a free prize!"})
//	fmt.Println(preds[0].Class) // "spam"
package hamspam

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/happyhackingspace/hamspam/internal/artifact"
	"github.com/happyhackingspace/hamspam/internal/corpus"
	"github.com/happyhackingspace/hamspam/pipeline"
)

// DefaultModelFile is the artifact name New looks for.
const DefaultModelFile = "model.json"

// Classifier wraps a fitted pipeline and the metadata it was saved with.
type Classifier struct {
	model *pipeline.Model
	meta  artifact.Meta
}

// Prediction is the outcome for one text.
type Prediction struct {
	Label int     `json:"label"`
	Class string  `json:"class"`
	Score float64 `json:"score"` // signed margin; > 0 means spam
}

// NewClassifier wraps an already fitted pipeline.
func NewClassifier(m *pipeline.Model, meta artifact.Meta) *Classifier {
	return &Classifier{model: m, meta: meta}
}

// New loads the classifier from "model.json", searching the current directory
// and parent directories up to the module root (where go.mod lives).
func New() (*Classifier, error) {
	path, err := findModel(DefaultModelFile)
	if err != nil {
		return nil, fmt.Errorf("hamspam: %w", err)
	}
	return Load(path)
}

func findModel(name string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		// Stop at module root
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("%w: %s", artifact.ErrNotFound, name)
}

// Load loads a classifier from a model file.
func Load(path string) (*Classifier, error) {
	return LoadFrom(context.Background(), artifact.FileStore{}, path)
}

// LoadFrom loads a classifier from a store.
func LoadFrom(ctx context.Context, store artifact.Store, name string) (*Classifier, error) {
	m, meta, err := artifact.Load(ctx, store, name)
	if err != nil {
		return nil, fmt.Errorf("hamspam: %w", err)
	}
	return &Classifier{model: m, meta: meta}, nil
}

// Save writes the classifier to a model file.
func (c *Classifier) Save(path string) error {
	return c.SaveTo(context.Background(), artifact.FileStore{}, path)
}

// SaveTo writes the classifier to a store.
func (c *Classifier) SaveTo(ctx context.Context, store artifact.Store, name string) error {
	if c.model == nil {
		return fmt.Errorf("hamspam: classifier not initialized")
	}
	if err := artifact.Save(ctx, store, name, c.model, c.meta); err != nil {
		return fmt.Errorf("hamspam: %w", err)
	}
	return nil
}

// Predict classifies each text. Empty or entirely unseen texts are decided
// by the bias alone.
func (c *Classifier) Predict(texts []string) ([]Prediction, error) {
	if c.model == nil {
		return nil, fmt.Errorf("hamspam: classifier not initialized")
	}
	scores, err := c.model.DecisionScores(texts)
	if err != nil {
		return nil, fmt.Errorf("hamspam: %w", err)
	}
	out := make([]Prediction, len(scores))
	for i, s := range scores {
		label := corpus.Ham
		if s > 0 {
			label = corpus.Spam
		}
		out[i] = Prediction{Label: label, Class: corpus.ClassName(label), Score: s}
	}
	return out, nil
}

// Model returns the fitted pipeline.
func (c *Classifier) Model() *pipeline.Model {
	return c.model
}

// Meta returns the artifact metadata.
func (c *Classifier) Meta() artifact.Meta {
	return c.meta
}
