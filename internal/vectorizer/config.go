package vectorizer

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/happyhackingspace/hamspam/internal/textutil"
)

var (
	// ErrEmptyInput is returned when fitting on zero documents.
	ErrEmptyInput = errors.New("vectorizer: no documents")
	// ErrEmptyVocabulary is returned when every term is filtered out.
	ErrEmptyVocabulary = errors.New("vectorizer: empty vocabulary")
	// ErrInvalidParam is returned for out-of-range configuration values.
	ErrInvalidParam = errors.New("vectorizer: invalid parameter")
)

// StopWordsEnglish selects the built-in English stop word list.
const StopWordsEnglish = "english"

// Config holds the vectorizer hyperparameters.
type Config struct {
	NgramRange  [2]int  `json:"ngram_range" yaml:"ngram_range"`
	MaxDF       float64 `json:"max_df" yaml:"max_df"` // fraction of documents
	MinDF       int     `json:"min_df" yaml:"min_df"` // absolute document count
	SublinearTF bool    `json:"sublinear_tf" yaml:"sublinear_tf"`
	Lowercase   bool    `json:"lowercase" yaml:"lowercase"`
	StopWords   string  `json:"stop_words,omitempty" yaml:"stop_words"`
	StripHTML   bool    `json:"strip_html" yaml:"strip_html"`
}

// DefaultConfig returns the default vectorizer settings.
func DefaultConfig() Config {
	return Config{
		NgramRange: [2]int{1, 1},
		MaxDF:      1.0,
		MinDF:      1,
		Lowercase:  true,
		StripHTML:  true,
	}
}

// Validate checks every field is within its supported range.
func (c Config) Validate() error {
	if c.NgramRange[0] < 1 || c.NgramRange[1] < c.NgramRange[0] {
		return fmt.Errorf("%w: ngram_range %v", ErrInvalidParam, c.NgramRange)
	}
	if math.IsNaN(c.MaxDF) || c.MaxDF <= 0 || c.MaxDF > 1 {
		return fmt.Errorf("%w: max_df %v not in (0, 1]", ErrInvalidParam, c.MaxDF)
	}
	if c.MinDF < 1 {
		return fmt.Errorf("%w: min_df %d < 1", ErrInvalidParam, c.MinDF)
	}
	if c.StopWords != "" && c.StopWords != StopWordsEnglish {
		return fmt.Errorf("%w: stop_words %q", ErrInvalidParam, c.StopWords)
	}
	return nil
}

func (c Config) stopWordSet() map[string]bool {
	if c.StopWords == StopWordsEnglish {
		return EnglishStopWords()
	}
	return nil
}

// analyze extracts the terms of a document: markup stripping, lowercasing,
// tokenization, stop word removal and word n-grams.
func (c Config) analyze(text string, stopWords map[string]bool) []string {
	if c.StripHTML {
		text = textutil.StripHTML(text)
	}
	if c.Lowercase {
		text = strings.ToLower(text)
	}
	tokens := textutil.RemoveWords(textutil.Tokenize(text), stopWords)
	return textutil.TokenNgrams(tokens, c.NgramRange[0], c.NgramRange[1])
}
