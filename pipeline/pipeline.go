// Package pipeline chains the TF-IDF vectorizer and the linear classifier
// into a single estimator that fits on and predicts from raw text.
package pipeline

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/happyhackingspace/hamspam/internal/vectorizer"
	"github.com/happyhackingspace/hamspam/linear"
	"github.com/samber/lo"
)

// Stage names, in execution order.
const (
	StageTfidf = "tfidf"
	StageSVC   = "svc"
)

const separator = "__"

var (
	// ErrUnknownParam is returned for parameter names no stage recognises.
	ErrUnknownParam = errors.New("pipeline: unknown parameter")
	// ErrInvalidParam is returned for values of the wrong type or out of range.
	ErrInvalidParam = errors.New("pipeline: invalid parameter value")
)

// Stages returns the stage names in execution order.
func Stages() []string {
	return []string{StageTfidf, StageSVC}
}

// Config configures both stages.
type Config struct {
	Tfidf vectorizer.Config `json:"tfidf" yaml:"tfidf"`
	SVC   linear.Config     `json:"svc" yaml:"svc"`
}

// DefaultConfig returns the default configuration of every stage.
func DefaultConfig() Config {
	return Config{
		Tfidf: vectorizer.DefaultConfig(),
		SVC:   linear.DefaultConfig(),
	}
}

// Validate validates every stage.
func (c Config) Validate() error {
	if err := c.Tfidf.Validate(); err != nil {
		return fmt.Errorf("%s: %w", StageTfidf, err)
	}
	if err := c.SVC.Validate(); err != nil {
		return fmt.Errorf("%s: %w", StageSVC, err)
	}
	return nil
}

// Set assigns one parameter. Names take the form stage__param (tfidf__max_df,
// svc__C); a bare param name resolves to the stage that owns it.
func (c *Config) Set(name string, value any) error {
	p, err := lookup(name)
	if err != nil {
		return err
	}
	next := *c
	if err := p.set(&next, value); err != nil {
		return fmt.Errorf("%w: %s=%v: %w", ErrInvalidParam, p.key(), value, err)
	}
	if err := p.validate(next); err != nil {
		return fmt.Errorf("%w: %s=%v: %w", ErrInvalidParam, p.key(), value, err)
	}
	*c = next
	return nil
}

// With returns a copy of c with params applied in name order. c is unchanged.
func (c Config) With(params map[string]any) (Config, error) {
	names := lo.Keys(params)
	slices.Sort(names)
	for _, name := range names {
		if err := c.Set(name, params[name]); err != nil {
			return Config{}, err
		}
	}
	return c, nil
}

// Params returns every tunable parameter under its stage__param name.
func (c Config) Params() map[string]any {
	out := make(map[string]any, len(params))
	for _, p := range params {
		out[p.key()] = p.get(c)
	}
	return out
}

// CanonicalName resolves name to its stage__param form.
func CanonicalName(name string) (string, error) {
	p, err := lookup(name)
	if err != nil {
		return "", err
	}
	return p.key(), nil
}

// ParamNames lists every stage__param name, in stage order.
func ParamNames() []string {
	return lo.Map(params, func(p param, _ int) string { return p.key() })
}

func lookup(name string) (param, error) {
	stage, field, qualified := strings.Cut(name, separator)
	if !qualified {
		field = name
	}
	for _, p := range params {
		if p.name != field {
			continue
		}
		if qualified && p.stage != stage {
			continue
		}
		return p, nil
	}
	return param{}, fmt.Errorf("%w: %q", ErrUnknownParam, name)
}
