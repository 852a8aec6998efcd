package pipeline

import (
	"fmt"
	"math"
)

type param struct {
	stage string
	name  string
	get   func(Config) any
	set   func(*Config, any) error
}

func (p param) key() string {
	return p.stage + separator + p.name
}

func (p param) validate(c Config) error {
	if p.stage == StageTfidf {
		return c.Tfidf.Validate()
	}
	return c.SVC.Validate()
}

// Bare names are unique across stages, so no bare lookup is ambiguous.
var params = []param{
	{StageTfidf, "ngram_range",
		func(c Config) any { return c.Tfidf.NgramRange },
		func(c *Config, v any) (err error) { c.Tfidf.NgramRange, err = toRange(v); return }},
	{StageTfidf, "max_df",
		func(c Config) any { return c.Tfidf.MaxDF },
		func(c *Config, v any) (err error) { c.Tfidf.MaxDF, err = toFloat(v); return }},
	{StageTfidf, "min_df",
		func(c Config) any { return c.Tfidf.MinDF },
		func(c *Config, v any) (err error) { c.Tfidf.MinDF, err = toInt(v); return }},
	{StageTfidf, "sublinear_tf",
		func(c Config) any { return c.Tfidf.SublinearTF },
		func(c *Config, v any) (err error) { c.Tfidf.SublinearTF, err = toBool(v); return }},
	{StageTfidf, "lowercase",
		func(c Config) any { return c.Tfidf.Lowercase },
		func(c *Config, v any) (err error) { c.Tfidf.Lowercase, err = toBool(v); return }},
	{StageTfidf, "stop_words",
		func(c Config) any { return c.Tfidf.StopWords },
		func(c *Config, v any) (err error) { c.Tfidf.StopWords, err = toStopWords(v); return }},
	{StageTfidf, "strip_html",
		func(c Config) any { return c.Tfidf.StripHTML },
		func(c *Config, v any) (err error) { c.Tfidf.StripHTML, err = toBool(v); return }},
	{StageSVC, "C",
		func(c Config) any { return c.SVC.C },
		func(c *Config, v any) (err error) { c.SVC.C, err = toFloat(v); return }},
	{StageSVC, "tol",
		func(c Config) any { return c.SVC.Tol },
		func(c *Config, v any) (err error) { c.SVC.Tol, err = toFloat(v); return }},
	{StageSVC, "max_iter",
		func(c Config) any { return c.SVC.MaxIter },
		func(c *Config, v any) (err error) { c.SVC.MaxIter, err = toInt(v); return }},
	{StageSVC, "intercept_scaling",
		func(c Config) any { return c.SVC.InterceptScaling },
		func(c *Config, v any) (err error) { c.SVC.InterceptScaling, err = toFloat(v); return }},
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	}
	return 0, fmt.Errorf("want a number, got %T", v)
}

func toInt(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case uint64:
		return int(x), nil
	case float64:
		// JSON numbers decode as float64.
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return int(x), nil
		}
		return 0, fmt.Errorf("want an integer, got %v", x)
	}
	return 0, fmt.Errorf("want an integer, got %T", v)
}

func toBool(v any) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	return false, fmt.Errorf("want a bool, got %T", v)
}

func toStopWords(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		if x == "none" {
			return "", nil
		}
		return x, nil
	}
	return "", fmt.Errorf("want a string, got %T", v)
}

func toRange(v any) ([2]int, error) {
	var items []any
	switch x := v.(type) {
	case [2]int:
		return x, nil
	case []int:
		for _, n := range x {
			items = append(items, n)
		}
	case []any:
		items = x
	default:
		return [2]int{}, fmt.Errorf("want a [min, max] pair, got %T", v)
	}
	if len(items) != 2 {
		return [2]int{}, fmt.Errorf("want a [min, max] pair, got %d values", len(items))
	}
	var r [2]int
	for i, item := range items {
		n, err := toInt(item)
		if err != nil {
			return [2]int{}, err
		}
		r[i] = n
	}
	return r, nil
}
