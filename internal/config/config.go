// Package config loads hamspam settings from a YAML file, an optional .env
// file and HAMSPAM_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/happyhackingspace/hamspam/pipeline"
	"github.com/happyhackingspace/hamspam/search"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Config is the full application configuration.
type Config struct {
	Log      LogConfig       `yaml:"log"`
	Data     DataConfig      `yaml:"data"`
	Pipeline pipeline.Config `yaml:"pipeline"`
	Search   SearchConfig    `yaml:"search"`
	Store    StoreConfig     `yaml:"store"`
	Server   ServerConfig    `yaml:"server"`
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error silent"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// DataConfig controls corpus loading and the holdout split.
type DataConfig struct {
	TestSize       float64 `yaml:"test_size" validate:"gt=0,lt=1"`
	Seed           uint64  `yaml:"seed"`
	DropDuplicates bool    `yaml:"drop_duplicates"`
}

// SearchConfig controls the grid search and the CV diagnostic.
type SearchConfig struct {
	Folds       int           `yaml:"folds" validate:"min=2"`
	CVFolds     int           `yaml:"cv_folds" validate:"min=2"`
	Parallelism int           `yaml:"parallelism" validate:"min=0"`
	Timeout     time.Duration `yaml:"timeout" validate:"min=0"`
	Grid        search.Grid   `yaml:"grid"`
}

// StoreConfig selects where artifacts go. An empty URL means local files.
type StoreConfig struct {
	URL    string        `yaml:"url" validate:"omitempty,url"`
	Prefix string        `yaml:"prefix"`
	TTL    time.Duration `yaml:"ttl" validate:"min=0"`
}

// ServerConfig configures the prediction server.
type ServerConfig struct {
	Addr         string        `yaml:"addr" validate:"required"`
	ReadTimeout  time.Duration `yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"gt=0"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" validate:"gt=0"`
	MaxTexts     int           `yaml:"max_texts" validate:"gt=0"`
}

// DefaultGrid is searched when no grid is configured.
func DefaultGrid() search.Grid {
	grid, err := search.NewGrid(
		search.Param{Name: "tfidf__ngram_range", Values: []any{[2]int{1, 1}, [2]int{1, 2}}},
		search.Param{Name: "tfidf__max_df", Values: []any{0.9, 1.0}},
		search.Param{Name: "svc__C", Values: []any{0.1, 1.0, 10.0}},
	)
	if err != nil {
		panic(err)
	}
	return grid
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log:      LogConfig{Level: "info", Format: "text"},
		Data:     DataConfig{TestSize: 0.2, Seed: 42, DropDuplicates: true},
		Pipeline: pipeline.DefaultConfig(),
		Search: SearchConfig{
			Folds:   5,
			CVFolds: 5,
			Grid:    DefaultGrid(),
		},
		Store: StoreConfig{Prefix: "hamspam:model:"},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			MaxBodyBytes: 1 << 20,
			MaxTexts:     1000,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is not empty), then .env and the process environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: .env: %w", err)
	}
	es, err := env.EnvironToEnvSet(os.Environ())
	if err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	if err := cfg.ApplyEnv(es); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct constraints and the pipeline ranges.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("config: pipeline: %w", err)
	}
	return nil
}

// overrides lists the supported environment variables. Unset ones stay nil.
type overrides struct {
	LogLevel      *string        `env:"HAMSPAM_LOG_LEVEL"`
	LogFormat     *string        `env:"HAMSPAM_LOG_FORMAT"`
	TestSize      *float64       `env:"HAMSPAM_TEST_SIZE"`
	Seed          *int           `env:"HAMSPAM_SEED"`
	Folds         *int           `env:"HAMSPAM_FOLDS"`
	CVFolds       *int           `env:"HAMSPAM_CV_FOLDS"`
	Parallelism   *int           `env:"HAMSPAM_PARALLELISM"`
	SearchTimeout *time.Duration `env:"HAMSPAM_SEARCH_TIMEOUT"`
	StoreURL      *string        `env:"HAMSPAM_STORE_URL"`
	StorePrefix   *string        `env:"HAMSPAM_STORE_PREFIX"`
	ServerAddr    *string        `env:"HAMSPAM_SERVER_ADDR"`
}

// ApplyEnv overrides fields from the HAMSPAM_* variables in es.
func (c *Config) ApplyEnv(es env.EnvSet) error {
	var o overrides
	if err := env.Unmarshal(es, &o); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	set(&c.Log.Level, o.LogLevel)
	set(&c.Log.Format, o.LogFormat)
	set(&c.Data.TestSize, o.TestSize)
	if o.Seed != nil {
		if *o.Seed < 0 {
			return fmt.Errorf("config: HAMSPAM_SEED=%d must not be negative", *o.Seed)
		}
		c.Data.Seed = uint64(*o.Seed)
	}
	set(&c.Search.Folds, o.Folds)
	set(&c.Search.CVFolds, o.CVFolds)
	set(&c.Search.Parallelism, o.Parallelism)
	set(&c.Search.Timeout, o.SearchTimeout)
	set(&c.Store.URL, o.StoreURL)
	set(&c.Store.Prefix, o.StorePrefix)
	set(&c.Server.Addr, o.ServerAddr)
	return nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
