package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hamspam.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 12, cfg.Search.Grid.Size())
}

func TestLoadYAML(t *testing.T) {
	req := require.New(t)
	path := writeFile(t, `
log:
  level: debug
  format: json
data:
  test_size: 0.25
  seed: 7
pipeline:
  tfidf:
    ngram_range: [1, 2]
    stop_words: english
  svc:
    C: 0.5
search:
  folds: 3
  timeout: 30s
  grid:
    C: [0.1, 1]
    max_df: [0.9, 1.0]
store:
  url: redis://localhost:6379/0
`)

	cfg, err := Load(path)
	req.NoError(err)

	req.Equal("debug", cfg.Log.Level)
	req.Equal("json", cfg.Log.Format)
	req.Equal(0.25, cfg.Data.TestSize)
	req.Equal(uint64(7), cfg.Data.Seed)
	req.Equal([2]int{1, 2}, cfg.Pipeline.Tfidf.NgramRange)
	req.Equal("english", cfg.Pipeline.Tfidf.StopWords)
	req.Equal(0.5, cfg.Pipeline.SVC.C)
	req.Equal(1e-4, cfg.Pipeline.SVC.Tol, "unset fields keep their defaults")
	req.True(cfg.Pipeline.Tfidf.Lowercase)
	req.Equal(3, cfg.Search.Folds)
	req.Equal(5, cfg.Search.CVFolds)
	req.Equal(30*time.Second, cfg.Search.Timeout)
	req.Equal(4, cfg.Search.Grid.Size())
	req.Equal("svc__C", cfg.Search.Grid.Params()[0].Name)
	req.Equal("redis://localhost:6379/0", cfg.Store.URL)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"bad level":      "log:\n  level: loud\n",
		"bad test size":  "data:\n  test_size: 1.5\n",
		"one fold":       "search:\n  folds: 1\n",
		"bad pipeline":   "pipeline:\n  svc:\n    C: -1\n",
		"unknown param":  "search:\n  grid:\n    gamma: [1]\n",
		"malformed yaml": "log: [\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, content))
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	req := require.New(t)
	cfg := Default()

	err := cfg.ApplyEnv(env.EnvSet{
		"HAMSPAM_LOG_LEVEL":      "warn",
		"HAMSPAM_SEED":           "99",
		"HAMSPAM_TEST_SIZE":      "0.3",
		"HAMSPAM_PARALLELISM":    "2",
		"HAMSPAM_SEARCH_TIMEOUT": "1m",
		"HAMSPAM_STORE_URL":      "redis://cache:6379/1",
		"UNRELATED":              "x",
	})
	req.NoError(err)

	req.Equal("warn", cfg.Log.Level)
	req.Equal(uint64(99), cfg.Data.Seed)
	req.Equal(0.3, cfg.Data.TestSize)
	req.Equal(2, cfg.Search.Parallelism)
	req.Equal(time.Minute, cfg.Search.Timeout)
	req.Equal("redis://cache:6379/1", cfg.Store.URL)
	req.Equal(5, cfg.Search.Folds, "unset variables leave fields alone")
	req.Equal(":8080", cfg.Server.Addr)
}

func TestApplyEnvErrors(t *testing.T) {
	require.Error(t, Default().ApplyEnv(env.EnvSet{"HAMSPAM_SEED": "-1"}))
	require.Error(t, Default().ApplyEnv(env.EnvSet{"HAMSPAM_FOLDS": "many"}))
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("HAMSPAM_FOLDS", "4")
	cfg, err := Load(writeFile(t, "search:\n  folds: 3\n"))
	require.NoError(t, err)
	require.Equal(t, 4, cfg.Search.Folds)
}
