package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/happyhackingspace/hamspam"
	"github.com/stretchr/testify/require"
)

const testConfig = `
log:
  level: silent
data:
  test_size: 0.25
  seed: 3
search:
  folds: 3
  cv_folds: 3
  parallelism: 2
  grid:
    C: [0.1, 1]
    max_df: 1.0
`

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	c := New("test")
	var out bytes.Buffer
	c.rootCmd.SetOut(&out)
	c.rootCmd.SetErr(io.Discard)
	if stdin != "" {
		c.rootCmd.SetIn(strings.NewReader(stdin))
	}
	c.rootCmd.SetArgs(append([]string{"-s"}, args...))
	err := c.Run()
	return out.String(), err
}

func setup(t *testing.T) (dir, cfgPath, dataPath string) {
	t.Helper()
	dir = t.TempDir()
	cfgPath = filepath.Join(dir, "hamspam.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(testConfig), 0644))
	dataPath = filepath.Join(dir, "corpus.csv")
	_, err := run(t, "", "generate", dataPath, "--ham", "30", "--spam", "30", "--seed", "5")
	require.NoError(t, err)
	return dir, cfgPath, dataPath
}

func TestGenerateWritesCorpus(t *testing.T) {
	_, _, dataPath := setup(t)
	data, err := os.ReadFile(dataPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Equal(t, "label,text", lines[0])
	require.GreaterOrEqual(t, len(lines), 61)
}

func TestGenerateRejectsEmptyClass(t *testing.T) {
	_, err := run(t, "", "generate", filepath.Join(t.TempDir(), "x.csv"), "--ham", "0")
	require.Error(t, err)
}

func TestTrainPredictEvaluate(t *testing.T) {
	dir, cfgPath, dataPath := setup(t)
	modelPath := filepath.Join(dir, "model.json")

	out, err := run(t, "", "--config", cfgPath, "train", modelPath, "--data", dataPath, "--top", "3")
	require.NoError(t, err)
	require.Contains(t, out, "Grid search (3 folds)")
	require.Contains(t, out, "Best parameters: svc__C=")
	require.Contains(t, out, "Cross-validation scores: [")
	require.Contains(t, out, "Confusion matrix")
	require.FileExists(t, modelPath)

	out, err = run(t, "", "--config", cfgPath, "predict", "--model", modelPath, "WIN a FREE prize", "")
	require.NoError(t, err)
	var preds []hamspam.Prediction
	require.NoError(t, json.Unmarshal([]byte(out), &preds))
	require.Len(t, preds, 2)
	for _, p := range preds {
		require.Contains(t, []string{"ham", "spam"}, p.Class)
	}

	out, err = run(t, "first line\n\n  second line \n", "--config", cfgPath, "predict", "--model", modelPath)
	require.NoError(t, err)
	preds = nil
	require.NoError(t, json.Unmarshal([]byte(out), &preds))
	require.Len(t, preds, 2)

	out, err = run(t, "", "--config", cfgPath, "evaluate", "--data", dataPath, "--cv", "3")
	require.NoError(t, err)
	require.Contains(t, out, "Fold accuracy: [")
	require.Contains(t, out, "weighted avg")
}

func TestPredictMissingModel(t *testing.T) {
	_, cfgPath, _ := setup(t)
	_, err := run(t, "", "--config", cfgPath, "predict", "--model", filepath.Join(t.TempDir(), "none.json"), "hi")
	require.Error(t, err)
}

func TestBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  folds: 1\n"), 0644))
	_, err := run(t, "", "--config", path, "generate", filepath.Join(t.TempDir(), "x.csv"))
	require.Error(t, err)
}

func TestReadLines(t *testing.T) {
	lines, err := readLines(strings.NewReader("a\n\n b \n"))
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, lines)

	_, err = readLines(strings.NewReader("\n \n"))
	require.Error(t, err)
}

func TestFormatParams(t *testing.T) {
	got := formatParams(map[string]any{"svc__C": 1.0, "tfidf__max_df": 0.9})
	require.Equal(t, "svc__C=1 tfidf__max_df=0.9", got)
}
