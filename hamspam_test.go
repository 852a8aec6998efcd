package hamspam

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/happyhackingspace/hamspam/internal/artifact"
	"github.com/happyhackingspace/hamspam/internal/corpus"
	"github.com/happyhackingspace/hamspam/internal/vectorizer"
	"github.com/happyhackingspace/hamspam/pipeline"
	"github.com/happyhackingspace/hamspam/search"
)

func experimentConfig(t *testing.T) *TrainConfig {
	t.Helper()
	grid, err := search.NewGrid(
		search.Param{Name: "C", Values: []any{0.1, 1.0}},
		search.Param{Name: "max_df", Values: []any{0.9, 1.0}},
	)
	if err != nil {
		t.Fatal(err)
	}
	return &TrainConfig{
		Pipeline: pipeline.DefaultConfig(),
		Grid:     grid,
		TestSize: 0.2,
		Seed:     42,
		Folds:    5,
		CVFolds:  5,
	}
}

func TestTrainEndToEnd(t *testing.T) {
	docs := corpus.Generate(100, 100, 42)

	exp, err := Train(context.Background(), docs, experimentConfig(t))
	if err != nil {
		t.Fatal(err)
	}

	if got := len(exp.Search.Units); got != 20 {
		t.Errorf("units = %d, want 20", got)
	}
	if got := len(exp.Search.Candidates); got != 4 {
		t.Errorf("candidates = %d, want 4", got)
	}
	if exp.TrainSize != 160 || exp.TestSize != 40 {
		t.Errorf("split = %d/%d, want 160/40", exp.TrainSize, exp.TestSize)
	}
	if exp.Holdout.Accuracy < 0 || exp.Holdout.Accuracy > 1 {
		t.Errorf("holdout accuracy = %v", exp.Holdout.Accuracy)
	}
	if exp.Holdout.Total() != exp.TestSize {
		t.Errorf("report supports sum to %d, want %d", exp.Holdout.Total(), exp.TestSize)
	}
	if len(exp.CV.Scores) != 5 {
		t.Errorf("cv scores = %v", exp.CV.Scores)
	}
	if exp.Partial {
		t.Error("unexpected partial search")
	}
	if _, ok := exp.BestParams["svc__C"]; !ok {
		t.Errorf("best params = %v", exp.BestParams)
	}
	if exp.Classifier.Meta().HoldoutAccuracy != exp.Holdout.Accuracy {
		t.Error("metadata holdout accuracy differs from the report")
	}
}

func TestSaveLoadIdenticalPredictions(t *testing.T) {
	docs := corpus.Generate(40, 40, 1)
	exp, err := Train(context.Background(), docs, experimentConfig(t))
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "model.json")
	if err := exp.Classifier.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	texts := append(corpus.Texts(docs), "", "never seen before zzz", "<p>FREE <b>prize</b></p>")
	want, err := exp.Classifier.Predict(texts)
	if err != nil {
		t.Fatal(err)
	}
	got, err := loaded.Predict(texts)
	if err != nil {
		t.Fatal(err)
	}
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("text %d: %+v after load, %+v before", i, got[i], want[i])
		}
	}
	if loaded.Meta().ID != exp.Classifier.Meta().ID {
		t.Error("artifact id changed across save and load")
	}
}

func TestPredictEmptyText(t *testing.T) {
	exp, err := Train(context.Background(), corpus.Generate(30, 30, 3), experimentConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	preds, err := exp.Classifier.Predict([]string{""})
	if err != nil {
		t.Fatal(err)
	}
	if preds[0].Score != exp.Classifier.Model().SVC.Bias {
		t.Errorf("empty text score = %v, want bias %v", preds[0].Score, exp.Classifier.Model().SVC.Bias)
	}
	if preds[0].Class != corpus.ClassName(preds[0].Label) {
		t.Errorf("class %q does not match label %d", preds[0].Class, preds[0].Label)
	}
}

func TestTrainErrors(t *testing.T) {
	if _, err := Train(context.Background(), nil, nil); !errors.Is(err, vectorizer.ErrEmptyInput) {
		t.Errorf("err = %v, want ErrEmptyInput", err)
	}

	cfg := experimentConfig(t)
	empty, _ := search.NewGrid(search.Param{Name: "C"})
	cfg.Grid = empty
	if _, err := Train(context.Background(), corpus.Generate(20, 20, 1), cfg); !errors.Is(err, search.ErrEmptyGrid) {
		t.Errorf("err = %v, want ErrEmptyGrid", err)
	}
}

func TestTrainTimeout(t *testing.T) {
	cfg := experimentConfig(t)
	cfg.Timeout = time.Nanosecond
	_, err := Train(context.Background(), corpus.Generate(20, 20, 1), cfg)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want DeadlineExceeded", err)
	}
}

func TestEvaluate(t *testing.T) {
	docs := corpus.Generate(50, 50, 9)
	res, err := Evaluate(context.Background(), docs, pipeline.DefaultConfig(), 5, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Folds.Scores) != 5 {
		t.Errorf("fold scores = %v", res.Folds.Scores)
	}
	if res.Report.Total() != len(docs) {
		t.Errorf("pooled report covers %d docs, want %d", res.Report.Total(), len(docs))
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, artifact.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDefaultTrainConfig(t *testing.T) {
	cfg := DefaultTrainConfig()
	if got := cfg.Grid.Size(); got != 3 {
		t.Errorf("default grid size = %d, want 3", got)
	}
	if err := cfg.Pipeline.Validate(); err != nil {
		t.Errorf("default pipeline invalid: %v", err)
	}
}
