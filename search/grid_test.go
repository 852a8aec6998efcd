package search

import (
	"testing"

	"github.com/happyhackingspace/hamspam/pipeline"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestGridPointsOrder(t *testing.T) {
	req := require.New(t)

	grid, err := NewGrid(
		Param{Name: "C", Values: []any{0.1, 1.0}},
		Param{Name: "tfidf__max_df", Values: []any{0.9, 1.0}},
	)
	req.NoError(err)
	req.Equal(4, grid.Size())

	req.Equal([]map[string]any{
		{"svc__C": 0.1, "tfidf__max_df": 0.9},
		{"svc__C": 0.1, "tfidf__max_df": 1.0},
		{"svc__C": 1.0, "tfidf__max_df": 0.9},
		{"svc__C": 1.0, "tfidf__max_df": 1.0},
	}, grid.Points())
}

func TestGridWithoutParams(t *testing.T) {
	grid, err := NewGrid()
	require.NoError(t, err)
	require.Equal(t, 1, grid.Size())
	require.Equal(t, []map[string]any{{}}, grid.Points())
}

func TestGridEmptyAxis(t *testing.T) {
	grid, err := NewGrid(Param{Name: "C", Values: []any{0.1, 1.0}}, Param{Name: "max_df"})
	require.NoError(t, err)
	require.Zero(t, grid.Size())
	require.Empty(t, grid.Points())
}

func TestGridValidation(t *testing.T) {
	tests := []struct {
		name   string
		params []Param
		want   error
	}{
		{"unknown", []Param{{Name: "gamma", Values: []any{1.0}}}, pipeline.ErrUnknownParam},
		{"bad value", []Param{{Name: "C", Values: []any{1.0, -2.0}}}, pipeline.ErrInvalidParam},
		{"bad type", []Param{{Name: "sublinear_tf", Values: []any{"yes"}}}, pipeline.ErrInvalidParam},
		{"duplicate", []Param{{Name: "C", Values: []any{1.0}}, {Name: "svc__C", Values: []any{2.0}}}, ErrInvalidGrid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGrid(tt.params...)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGridUnmarshalYAML(t *testing.T) {
	req := require.New(t)
	src := `
svc__C: [1, 0.1]
max_df: 0.5
ngram_range: [[1, 1], [1, 2]]
sublinear_tf: [true, false]
`
	var grid Grid
	req.NoError(yaml.Unmarshal([]byte(src), &grid))

	names := make([]string, 0)
	for _, p := range grid.Params() {
		names = append(names, p.Name)
	}
	req.Equal([]string{"svc__C", "tfidf__max_df", "tfidf__ngram_range", "tfidf__sublinear_tf"}, names)
	req.Equal(8, grid.Size())

	first := grid.Points()[0]
	cfg, err := pipeline.DefaultConfig().With(first)
	req.NoError(err)
	req.Equal(1.0, cfg.SVC.C)
	req.Equal(0.5, cfg.Tfidf.MaxDF)
	req.Equal([2]int{1, 1}, cfg.Tfidf.NgramRange)
	req.True(cfg.Tfidf.SublinearTF)
}

func TestGridUnmarshalYAMLErrors(t *testing.T) {
	var grid Grid
	require.ErrorIs(t, yaml.Unmarshal([]byte("[1, 2]"), &grid), ErrInvalidGrid)
	require.ErrorIs(t, yaml.Unmarshal([]byte("gamma: [1]"), &grid), pipeline.ErrUnknownParam)
}
