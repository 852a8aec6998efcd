package search

import (
	"fmt"

	"github.com/happyhackingspace/hamspam/pipeline"
	"gopkg.in/yaml.v3"
)

// Param is one grid axis: a pipeline parameter and its candidate values.
type Param struct {
	Name   string
	Values []any
}

// Grid is an ordered set of parameters. Its points are the cross product of
// their values, enumerated in declared order with the last parameter varying
// fastest.
type Grid struct {
	params []Param
}

// NewGrid validates every name and value against a scratch pipeline config.
// Names are stored in their stage__param form.
func NewGrid(params ...Param) (Grid, error) {
	seen := make(map[string]bool, len(params))
	out := make([]Param, 0, len(params))
	for _, p := range params {
		name, err := pipeline.CanonicalName(p.Name)
		if err != nil {
			return Grid{}, err
		}
		if seen[name] {
			return Grid{}, fmt.Errorf("%w: %s given twice", ErrInvalidGrid, name)
		}
		seen[name] = true
		for _, v := range p.Values {
			scratch := pipeline.DefaultConfig()
			if err := scratch.Set(name, v); err != nil {
				return Grid{}, err
			}
		}
		out = append(out, Param{Name: name, Values: append([]any(nil), p.Values...)})
	}
	return Grid{params: out}, nil
}

// Params returns the grid axes in declared order.
func (g Grid) Params() []Param {
	return append([]Param(nil), g.params...)
}

// Size returns the number of grid points. A grid without parameters has one
// point: the base configuration.
func (g Grid) Size() int {
	size := 1
	for _, p := range g.params {
		size *= len(p.Values)
	}
	return size
}

// Points enumerates every grid point.
func (g Grid) Points() []map[string]any {
	size := g.Size()
	points := make([]map[string]any, 0, size)
	if size == 0 {
		return points
	}
	idx := make([]int, len(g.params))
	for range size {
		point := make(map[string]any, len(g.params))
		for i, p := range g.params {
			point[p.Name] = p.Values[idx[i]]
		}
		points = append(points, point)

		for i := len(idx) - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(g.params[i].Values) {
				break
			}
			idx[i] = 0
		}
	}
	return points
}

// UnmarshalYAML decodes a mapping of parameter names to value lists,
// keeping the mapping's key order. A scalar value is a single candidate.
func (g *Grid) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: line %d: grid must be a mapping", ErrInvalidGrid, value.Line)
	}
	params := make([]Param, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, node := value.Content[i], value.Content[i+1]
		p := Param{Name: key.Value}
		if node.Kind == yaml.SequenceNode {
			for _, item := range node.Content {
				var v any
				if err := item.Decode(&v); err != nil {
					return fmt.Errorf("%w: line %d: %w", ErrInvalidGrid, item.Line, err)
				}
				p.Values = append(p.Values, v)
			}
		} else {
			var v any
			if err := node.Decode(&v); err != nil {
				return fmt.Errorf("%w: line %d: %w", ErrInvalidGrid, node.Line, err)
			}
			p.Values = []any{v}
		}
		params = append(params, p)
	}
	grid, err := NewGrid(params...)
	if err != nil {
		return err
	}
	*g = grid
	return nil
}
