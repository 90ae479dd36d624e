package pipeline

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Params holds the raw constructor parameters of a step.
type Params struct {
	node *yaml.Node
}

// NewParams wraps a parsed YAML node. A nil node means "no parameters".
func NewParams(node *yaml.Node) Params {
	return Params{node: node}
}

// ParamsFrom encodes v (typically a map or struct) as step parameters.
func ParamsFrom(v any) (Params, error) {
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return Params{}, fmt.Errorf("encode params: %w", err)
	}
	return Params{node: &node}, nil
}

// Decode fills v from the parameters. Fields of v that are absent from the
// parameters keep their current values, so callers pre-fill defaults.
// Keys that v does not declare are an error.
func (p Params) Decode(v any) error {
	if p.node == nil || p.node.Kind == 0 {
		return nil
	}
	if p.node.Kind == yaml.ScalarNode && p.node.Tag == "!!null" {
		return nil
	}
	data, err := yaml.Marshal(p.node)
	if err != nil {
		return fmt.Errorf("params: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("params: %w", err)
	}
	return nil
}
