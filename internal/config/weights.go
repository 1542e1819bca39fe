package config

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/carogaltier/medscheduler/pkg/core/generator"
)

// Weights accepts either a mapping of index to weight or a fixed-length sequence.
// Missing mapping keys default to 1.0 in the generator.
type Weights struct {
	Keyed    map[int]float64
	Sequence []float64
}

func (w *Weights) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var seq []float64
		if err := node.Decode(&seq); err != nil {
			return err
		}
		*w = Weights{Sequence: seq}
	case yaml.MappingNode:
		var keyed map[int]float64
		if err := node.Decode(&keyed); err != nil {
			return err
		}
		*w = Weights{Keyed: keyed}
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*w = Weights{}
			return nil
		}
		return fmt.Errorf("line %d: weights must be a mapping or a sequence", node.Line)
	default:
		return fmt.Errorf("line %d: weights must be a mapping or a sequence", node.Line)
	}
	return nil
}

func (w *Weights) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*w = Weights{}
	case len(trimmed) > 0 && trimmed[0] == '[':
		var seq []float64
		if err := json.Unmarshal(trimmed, &seq); err != nil {
			return err
		}
		*w = Weights{Sequence: seq}
	default:
		var keyed map[int]float64
		if err := json.Unmarshal(trimmed, &keyed); err != nil {
			return err
		}
		*w = Weights{Keyed: keyed}
	}
	return nil
}

func (w Weights) MarshalJSON() ([]byte, error) {
	if w.Sequence != nil {
		return json.Marshal(w.Sequence)
	}
	return json.Marshal(w.Keyed)
}

func (w Weights) MarshalYAML() (any, error) {
	if w.Sequence != nil {
		return w.Sequence, nil
	}
	return w.Keyed, nil
}

// Resolve returns the keyed form, converting a sequence of exactly size entries starting at base
func (w Weights) Resolve(size, base int) (map[int]float64, error) {
	if w.Sequence != nil {
		return generator.WeightsFromSequence(w.Sequence, size, base)
	}
	keyed := make(map[int]float64, len(w.Keyed))
	for k, v := range w.Keyed {
		keyed[k] = v
	}
	return keyed, nil
}
