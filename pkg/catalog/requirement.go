package catalog

import (
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// Threshold is the right-hand side of a requirement: either a minimum value
// or a set of allowed values.
type Threshold struct {
	values     []int
	membership bool
}

// AtLeast returns a threshold satisfied by any value >= n
func AtLeast(n int) Threshold {
	return Threshold{values: []int{n}}
}

// OneOf returns a threshold satisfied by any of the given values
func OneOf(values ...int) Threshold {
	return Threshold{values: slices.Clone(values), membership: true}
}

// IsMembership reports whether the threshold is a set of allowed values
func (t Threshold) IsMembership() bool {
	return t.membership
}

// Values returns a copy of the threshold values. An AtLeast threshold has
// exactly one value.
func (t Threshold) Values() []int {
	return slices.Clone(t.values)
}

// Satisfied reports whether v meets the threshold
func (t Threshold) Satisfied(v int) bool {
	if t.membership {
		return slices.Contains(t.values, v)
	}
	if len(t.values) == 0 {
		return false
	}
	return v >= t.values[0]
}

func (t Threshold) String() string {
	if t.membership {
		return fmt.Sprintf("one of %v", t.values)
	}
	if len(t.values) == 0 {
		return "unset"
	}
	return fmt.Sprintf(">= %d", t.values[0])
}

// Requirement gates a perk rank on one named value of the player:
// an attribute, LVL or ORIGIN.
type Requirement struct {
	Name      string
	Threshold Threshold
}

// Requirements is an ordered list of requirements. All entries must hold.
type Requirements []Requirement

// UnmarshalYAML decodes a mapping such as {STR: 6, ORIGIN: [0, 3]} while
// keeping the key order of the document.
func (r *Requirements) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*r = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: requirements must be a mapping", node.Line)
	}

	reqs := make(Requirements, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]

		var threshold Threshold
		switch val.Kind {
		case yaml.ScalarNode:
			var n int
			if err := val.Decode(&n); err != nil {
				return fmt.Errorf("line %d: requirement %q: %w", val.Line, key.Value, err)
			}
			threshold = AtLeast(n)
		case yaml.SequenceNode:
			var ns []int
			if err := val.Decode(&ns); err != nil {
				return fmt.Errorf("line %d: requirement %q: %w", val.Line, key.Value, err)
			}
			threshold = OneOf(ns...)
		default:
			return fmt.Errorf("line %d: requirement %q must be an integer or a list of integers", val.Line, key.Value)
		}

		reqs = append(reqs, Requirement{Name: key.Value, Threshold: threshold})
	}

	*r = reqs
	return nil
}
