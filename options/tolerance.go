package options

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tolerance is a bitmask of header and cell leniencies.
type Tolerance int

const (
	TolerateExtraColumns   Tolerance = 1 << iota // physical columns no field claims are dropped on decode, blanked on encode
	TolerateMissingColumns                       // encode drops fields the override header lacks
	MatchNormalizedHeaders                       // "Long Hair", "long_hair" and "longHair" name the same column
	TrimSpace                                    // surrounding space is removed from every cell on read

	ToleranceAll  = (1 << iota) - 1 // all tolerances combined
	ToleranceNone = 0               // strict
)

var toleranceNames = []struct {
	name string
	bit  Tolerance
}{
	{"extra_columns", TolerateExtraColumns},
	{"missing_columns", TolerateMissingColumns},
	{"normalized_headers", MatchNormalizedHeaders},
	{"trim_space", TrimSpace},
}

// Has reports whether every bit of flag is set.
func (t Tolerance) Has(flag Tolerance) bool {
	return t&flag == flag
}

func (t Tolerance) String() string {
	if t == ToleranceNone {
		return "none"
	}
	var parts []string
	for _, n := range toleranceNames {
		if t.Has(n.bit) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseTolerance converts a YAML name into its flag. "all" and "none" are
// accepted too.
func ParseTolerance(name string) (Tolerance, error) {
	switch name {
	case "all":
		return ToleranceAll, nil
	case "none":
		return ToleranceNone, nil
	}
	for _, n := range toleranceNames {
		if n.name == name {
			return n.bit, nil
		}
	}
	return 0, fmt.Errorf("unknown tolerance %q", name)
}

// UnmarshalYAML accepts a single name or a list of names.
func (t *Tolerance) UnmarshalYAML(node *yaml.Node) error {
	var names []string
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		names = []string{s}
	case yaml.SequenceNode:
		if err := node.Decode(&names); err != nil {
			return err
		}
	default:
		return fmt.Errorf("expected tolerance name or list, got %v", node.Kind)
	}

	*t = ToleranceNone
	for _, name := range names {
		bit, err := ParseTolerance(name)
		if err != nil {
			return err
		}
		*t |= bit
	}
	return nil
}

// MarshalYAML writes the set flags as a list of names.
func (t Tolerance) MarshalYAML() (any, error) {
	var names []string
	for _, n := range toleranceNames {
		if t.Has(n.bit) {
			names = append(names, n.name)
		}
	}
	return names, nil
}
