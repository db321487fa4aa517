package options

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:generate go tool stringer -type=ErrorMode -linecomment -output=errormode_string.go

// ErrorMode decides what a batch decode does with a row that fails.
type ErrorMode int

const (
	FailFast ErrorMode = iota // fail_fast
	SkipRow                   // skip_row
)

// ParseErrorMode is the inverse of String.
func ParseErrorMode(s string) (ErrorMode, error) {
	for m := FailFast; m <= SkipRow; m++ {
		if m.String() == s {
			return m, nil
		}
	}
	return FailFast, fmt.Errorf("unknown error mode %q", s)
}

func (m *ErrorMode) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	mode, err := ParseErrorMode(s)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

func (m ErrorMode) MarshalYAML() (any, error) {
	return m.String(), nil
}
