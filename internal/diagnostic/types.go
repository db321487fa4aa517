package diagnostic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Codes used by the schema and record packages.
const (
	CodeExtraColumn     = "extra-column"
	CodeMissingColumn   = "missing-column"
	CodeNilableField    = "nilable-field"
	CodeHeaderCollision = "header-collision"
	CodeLooseMatch      = "loose-match"
)

// Diagnostics holds every diagnostic raised for one session.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity Severity
	// Code is a unique identifier for this type of diagnostic.
	Code string
	// Message is the human-readable description.
	Message string
	// Field names the record field this relates to (if any).
	Field string
	// Column names the physical column this relates to (if any).
	Column string
}

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns a human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

func (d *Diagnostics) add(sev Severity, code, message, field, column string) {
	diag := Diagnostic{Severity: sev, Code: code, Message: message, Field: field, Column: column}
	switch sev {
	case SeverityError:
		d.Errors = append(d.Errors, diag)
	case SeverityWarning:
		d.Warnings = append(d.Warnings, diag)
	default:
		d.Infos = append(d.Infos, diag)
	}
}

// AddError adds an error diagnostic.
func (d *Diagnostics) AddError(code, message, field, column string) {
	d.add(SeverityError, code, message, field, column)
}

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(code, message, field, column string) {
	d.add(SeverityWarning, code, message, field, column)
}

// AddInfo adds an info diagnostic.
func (d *Diagnostics) AddInfo(code, message, field, column string) {
	d.add(SeverityInfo, code, message, field, column)
}

// HasErrors returns true if there are any error diagnostics.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// Merge merges another Diagnostics instance into this one.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Infos = append(d.Infos, other.Infos...)
}

// Error returns a combined error from all error diagnostics, or nil.
func (d *Diagnostics) Error() error {
	if !d.HasErrors() {
		return nil
	}

	parts := make([]string, 0, len(d.Errors))
	for _, e := range d.Errors {
		parts = append(parts, e.String())
	}

	return errors.New(strings.Join(parts, "; "))
}

// Log writes every diagnostic to logger at the matching level.
func (d *Diagnostics) Log(logger log.Logger) {
	for _, group := range [][]Diagnostic{d.Errors, d.Warnings, d.Infos} {
		for _, diag := range group {
			var l log.Logger
			switch diag.Severity {
			case SeverityError:
				l = level.Error(logger)
			case SeverityWarning:
				l = level.Warn(logger)
			default:
				l = level.Info(logger)
			}
			_ = l.Log("msg", diag.Message, "code", diag.Code, "field", diag.Field, "column", diag.Column)
		}
	}
}

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	var prefix []string
	if d.Field != "" {
		prefix = append(prefix, "field "+d.Field)
	}

	if d.Column != "" {
		prefix = append(prefix, fmt.Sprintf("column %q", d.Column))
	}

	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if len(prefix) > 0 {
		return strings.Join(prefix, " ") + ": " + msg
	}

	return msg
}
