package record

import (
	"errors"
	"fmt"
	"strings"

	"tabcodec/schema"
)

var (
	// ErrValueNotFound means a required field has no column, no cell, or a
	// nil cell.
	ErrValueNotFound = errors.New("value not found")
	// ErrDataCorrupted means a cell does not parse as its field's type, a codec
	// rejected it, or schema discovery could not reach a fixed point.
	ErrDataCorrupted = errors.New("data corrupted")
	// ErrUnsupportedShape means a field is a container (nested struct, slice,
	// map) that does not fit in one cell.
	ErrUnsupportedShape = errors.New("unsupported shape")
	// ErrUnknownField means an encoder was handed a field its schema lacks.
	ErrUnknownField = errors.New("unknown field")

	// Column errors raised by header resolution.
	ErrUnexpectedColumn = schema.ErrUnexpectedColumn
	ErrMissingColumn    = schema.ErrMissingColumn
	ErrDuplicateColumn  = schema.ErrDuplicateColumn
	ErrDuplicateField   = schema.ErrDuplicateField

	// errSequenceViolation stops a probe decode whose presence checks and
	// value requests disagree. It never leaves Introspect.
	errSequenceViolation = errors.New("sequence violation")
)

// FieldError locates a failure at one field of one row.
type FieldError struct {
	// Row is 1-based and counts data rows only, the header excluded.
	Row    int
	Field  string
	Column string
	Cell   string
	// Err is one of the sentinel errors of this package.
	Err error
	// Cause is the underlying parser or codec error, if any.
	Cause error
}

func (e *FieldError) Error() string {
	var b strings.Builder

	if e.Row > 0 {
		fmt.Fprintf(&b, "row %d: ", e.Row)
	}
	fmt.Fprintf(&b, "field %q", e.Field)
	if e.Column != "" && e.Column != e.Field {
		fmt.Fprintf(&b, " (column %q)", e.Column)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	if e.Cell != "" {
		fmt.Fprintf(&b, ": cell %q", e.Cell)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}

	return b.String()
}

func (e *FieldError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// BatchError collects the row failures of a SkipRow batch.
type BatchError struct {
	Errors []error
}

func (e *BatchError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("1 row skipped: %v", e.Errors[0])
	}
	return fmt.Sprintf("%d rows skipped, first: %v", len(e.Errors), e.Errors[0])
}

func (e *BatchError) Unwrap() []error { return e.Errors }

// errorClass is the metrics label of err.
func errorClass(err error) string {
	switch {
	case errors.Is(err, ErrValueNotFound):
		return "value_not_found"
	case errors.Is(err, ErrDataCorrupted):
		return "data_corrupted"
	case errors.Is(err, ErrUnsupportedShape):
		return "unsupported_shape"
	default:
		return "other"
	}
}
