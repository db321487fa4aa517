package record

import (
	"errors"
	"fmt"
	"reflect"

	"tabcodec/primitive"
)

// SingleValue is the decode view of one cell, handed to UnmarshalCell.
//
// It is bound to the field being decoded. Repeated reads return the same
// cell. While the schema is being discovered every read returns a
// placeholder, and reading two different kinds is ErrDataCorrupted.
type SingleValue struct {
	d    *Decoder
	name string
	kind primitive.Kind
}

// Field returns the name of the field the value is bound to.
func (v *SingleValue) Field() string { return v.name }

// IsNil reports whether the cell is absent or spelled as nil.
func (v *SingleValue) IsNil() bool {
	d := v.d
	if d.err != nil {
		return true
	}
	if d.mode == modeProbe {
		f, _ := d.probe.builder.Lookup(v.name)
		d.probe.builder.Set(v.name, f.Kind, true)
		return false
	}
	_, col, ok := d.locate(v.name)
	return d.err != nil || !ok || d.cur.Row.IsNil(col)
}

func (v *SingleValue) String() (string, error) {
	x, err := v.read(primitive.KindString)
	if err != nil {
		return "", err
	}
	return x.(string), nil
}

func (v *SingleValue) Bool() (bool, error) {
	x, err := v.read(primitive.KindBool)
	if err != nil {
		return false, err
	}
	return x.(bool), nil
}

func (v *SingleValue) Int() (int64, error) {
	x, err := v.read(primitive.KindInt64)
	if err != nil {
		return 0, err
	}
	return x.(int64), nil
}

func (v *SingleValue) Uint() (uint64, error) {
	x, err := v.read(primitive.KindUint64)
	if err != nil {
		return 0, err
	}
	return x.(uint64), nil
}

func (v *SingleValue) Float() (float64, error) {
	x, err := v.read(primitive.KindFloat64)
	if err != nil {
		return 0, err
	}
	return x.(float64), nil
}

func (v *SingleValue) read(k primitive.Kind) (any, error) {
	d := v.d
	if d.err != nil {
		return nil, d.err
	}
	if d.mode != modeProbe {
		return d.value(v.name, k)
	}

	if v.kind == 0 {
		v.kind = k
		f, _ := d.probe.builder.Lookup(v.name)
		d.probe.builder.Set(v.name, k, f.Nilable)
	} else if v.kind != k {
		return nil, d.setErr(&FieldError{
			Field: v.name,
			Err:   ErrDataCorrupted,
			Cause: fmt.Errorf("single value read as %s and %s", v.kind, k),
		})
	}
	return primitive.Placeholder(k), nil
}

// CellMarshaler is implemented by structured values stored in one cell.
type CellMarshaler interface {
	MarshalCell(v *SingleValueEncoder) error
}

// SingleValueEncoder is the encode view of one cell, handed to MarshalCell.
// Exactly one value may be written.
type SingleValueEncoder struct {
	e       *Encoder
	name    string
	set     bool
	text    string
	kind    primitive.Kind
	nilable bool
}

var errCellWritten = errors.New("single value already written")

// Field returns the name of the field the value is bound to.
func (s *SingleValueEncoder) Field() string { return s.name }

// Encode writes v through the type codecs, primitive kinds and TextMarshaler.
func (s *SingleValueEncoder) Encode(v any) error {
	if s.set {
		return errCellWritten
	}
	text, kind, nilable, err := s.e.scalarText(s.name, reflect.ValueOf(v))
	if err != nil {
		return err
	}
	s.set, s.text, s.kind, s.nilable = true, text, kind, nilable
	return nil
}

func (s *SingleValueEncoder) String(v string) error { return s.Encode(v) }
func (s *SingleValueEncoder) Bool(v bool) error { return s.Encode(v) }
func (s *SingleValueEncoder) Int(v int64) error { return s.Encode(v) }
func (s *SingleValueEncoder) Uint(v uint64) error { return s.Encode(v) }
func (s *SingleValueEncoder) Float(v float64) error { return s.Encode(v) }

// Nil writes the nil spelling.
func (s *SingleValueEncoder) Nil() error {
	if s.set {
		return errCellWritten
	}
	s.set, s.text, s.kind, s.nilable = true, s.e.spellings.FormatNil(), primitive.KindString, true
	return nil
}
