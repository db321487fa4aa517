// Package codec provides pluggable string⇄value converters for single cells.
//
// A Codec must satisfy Decode(Encode(v)) == v for every v it accepts. Codecs
// are plain values: each one is built per session from configuration and
// carries its own layout or spelling tables, no process-wide state.
//
// Key codecs:
//   - Bool: ordered true/false spelling sets, first spelling is canonical
//   - Enum: bidirectional cell ⇄ value lookup table
//   - Optional: treats the empty cell as absence around any other codec
//   - Time, Decimal, UUID, URL, Bytes: extension scalar types
//   - Text: bridge to encoding.TextMarshaler / TextUnmarshaler
package codec

import (
	"errors"
	"fmt"
	"reflect"

	"tabcodec/primitive"
)

// ErrInvalid is wrapped by every Decode/Encode failure of the codecs in this package.
var ErrInvalid = errors.New("codec: invalid value")

// Codec converts between one cell's text and a typed value.
type Codec interface {
	// Kind is the scalar type reported in the schema for fields using this codec.
	Kind() primitive.Kind
	Decode(cell string) (any, error)
	Encode(v any) (string, error)
}

// Func adapts a typed pair of functions into a Codec.
type Func[T any] struct {
	K        primitive.Kind
	DecodeFn func(cell string) (T, error)
	EncodeFn func(v T) (string, error)
}

// Of builds a Func codec.
func Of[T any](kind primitive.Kind, decode func(string) (T, error), encode func(T) (string, error)) Func[T] {
	return Func[T]{K: kind, DecodeFn: decode, EncodeFn: encode}
}

func (f Func[T]) Kind() primitive.Kind { return f.K }

func (f Func[T]) Decode(cell string) (any, error) {
	v, err := f.DecodeFn(cell)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (f Func[T]) Encode(v any) (string, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return "", fmt.Errorf("%w: got %T, want %T", ErrInvalid, v, zero)
	}
	return f.EncodeFn(t)
}

// Optional treats the empty cell as absence and encodes absence as the empty
// cell. Every other cell goes to Base.
type Optional struct {
	Base Codec
}

func (o Optional) Kind() primitive.Kind { return o.Base.Kind() }

// Decode returns (nil, nil) for the empty cell.
func (o Optional) Decode(cell string) (any, error) {
	if cell == "" {
		return nil, nil
	}
	return o.Base.Decode(cell)
}

// Encode returns "" for nil and for nil pointers.
func (o Optional) Encode(v any) (string, error) {
	if isAbsent(v) {
		return "", nil
	}
	return o.Base.Encode(v)
}

func isAbsent(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

// deref follows pointers so codecs accept both T and *T on encode.
func deref(v any) reflect.Value {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}
