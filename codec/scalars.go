package codec

import (
	"encoding"
	"encoding/base64"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tabcodec/primitive"
)

// Bool decodes any of its accepted spellings and always encodes the first one.
type Bool struct {
	spellings primitive.Spellings
}

// NewBool returns a Bool codec. Both lists must be non-empty.
func NewBool(trueSpellings, falseSpellings []string) (*Bool, error) {
	if len(trueSpellings) == 0 || len(falseSpellings) == 0 {
		return nil, fmt.Errorf("%w: bool codec needs at least one true and one false spelling", ErrInvalid)
	}
	for _, t := range trueSpellings {
		for _, f := range falseSpellings {
			if strings.EqualFold(t, f) {
				return nil, fmt.Errorf("%w: %q is spelled both true and false", ErrInvalid, t)
			}
		}
	}
	return &Bool{spellings: primitive.Spellings{True: trueSpellings, False: falseSpellings}}, nil
}

// YesNo accepts yes/no, y/n, true/false and 1/0, encoding yes and no.
func YesNo() *Bool {
	b, _ := NewBool([]string{"yes", "y", "true", "1"}, []string{"no", "n", "false", "0"})
	return b
}

func (b *Bool) Kind() primitive.Kind { return primitive.KindBool }

func (b *Bool) Decode(cell string) (any, error) {
	v, ok := b.spellings.ParseBool(strings.TrimSpace(cell))
	if !ok {
		return nil, fmt.Errorf("%w: %q is not one of %v or %v", ErrInvalid, cell, b.spellings.True, b.spellings.False)
	}
	return v, nil
}

func (b *Bool) Encode(v any) (string, error) {
	rv := deref(v)
	if !rv.IsValid() || rv.Kind() != reflect.Bool {
		return "", fmt.Errorf("%w: got %T, want bool", ErrInvalid, v)
	}
	return b.spellings.FormatBool(rv.Bool()), nil
}

// Enum maps cell spellings onto string values and back, e.g. "UK" ⇄
// "United Kingdom".
type Enum struct {
	toValue map[string]string
	toCell  map[string]string
}

// NewEnum builds an Enum from cell → value pairs. Values must be unique so
// encoding is unambiguous.
func NewEnum(pairs map[string]string) (*Enum, error) {
	e := &Enum{
		toValue: make(map[string]string, len(pairs)),
		toCell:  make(map[string]string, len(pairs)),
	}
	for cell, value := range pairs {
		if prev, dup := e.toCell[value]; dup {
			return nil, fmt.Errorf("%w: enum value %q has two spellings %q and %q", ErrInvalid, value, prev, cell)
		}
		e.toValue[cell] = value
		e.toCell[value] = cell
	}
	return e, nil
}

func (e *Enum) Kind() primitive.Kind { return primitive.KindString }

func (e *Enum) Decode(cell string) (any, error) {
	v, ok := e.toValue[cell]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a known enum spelling", ErrInvalid, cell)
	}
	return v, nil
}

func (e *Enum) Encode(v any) (string, error) {
	rv := deref(v)
	if !rv.IsValid() || rv.Kind() != reflect.String {
		return "", fmt.Errorf("%w: got %T, want string", ErrInvalid, v)
	}
	cell, ok := e.toCell[rv.String()]
	if !ok {
		return "", fmt.Errorf("%w: %q is not a known enum value", ErrInvalid, rv.String())
	}
	return cell, nil
}

// Time parses and formats with a fixed layout in a fixed location.
type Time struct {
	Layout   string
	Location *time.Location
}

func (t Time) Kind() primitive.Kind { return primitive.KindTime }

func (t Time) Decode(cell string) (any, error) {
	loc := t.Location
	if loc == nil {
		loc = time.UTC
	}
	v, err := time.ParseInLocation(t.layout(), strings.TrimSpace(cell), loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return v, nil
}

func (t Time) Encode(v any) (string, error) {
	rv := deref(v)
	if !rv.IsValid() || !rv.Type().ConvertibleTo(reflect.TypeFor[time.Time]()) {
		return "", fmt.Errorf("%w: got %T, want time.Time", ErrInvalid, v)
	}
	tv := rv.Convert(reflect.TypeFor[time.Time]()).Interface().(time.Time)
	if t.Location != nil {
		tv = tv.In(t.Location)
	}
	return tv.Format(t.layout()), nil
}

func (t Time) layout() string {
	if t.Layout == "" {
		return time.RFC3339Nano
	}
	return t.Layout
}

// Decimal handles arbitrary precision decimals. Places >= 0 fixes the number
// of digits after the point on encode.
type Decimal struct {
	Places int32
}

// NewDecimal returns a Decimal codec that keeps the scale of the value, so a
// decoded "12.50" encodes as "12.50" again.
func NewDecimal() Decimal { return Decimal{Places: -1} }

func (d Decimal) Kind() primitive.Kind { return primitive.KindDecimal }

func (d Decimal) Decode(cell string) (any, error) {
	v, err := decimal.NewFromString(strings.TrimSpace(cell))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return v, nil
}

func (d Decimal) Encode(v any) (string, error) {
	rv := deref(v)
	if !rv.IsValid() || rv.Type() != reflect.TypeFor[decimal.Decimal]() {
		return "", fmt.Errorf("%w: got %T, want decimal.Decimal", ErrInvalid, v)
	}
	dv := rv.Interface().(decimal.Decimal)
	if d.Places >= 0 {
		return dv.StringFixed(d.Places), nil
	}
	return primitive.FormatDecimal(dv), nil
}

// UUID uses the canonical 36 character form.
type UUID struct{}

func (UUID) Kind() primitive.Kind { return primitive.KindString }

func (UUID) Decode(cell string) (any, error) {
	id, err := uuid.Parse(strings.TrimSpace(cell))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return id, nil
}

func (UUID) Encode(v any) (string, error) {
	rv := deref(v)
	if !rv.IsValid() || rv.Type() != reflect.TypeFor[uuid.UUID]() {
		return "", fmt.Errorf("%w: got %T, want uuid.UUID", ErrInvalid, v)
	}
	return rv.Interface().(uuid.UUID).String(), nil
}

// URL requires absolute URLs.
type URL struct{}

func (URL) Kind() primitive.Kind { return primitive.KindURL }

func (URL) Decode(cell string) (any, error) {
	u, err := url.Parse(strings.TrimSpace(cell))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("%w: %q is not an absolute URL", ErrInvalid, cell)
	}
	return *u, nil
}

func (URL) Encode(v any) (string, error) {
	rv := deref(v)
	if !rv.IsValid() || rv.Type() != reflect.TypeFor[url.URL]() {
		return "", fmt.Errorf("%w: got %T, want url.URL", ErrInvalid, v)
	}
	u := rv.Interface().(url.URL)
	return u.String(), nil
}

// Bytes encodes binary blobs with Encoding, standard base64 when nil.
type Bytes struct {
	Encoding *base64.Encoding
}

func (b Bytes) Kind() primitive.Kind { return primitive.KindBytes }

func (b Bytes) Decode(cell string) (any, error) {
	v, err := b.encoding().DecodeString(cell)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return v, nil
}

func (b Bytes) Encode(v any) (string, error) {
	rv := deref(v)
	if !rv.IsValid() || rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() != reflect.Uint8 {
		return "", fmt.Errorf("%w: got %T, want []byte", ErrInvalid, v)
	}
	return b.encoding().EncodeToString(rv.Bytes()), nil
}

func (b Bytes) encoding() *base64.Encoding {
	if b.Encoding == nil {
		return base64.StdEncoding
	}
	return b.Encoding
}

var (
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
)

// Text bridges a type implementing encoding.TextMarshaler and
// encoding.TextUnmarshaler (via pointer receiver).
type Text struct {
	Type reflect.Type
}

// TextFor returns a Text codec for t, or false if t does not implement both
// text interfaces.
func TextFor(t reflect.Type) (Text, bool) {
	if !reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return Text{}, false
	}
	if !t.Implements(textMarshalerType) && !reflect.PointerTo(t).Implements(textMarshalerType) {
		return Text{}, false
	}
	return Text{Type: t}, true
}

func (t Text) Kind() primitive.Kind { return primitive.KindString }

func (t Text) Decode(cell string) (any, error) {
	ptr := reflect.New(t.Type)
	if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(cell)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return ptr.Elem().Interface(), nil
}

func (t Text) Encode(v any) (string, error) {
	rv := deref(v)
	if !rv.IsValid() {
		return "", fmt.Errorf("%w: nil %s", ErrInvalid, t.Type)
	}
	m, ok := rv.Interface().(encoding.TextMarshaler)
	if !ok {
		ptr := reflect.New(rv.Type())
		ptr.Elem().Set(rv)
		m, ok = ptr.Interface().(encoding.TextMarshaler)
	}
	if !ok {
		return "", fmt.Errorf("%w: %T does not implement encoding.TextMarshaler", ErrInvalid, v)
	}
	b, err := m.MarshalText()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return string(b), nil
}
