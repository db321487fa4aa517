package record

import (
	"fmt"
	"reflect"

	"tabcodec/codec"
	"tabcodec/primitive"
	"tabcodec/schema"
)

// Marshaler is implemented by record types that encode themselves. A type
// extending another calls the base type's MarshalRow with the same Encoder
// before writing its own fields.
type Marshaler interface {
	MarshalRow(e *Encoder) error
}

// Encoder is handed to MarshalRow. It places cells by the session schema.
// For types that only encode themselves, the first record first runs against
// a recording Encoder that collects that schema.
type Encoder struct {
	reg       *codec.Registry
	spellings primitive.Spellings
	rowNum    int

	// recording
	builder *schema.Builder

	// writing
	schema  *schema.Schema
	mapping schema.ColumnMapping
	cells   []string
	written []bool
}

func newRecordingEncoder(reg *codec.Registry, sp primitive.Spellings) *Encoder {
	return &Encoder{reg: reg, spellings: sp, builder: schema.NewBuilder()}
}

func newWritingEncoder(reg *codec.Registry, sp primitive.Spellings, s *schema.Schema, m schema.ColumnMapping) *Encoder {
	return &Encoder{reg: reg, spellings: sp, schema: s, mapping: m}
}

// reset prepares a writing encoder for one row of width cells. Mapped cells
// start as nil so fields a record leaves out read back as absent.
func (e *Encoder) reset(rowNum, width int) {
	e.rowNum = rowNum
	e.cells = make([]string, width)
	e.written = make([]bool, e.schema.Len())

	nilText := e.spellings.FormatNil()
	for pos, f := range e.schema.Fields() {
		if col, ok := e.mapping.Column(pos, f.Name); ok && col < width {
			e.cells[col] = nilText
		}
	}
}

// Row returns the 1-based number of the row being written, zero while the
// schema is recorded.
func (e *Encoder) Row() int { return e.rowNum }

// Encode writes v as the field called name, choosing the codec the same way
// Decoder.Decode does. Nil pointers are written as the nil spelling.
func (e *Encoder) Encode(name string, v any) error {
	return e.encodeValue(name, reflect.ValueOf(v))
}

func (e *Encoder) String(name, v string) error { return e.Encode(name, v) }
func (e *Encoder) Bool(name string, v bool) error { return e.Encode(name, v) }
func (e *Encoder) Int(name string, v int64) error { return e.Encode(name, v) }
func (e *Encoder) Uint(name string, v uint64) error { return e.Encode(name, v) }
func (e *Encoder) Float(name string, v float64) error { return e.Encode(name, v) }

// Nil writes the nil spelling for the field called name.
func (e *Encoder) Nil(name string) error {
	return e.put(name, e.spellings.FormatNil(), e.kindFor(name, nil), true)
}

func (e *Encoder) encodeValue(name string, rv reflect.Value) error {
	text, kind, nilable, err := e.cellText(name, rv)
	if err != nil {
		return err
	}
	return e.put(name, text, kind, nilable)
}

func (e *Encoder) put(name, text string, kind primitive.Kind, nilable bool) error {
	if e.builder != nil {
		if _, err := e.builder.Append(name, kind, nilable); err != nil {
			return &FieldError{Field: name, Err: ErrDuplicateField}
		}
		return nil
	}

	pos := e.schema.Index(name)
	if pos < 0 {
		return &FieldError{Row: e.rowNum, Field: name, Err: ErrUnknownField}
	}
	if e.written[pos] {
		return &FieldError{Row: e.rowNum, Field: name, Err: ErrDuplicateField}
	}
	e.written[pos] = true

	col, ok := e.mapping.Column(pos, name)
	if !ok || col >= len(e.cells) {
		return nil
	}
	e.cells[col] = text
	return nil
}

// cellText renders one field: field codec, pointer, CellMarshaler, then the
// scalar chain.
func (e *Encoder) cellText(name string, rv reflect.Value) (string, primitive.Kind, bool, error) {
	rv = unwrapInterface(rv)
	if !rv.IsValid() {
		return e.spellings.FormatNil(), e.kindFor(name, nil), true, nil
	}

	t := rv.Type()
	if c, ok := e.reg.ForField(name); ok && (t.Kind() != reflect.Ptr || isOptional(c)) {
		return e.viaCodec(name, c, rv)
	}

	if t.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return e.spellings.FormatNil(), e.kindFor(name, t), true, nil
		}
		text, kind, _, err := e.cellText(name, rv.Elem())
		return text, kind, true, err
	}

	if m, ok := asCellMarshaler(rv); ok {
		sv := &SingleValueEncoder{e: e, name: name}
		if err := m.MarshalCell(sv); err != nil {
			return "", 0, false, e.fieldErr(name, ErrDataCorrupted, err)
		}
		if !sv.set {
			return e.spellings.FormatNil(), primitive.KindString, true, nil
		}
		return sv.text, sv.kind, sv.nilable, nil
	}

	return e.scalarText(name, rv)
}

// scalarText renders a value through type codecs, primitive kinds and
// TextMarshaler.
func (e *Encoder) scalarText(name string, rv reflect.Value) (string, primitive.Kind, bool, error) {
	rv = unwrapInterface(rv)
	if !rv.IsValid() {
		return e.spellings.FormatNil(), primitive.KindString, true, nil
	}

	t := rv.Type()
	if t.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return e.spellings.FormatNil(), e.kindFor("", t), true, nil
		}
		text, kind, _, err := e.scalarText(name, rv.Elem())
		return text, kind, true, err
	}

	if c, ok := e.reg.ForType(t); ok {
		return e.viaCodec(name, c, rv)
	}
	if k := primitive.FromReflectType(t); k != 0 {
		s, err := primitive.Format(k, rv.Interface(), e.spellings)
		if err != nil {
			return "", 0, false, e.fieldErr(name, ErrDataCorrupted, err)
		}
		return s, k, false, nil
	}
	if c, ok := codec.TextFor(t); ok {
		return e.viaCodec(name, c, rv)
	}

	return "", 0, false, e.fieldErr(name, ErrUnsupportedShape, fmt.Errorf("%s does not fit in one cell", t))
}

func (e *Encoder) viaCodec(name string, c codec.Codec, rv reflect.Value) (string, primitive.Kind, bool, error) {
	s, err := c.Encode(rv.Interface())
	if err != nil {
		if e.builder != nil {
			// Recording only needs the kind; the record is written again.
			return "", c.Kind(), isOptional(c), nil
		}
		return "", 0, false, e.fieldErr(name, ErrDataCorrupted, err)
	}
	return s, c.Kind(), isOptional(c) && s == "", nil
}

// kindFor guesses the schema kind of a field written as nil.
func (e *Encoder) kindFor(name string, t reflect.Type) primitive.Kind {
	if c, ok := e.reg.ForField(name); ok {
		return c.Kind()
	}
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return primitive.KindString
	}
	if c, ok := e.reg.ForType(t); ok {
		return c.Kind()
	}
	if k := primitive.FromReflectType(t); k != 0 {
		return k
	}
	return primitive.KindString
}

func (e *Encoder) fieldErr(name string, sentinel, cause error) error {
	return &FieldError{Row: e.rowNum, Field: name, Err: sentinel, Cause: cause}
}

func unwrapInterface(rv reflect.Value) reflect.Value {
	for rv.IsValid() && rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}

func asCellMarshaler(rv reflect.Value) (CellMarshaler, bool) {
	if m, ok := rv.Interface().(CellMarshaler); ok {
		return m, true
	}
	if rv.CanAddr() {
		m, ok := rv.Addr().Interface().(CellMarshaler)
		return m, ok
	}
	ptr := reflect.New(rv.Type())
	ptr.Elem().Set(rv)
	m, ok := ptr.Interface().(CellMarshaler)
	return m, ok
}
