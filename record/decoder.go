package record

import (
	"errors"
	"fmt"
	"reflect"

	"tabcodec/codec"
	"tabcodec/primitive"
	"tabcodec/schema"
	"tabcodec/table"
)

// Unmarshaler is implemented by record types that decode themselves. A type
// extending another calls the base type's UnmarshalRow with the same Decoder
// before requesting its own fields.
type Unmarshaler interface {
	UnmarshalRow(d *Decoder) error
}

// CellUnmarshaler is implemented by structured values stored in one cell.
type CellUnmarshaler interface {
	UnmarshalCell(v *SingleValue) error
}

// Cursor is the per-row state of one record decode. Base and extension decode
// steps share the same Cursor.
type Cursor struct {
	Row table.Row
	// RowNum is 1-based; zero during introspection.
	RowNum int
	// Index is the schema position after the last field consumed.
	Index int
}

type decodeMode int

const (
	modeProbe decodeMode = iota
	modeRow
)

// decodePlan is the read-only part of a decode session shared by every row.
type decodePlan struct {
	// schema is nil when fields are located by name only.
	schema     *schema.Schema
	mapping    schema.ColumnMapping
	header     []string
	columns    table.Columns
	nilAsEmpty bool
}

type slotState int

const (
	slotNone slotState = iota
	// slotPending: presence checked for a field not yet known to be nilable.
	slotPending
	// slotAwaiting: presence checked for a known nilable field.
	slotAwaiting
	slotValued
)

type probeState struct {
	builder *schema.Builder
	nilKeys schema.NilKeySet
	slots   map[string]slotState
	// sample bounds required positions; nil disables the check.
	sample table.Row
	retry  string
}

// Decoder is handed to UnmarshalRow. The same Decoder drives the probe decode
// that discovers a schema and the real decode of every row, so record types
// never see the difference.
//
// Errors are sticky: after the first failure every method returns it again
// and IsNil reports true.
type Decoder struct {
	cur   *Cursor
	mode  decodeMode
	reg   *codec.Registry
	plan  *decodePlan
	probe *probeState
	err   error
}

func newProbeDecoder(sample table.Row, reg *codec.Registry, nilKeys schema.NilKeySet) *Decoder {
	row := sample
	if row == nil {
		row = table.StringRow{}
	}
	return &Decoder{
		cur:  &Cursor{Row: row},
		mode: modeProbe,
		reg:  reg,
		probe: &probeState{
			builder: schema.NewBuilder(),
			nilKeys: nilKeys,
			slots:   map[string]slotState{},
			sample:  sample,
		},
	}
}

func newRowDecoder(row table.Row, rowNum int, reg *codec.Registry, plan *decodePlan) *Decoder {
	return &Decoder{
		cur:  &Cursor{Row: row, RowNum: rowNum},
		mode: modeRow,
		reg:  reg,
		plan: plan,
	}
}

// Err returns the first failure of this decode.
func (d *Decoder) Err() error { return d.err }

// Row returns the 1-based row number, zero during introspection.
func (d *Decoder) Row() int { return d.cur.RowNum }

// Cursor returns the cursor shared by every step of this record.
func (d *Decoder) Cursor() *Cursor { return d.cur }

// IsNil reports whether the field called name has no value in this row: no
// column, a cell past the end of the row, or a nil spelling.
func (d *Decoder) IsNil(name string) bool {
	if d.err != nil {
		return true
	}
	if d.mode == modeProbe {
		return d.probeIsNil(name)
	}

	_, col, ok := d.locate(name)
	if d.err != nil {
		return true
	}
	return !ok || d.cur.Row.IsNil(col)
}

// String decodes the field called name as a string.
func (d *Decoder) String(name string) (string, error) {
	var v string
	err := d.Decode(name, &v)
	return v, err
}

// Bool decodes the field called name as a bool.
func (d *Decoder) Bool(name string) (bool, error) {
	var v bool
	err := d.Decode(name, &v)
	return v, err
}

// Int decodes the field called name as an int64.
func (d *Decoder) Int(name string) (int64, error) {
	var v int64
	err := d.Decode(name, &v)
	return v, err
}

// Uint decodes the field called name as a uint64.
func (d *Decoder) Uint(name string) (uint64, error) {
	var v uint64
	err := d.Decode(name, &v)
	return v, err
}

// Float decodes the field called name as a float64.
func (d *Decoder) Float(name string) (float64, error) {
	var v float64
	err := d.Decode(name, &v)
	return v, err
}

// Decode decodes the field called name into ptr. The codec is chosen in this
// order: a codec registered for the field name, CellUnmarshaler, a codec
// registered for the Go type, the primitive kind of the type, then
// encoding.TextUnmarshaler. Pointer types check presence first and stay nil
// when the field is nil.
func (d *Decoder) Decode(name string, ptr any) error {
	if d.err != nil {
		return d.err
	}
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("record: Decode needs a non-nil pointer, got %T", ptr)
	}
	return d.decodeInto(name, rv.Elem())
}

func (d *Decoder) decodeInto(name string, dst reflect.Value) error {
	t := dst.Type()

	if c, ok := d.reg.ForField(name); ok && (t.Kind() != reflect.Ptr || isOptional(c)) {
		return d.viaCodec(name, c, dst)
	}

	if t.Kind() == reflect.Ptr {
		if d.IsNil(name) {
			if d.err != nil {
				return d.err
			}
			dst.Set(reflect.Zero(t))
			return nil
		}
		elem := reflect.New(t.Elem())
		if err := d.decodeInto(name, elem.Elem()); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	if dst.CanAddr() {
		if u, ok := dst.Addr().Interface().(CellUnmarshaler); ok {
			return d.viaCell(name, u)
		}
	}
	if c, ok := d.reg.ForType(t); ok {
		return d.viaCodec(name, c, dst)
	}
	if k := primitive.FromReflectType(t); k != 0 {
		return d.viaPrimitive(name, k, dst)
	}
	if c, ok := codec.TextFor(t); ok {
		return d.viaCodec(name, c, dst)
	}

	return d.setErr(&FieldError{
		Row:   d.cur.RowNum,
		Field: name,
		Err:   ErrUnsupportedShape,
		Cause: fmt.Errorf("%s does not fit in one cell", t),
	})
}

func (d *Decoder) viaPrimitive(name string, k primitive.Kind, dst reflect.Value) error {
	if d.mode == modeProbe {
		return d.probeValue(name, k, false)
	}
	v, err := d.value(name, k)
	if err != nil {
		return err
	}
	return d.assign(name, dst, v)
}

func (d *Decoder) viaCodec(name string, c codec.Codec, dst reflect.Value) error {
	optional := isOptional(c)
	if d.mode == modeProbe {
		return d.probeValue(name, c.Kind(), optional)
	}

	cell, col, err := d.cell(name, optional)
	if err != nil {
		return err
	}
	v, err := c.Decode(cell)
	if err != nil {
		return d.fail(ErrDataCorrupted, name, col, cell, err)
	}
	return d.assign(name, dst, v)
}

func (d *Decoder) viaCell(name string, u CellUnmarshaler) error {
	sv := &SingleValue{d: d, name: name}
	if d.mode == modeProbe {
		if err := d.probeValue(name, primitive.KindString, false); err != nil {
			return err
		}
	}
	if err := u.UnmarshalCell(sv); err != nil {
		if d.err != nil {
			return d.err
		}
		if d.mode == modeProbe {
			// Placeholders need not parse.
			return nil
		}
		_, col, _ := d.locate(name)
		return d.fail(ErrDataCorrupted, name, col, d.cur.Row.Cell(col), err)
	}
	return d.err
}

// locate finds the physical column of name and moves the cursor past it.
func (d *Decoder) locate(name string) (pos, col int, ok bool) {
	pos = -1
	if d.plan.schema != nil {
		pos = d.plan.schema.Index(name)
		if pos < 0 {
			d.setErr(&FieldError{Row: d.cur.RowNum, Field: name, Err: ErrUnknownField})
			return pos, schema.Absent, false
		}
		d.cur.Index = pos + 1
	}

	col, ok = d.plan.mapping.Column(pos, name)
	if ok && col >= d.cur.Row.CellCount() {
		ok = false
	}
	return pos, col, ok
}

// value reads a primitive cell.
func (d *Decoder) value(name string, k primitive.Kind) (any, error) {
	if d.err != nil {
		return nil, d.err
	}

	_, col, ok := d.locate(name)
	if d.err != nil {
		return nil, d.err
	}
	if !ok {
		if k == primitive.KindString && d.plan.nilAsEmpty {
			return "", nil
		}
		return nil, d.fail(ErrValueNotFound, name, col, "", nil)
	}

	row := d.cur.Row
	if row.IsNil(col) {
		switch {
		case k == primitive.KindString:
			return "", nil
		case d.plan.columns != nil && d.plan.columns.KindAt(col) == primitive.KindString:
			return nil, d.fail(ErrDataCorrupted, name, col, row.Cell(col), fmt.Errorf("text column has no %s", k))
		default:
			return nil, d.fail(ErrValueNotFound, name, col, "", nil)
		}
	}

	v, err := row.Get(col, k)
	if err != nil {
		return nil, d.fail(ErrDataCorrupted, name, col, row.Cell(col), err)
	}
	return v, nil
}

// cell reads the raw text handed to a codec. Nil cells are "" for optional
// codecs and a missing value otherwise.
func (d *Decoder) cell(name string, optional bool) (string, int, error) {
	_, col, ok := d.locate(name)
	if d.err != nil {
		return "", col, d.err
	}
	if !ok || d.cur.Row.IsNil(col) {
		if optional || (!ok && d.plan.nilAsEmpty) {
			return "", col, nil
		}
		return "", col, d.fail(ErrValueNotFound, name, col, "", nil)
	}
	return d.cur.Row.Cell(col), col, nil
}

func (d *Decoder) assign(name string, dst reflect.Value, v any) error {
	t := dst.Type()
	if v == nil {
		dst.Set(reflect.Zero(t))
		return nil
	}

	rv := reflect.ValueOf(v)
	if fits(rv.Type(), t) {
		dst.Set(rv.Convert(t))
		return nil
	}
	if t.Kind() == reflect.Ptr && fits(rv.Type(), t.Elem()) {
		p := reflect.New(t.Elem())
		p.Elem().Set(rv.Convert(t.Elem()))
		dst.Set(p)
		return nil
	}

	return d.fail(ErrDataCorrupted, name, schema.Absent, "", fmt.Errorf("cannot store %s in %s", rv.Type(), t))
}

func fits(from, to reflect.Type) bool {
	return from.AssignableTo(to) || (from.ConvertibleTo(to) && from.Kind() == to.Kind())
}

func isOptional(c codec.Codec) bool {
	_, ok := c.(codec.Optional)
	return ok
}

func (d *Decoder) fail(sentinel error, name string, col int, cell string, cause error) error {
	fe := &FieldError{Row: d.cur.RowNum, Field: name, Cell: cell, Err: sentinel, Cause: cause}
	if d.plan != nil && col >= 0 && col < len(d.plan.header) {
		fe.Column = d.plan.header[col]
	}
	return d.setErr(fe)
}

func (d *Decoder) setErr(err error) error {
	if d.err == nil {
		d.err = err
	}
	return d.err
}

// probeIsNil answers "present" and records a presence slot for name.
func (d *Decoder) probeIsNil(name string) bool {
	p := d.probe

	switch p.slots[name] {
	case slotPending:
		return d.violation(name)
	case slotAwaiting:
		return false
	case slotValued:
		d.setErr(&FieldError{
			Field: name,
			Err:   ErrDataCorrupted,
			Cause: errors.New("presence checked after the value was read"),
		})
		return true
	}

	if _, err := p.builder.Append(name, primitive.KindString, true); err != nil {
		d.setErr(err)
		return true
	}
	if p.nilKeys.Has(name) {
		p.slots[name] = slotAwaiting
	} else {
		p.slots[name] = slotPending
	}
	d.cur.Index = p.builder.Len()

	return false
}

// probeValue records a value request for name with kind k.
func (d *Decoder) probeValue(name string, k primitive.Kind, nilable bool) error {
	p := d.probe

	switch p.slots[name] {
	case slotPending:
		d.violation(name)
		return d.err
	case slotValued:
		return d.setErr(&FieldError{
			Field: name,
			Err:   ErrDataCorrupted,
			Cause: fmt.Errorf("%w: %q", ErrDuplicateField, name),
		})
	case slotAwaiting:
		p.builder.Set(name, k, true)
	default:
		if _, err := p.builder.Append(name, k, nilable || p.nilKeys.Has(name)); err != nil {
			return d.setErr(err)
		}
	}
	p.slots[name] = slotValued

	f, _ := p.builder.Lookup(name)
	d.cur.Index = f.Position + 1

	if p.sample != nil && !f.Nilable && p.sample.CellCount() <= f.Position {
		return d.setErr(&FieldError{
			Field: name,
			Err:   ErrValueNotFound,
			Cause: fmt.Errorf("sample row has %d cells, field is at column %d", p.sample.CellCount(), f.Position+1),
		})
	}
	return nil
}

func (d *Decoder) violation(name string) bool {
	d.probe.retry = name
	d.setErr(fmt.Errorf("%w on field %q", errSequenceViolation, name))
	return true
}
