package record

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"tabcodec/codec"
	"tabcodec/internal/diagnostic"
	"tabcodec/options"
	"tabcodec/primitive"
	"tabcodec/schema"
	"tabcodec/table"
)

// DecodeSession decodes the rows of one table into T.
//
// Schema discovery and header resolution happen once, in NewDecodeSession.
// DecodeRow only reads the session, so distinct rows may be decoded from
// several goroutines.
type DecodeSession[T any] struct {
	reg    *codec.Registry
	plan   decodePlan
	intro  *Introspection[T]
	res    *schema.Resolution
	logger log.Logger
}

// NewDecodeSession prepares decoding of rows under the physical header, nil
// for headerless input. sample is the first data row, nil for an empty table;
// it only bounds field positions of headerless input. columns reports native
// column kinds and may be nil.
func NewDecodeSession[T any](header []string, sample table.Row, columns table.Columns, cfg *options.Config) (*DecodeSession[T], error) {
	if cfg == nil {
		cfg = options.Default()
	}
	reg, err := cfg.Registry()
	if err != nil {
		return nil, err
	}

	s := &DecodeSession[T]{reg: reg, logger: cfg.Log()}
	s.plan.columns = columns
	s.plan.nilAsEmpty = cfg.NilAsEmptyString

	if cfg.SkipIntrospection && header != nil {
		res, err := schema.ResolveNames(header, cfg.Policy())
		if err != nil {
			return nil, err
		}
		s.res = res
		s.plan.mapping = res.Mapping
		s.plan.header = res.Header
		level.Debug(s.logger).Log("msg", "decoding by header name", "columns", len(header))
		return s, nil
	}

	positional := sample
	if header != nil || cfg.Header != nil {
		positional = nil
	}
	intro, err := introspect[T](positional, reg, s.logger)
	if err != nil {
		return nil, err
	}
	cfg.Metrics.Introspected(intro.Attempts)

	res, err := schema.Resolve(intro.Schema, header, cfg.Header, cfg.Policy())
	if err != nil {
		return nil, err
	}
	for _, name := range intro.NilKeys {
		res.Diagnostics.AddInfo(diagnostic.CodeNilableField, "field decoded after a presence check", name, "")
	}
	res.Diagnostics.Log(s.logger)

	s.intro = intro
	s.res = res
	s.plan.schema = intro.Schema
	s.plan.mapping = res.Mapping
	s.plan.header = res.Header
	return s, nil
}

// Schema returns the discovered schema, nil when decoding by header name.
func (s *DecodeSession[T]) Schema() *schema.Schema { return s.plan.schema }

// Header returns the resolved header.
func (s *DecodeSession[T]) Header() []string { return s.res.Header }

// Mapping returns the field to column mapping shared by every row.
func (s *DecodeSession[T]) Mapping() schema.ColumnMapping { return s.plan.mapping }

// Resolution returns the header resolution, including its diagnostics.
func (s *DecodeSession[T]) Resolution() *schema.Resolution { return s.res }

// Introspection returns the schema discovery result, nil when decoding by
// header name.
func (s *DecodeSession[T]) Introspection() *Introspection[T] { return s.intro }

// DecodeRow decodes one row. rowNum is 1-based and only used in errors.
// A failure of any field fails the whole record.
func (s *DecodeSession[T]) DecodeRow(row table.Row, rowNum int) (T, error) {
	var v T
	d := newRowDecoder(row, rowNum, s.reg, &s.plan)
	if err := unmarshalRow(d, &v); err != nil {
		var zero T
		var fe *FieldError
		if !errors.As(err, &fe) {
			err = fmt.Errorf("row %d: %w", rowNum, err)
		}
		return zero, err
	}
	return v, nil
}

// EncodeSession encodes records of T into a table.
//
// The schema is the one T decodes with, so a field a record leaves out is
// still a column. Types that only encode themselves fall back to the fields
// written by the first record. Header resolution happens once, against the
// override header when one is configured.
type EncodeSession[T any] struct {
	reg       *codec.Registry
	spellings primitive.Spellings
	schema    *schema.Schema
	res       *schema.Resolution
	store     storage
	rows      int
}

// NewEncodeSession introspects the schema of T. When T implements Marshaler
// but not Unmarshaler the schema is recorded from first instead; a nil first
// records the zero value of T.
func NewEncodeSession[T any](first *T, layout Layout, cfg *options.Config) (*EncodeSession[T], error) {
	if cfg == nil {
		cfg = options.Default()
	}
	reg, err := cfg.Registry()
	if err != nil {
		return nil, err
	}

	sch, err := encodeSchema(first, reg, cfg)
	if err != nil {
		return nil, err
	}

	res, err := schema.ResolveEncode(sch, cfg.Header, cfg.Policy())
	if err != nil {
		return nil, err
	}
	res.Diagnostics.Log(cfg.Log())

	return &EncodeSession[T]{
		reg:       reg,
		spellings: cfg.Spellings,
		schema:    sch,
		res:       res,
		store:     newStorage(layout, res.Header, cfg.Spellings),
	}, nil
}

// Schema returns the recorded schema.
func (s *EncodeSession[T]) Schema() *schema.Schema { return s.schema }

// Header returns the output header.
func (s *EncodeSession[T]) Header() []string { return s.res.Header }

// Resolution returns the header resolution, including its diagnostics.
func (s *EncodeSession[T]) Resolution() *schema.Resolution { return s.res }

// Types returns output column name → kind for table writers. Fields with
// their own codec are left out, their cells are text.
func (s *EncodeSession[T]) Types() map[string]primitive.Kind {
	types := make(map[string]primitive.Kind, s.schema.Len())
	for pos, f := range s.schema.Fields() {
		if _, ok := s.reg.ForField(f.Name); ok {
			continue
		}
		if col, ok := s.res.Mapping.Column(pos, f.Name); ok && col < len(s.res.Header) {
			types[s.res.Header[col]] = f.Kind
		}
	}
	return types
}

// EncodeRow appends one row. Columns no field maps to are left blank.
func (s *EncodeSession[T]) EncodeRow(v *T) error {
	s.rows++
	e := newWritingEncoder(s.reg, s.spellings, s.schema, s.res.Mapping)
	e.reset(s.rows, len(s.res.Header))
	if err := marshalRow(e, v); err != nil {
		return err
	}
	s.store.append(e.cells)
	return nil
}

// Len returns the number of rows encoded.
func (s *EncodeSession[T]) Len() int { return s.rows }

// Table returns the encoded rows in row-major form.
func (s *EncodeSession[T]) Table() *table.Table { return s.store.rows() }

// Columns returns the encoded rows in column-major form.
func (s *EncodeSession[T]) Columns() *table.ColumnTable { return s.store.columns() }

// decodable reports whether T has a decode side to introspect: it decodes
// itself, or both directions walk its struct fields.
func decodable[T any]() bool {
	pt := reflect.TypeFor[*T]()
	return pt.Implements(unmarshalerType) || !pt.Implements(marshalerType)
}

func encodeSchema[T any](first *T, reg *codec.Registry, cfg *options.Config) (*schema.Schema, error) {
	logger := cfg.Log()
	if decodable[T]() {
		intro, err := introspect[T](nil, reg, logger)
		if err != nil {
			return nil, err
		}
		cfg.Metrics.Introspected(intro.Attempts)
		return intro.Schema, nil
	}

	if first == nil {
		first = new(T)
	}
	rec := newRecordingEncoder(reg, cfg.Spellings)
	if err := marshalRow(rec, first); err != nil {
		return nil, err
	}
	sch := rec.builder.Build()
	level.Debug(logger).Log("msg", "encode schema recorded", "schema", sch)
	return sch, nil
}
