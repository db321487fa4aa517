// Package schema holds the ordered field list a record type exposes and the
// per-session mapping from field positions to physical columns.
//
// A Schema is produced once per session (by introspection or by composing a
// base schema with extension fields) and is read-only afterwards, so it can be
// shared across goroutines decoding independent rows.
package schema

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"tabcodec/primitive"
)

var (
	// ErrDuplicateField is returned when two fields share a name.
	ErrDuplicateField = errors.New("schema: duplicate field name")
	// ErrUnexpectedColumn is returned when a physical column matches no field.
	ErrUnexpectedColumn = errors.New("schema: unexpected column")
	// ErrDuplicateColumn is returned when a physical header repeats a name.
	ErrDuplicateColumn = errors.New("schema: duplicate column")
	// ErrMissingColumn is returned on encode when a field has no target column.
	ErrMissingColumn = errors.New("schema: missing column")
)

// FieldDescriptor describes one scalar field of a record.
type FieldDescriptor struct {
	Name     string
	Position int
	Kind     primitive.Kind
	Nilable  bool
}

func (f FieldDescriptor) String() string {
	s := fmt.Sprintf("%d:%s %s", f.Position, f.Name, f.Kind)
	if f.Nilable {
		s += "?"
	}
	return s
}

// Schema is an ordered, name-unique list of fields. Order is the order in
// which the record type requests its fields.
type Schema struct {
	fields []FieldDescriptor
	index  map[string]int
}

// New builds a schema from fields, renumbering positions in slice order.
func New(fields ...FieldDescriptor) (*Schema, error) {
	b := NewBuilder()
	for _, f := range fields {
		if _, err := b.Append(f.Name, f.Kind, f.Nilable); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

// Field returns the field at position i.
func (s *Schema) Field(i int) FieldDescriptor {
	return s.fields[i]
}

// Fields returns a copy of the field list.
func (s *Schema) Fields() []FieldDescriptor {
	if s == nil {
		return nil
	}
	return slices.Clone(s.fields)
}

// Index returns the position of name, or -1.
func (s *Schema) Index(name string) int {
	if s == nil {
		return -1
	}
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// Lookup returns the descriptor called name.
func (s *Schema) Lookup(name string) (FieldDescriptor, bool) {
	i := s.Index(name)
	if i < 0 {
		return FieldDescriptor{}, false
	}
	return s.fields[i], true
}

// Names returns field names in schema order.
func (s *Schema) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// TypeMap returns field name → kind, the partial type map handed to table
// readers so they can type cells natively.
func (s *Schema) TypeMap() map[string]primitive.Kind {
	if s == nil {
		return nil
	}
	m := make(map[string]primitive.Kind, len(s.fields))
	for _, f := range s.fields {
		m[f.Name] = f.Kind
	}
	return m
}

// Extend returns a new schema made of s's fields followed by ext. This is how
// a derived record type composes its base type's fields.
func (s *Schema) Extend(ext ...FieldDescriptor) (*Schema, error) {
	return New(append(s.Fields(), ext...)...)
}

func (s *Schema) String() string {
	parts := make([]string, 0, s.Len())
	for _, f := range s.Fields() {
		parts = append(parts, f.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Builder accumulates fields in request order.
type Builder struct {
	s Schema
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{s: Schema{index: map[string]int{}}}
}

// Append adds a field at the next position and returns that position.
func (b *Builder) Append(name string, kind primitive.Kind, nilable bool) (int, error) {
	if _, dup := b.s.index[name]; dup {
		return -1, fmt.Errorf("%w: %q", ErrDuplicateField, name)
	}
	pos := len(b.s.fields)
	b.s.fields = append(b.s.fields, FieldDescriptor{Name: name, Position: pos, Kind: kind, Nilable: nilable})
	b.s.index[name] = pos
	return pos, nil
}

// Has reports whether name was appended.
func (b *Builder) Has(name string) bool {
	_, ok := b.s.index[name]
	return ok
}

// Lookup returns the appended field called name.
func (b *Builder) Lookup(name string) (FieldDescriptor, bool) {
	return b.s.Lookup(name)
}

// Len returns the number of fields appended so far.
func (b *Builder) Len() int {
	return len(b.s.fields)
}

// Set replaces kind and nilability of an appended field.
func (b *Builder) Set(name string, kind primitive.Kind, nilable bool) {
	if i, ok := b.s.index[name]; ok {
		b.s.fields[i].Kind = kind
		b.s.fields[i].Nilable = nilable
	}
}

// Build finalizes the schema. The builder must not be used afterwards.
func (b *Builder) Build() *Schema {
	s := b.s
	return &s
}

// NilKeySet is the set of field names known to be decoded through a
// presence check before their value is requested.
type NilKeySet map[string]struct{}

func (n NilKeySet) Add(name string) { n[name] = struct{}{} }

func (n NilKeySet) Has(name string) bool {
	_, ok := n[name]
	return ok
}

// Sorted returns the names in lexical order.
func (n NilKeySet) Sorted() []string {
	out := make([]string, 0, len(n))
	for k := range n {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
