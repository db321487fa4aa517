package codec

import (
	"maps"
	"reflect"

	"github.com/google/uuid"
)

// Registry is the per-session codec table. Field codecs are keyed by field
// name and win over type codecs keyed by the field's Go type.
type Registry struct {
	fields map[string]Codec
	types  map[reflect.Type]Codec
}

// NewRegistry returns a registry preloaded with the UUID type codec.
func NewRegistry() *Registry {
	r := &Registry{
		fields: map[string]Codec{},
		types:  map[reflect.Type]Codec{},
	}
	r.types[reflect.TypeFor[uuid.UUID]()] = UUID{}
	return r
}

// Field registers c for the field called name.
func (r *Registry) Field(name string, c Codec) *Registry {
	r.fields[name] = c
	return r
}

// Type registers c for every field whose Go type is t.
func (r *Registry) Type(t reflect.Type, c Codec) *Registry {
	r.types[t] = c
	return r
}

// ForField returns the codec registered for the field name.
func (r *Registry) ForField(name string) (Codec, bool) {
	if r == nil {
		return nil, false
	}
	c, ok := r.fields[name]
	return c, ok
}

// ForType returns the codec registered for t.
func (r *Registry) ForType(t reflect.Type) (Codec, bool) {
	if r == nil || t == nil {
		return nil, false
	}
	c, ok := r.types[t]
	return c, ok
}

// Lookup resolves a field codec first, then a type codec.
func (r *Registry) Lookup(name string, t reflect.Type) (Codec, bool) {
	if c, ok := r.ForField(name); ok {
		return c, true
	}
	return r.ForType(t)
}

// Clone returns an independent copy so sessions can extend a shared base.
func (r *Registry) Clone() *Registry {
	if r == nil {
		return NewRegistry()
	}
	return &Registry{
		fields: maps.Clone(r.fields),
		types:  maps.Clone(r.types),
	}
}
