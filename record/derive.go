package record

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
)

// Record types that implement neither Unmarshaler nor Marshaler are walked by
// reflection. Field names come from the `csv` struct tag:
//
//	Name   string  `csv:"name"`
//	Height float64 `csv:"height,omitempty"`
//	Secret string  `csv:"-"`
//
// Untagged exported fields use their Go name. An embedded struct that
// implements the interface for the current direction is called with the same
// Decoder or Encoder, so its fields come first; other embedded structs are
// flattened in place. Embedding a single such base promotes its method to the
// outer type, which then has to declare its own to add fields.

var (
	unmarshalerType = reflect.TypeFor[Unmarshaler]()
	marshalerType   = reflect.TypeFor[Marshaler]()
)

type fieldStep struct {
	name      string
	index     []int
	omitEmpty bool
	// self marks an embedded base that decodes or encodes itself.
	self bool
}

type structInfo struct {
	decode []fieldStep
	encode []fieldStep
}

var structInfoCache sync.Map // map[reflect.Type]*structInfo

func cachedStructInfo(t reflect.Type) (*structInfo, error) {
	if v, ok := structInfoCache.Load(t); ok {
		return v.(*structInfo), nil
	}

	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: record type %s is not a struct", ErrUnsupportedShape, t)
	}

	info := &structInfo{}
	var err error
	if info.decode, err = collectSteps(t, nil, unmarshalerType, map[string]bool{}); err != nil {
		return nil, err
	}
	if info.encode, err = collectSteps(t, nil, marshalerType, map[string]bool{}); err != nil {
		return nil, err
	}

	v, _ := structInfoCache.LoadOrStore(t, info)
	return v.(*structInfo), nil
}

func collectSteps(t reflect.Type, prefix []int, self reflect.Type, seen map[string]bool) ([]fieldStep, error) {
	var steps []fieldStep

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := sf.Tag.Get("csv")
		if tag == "-" {
			continue
		}
		index := append(slices.Clone(prefix), i)

		if sf.Anonymous && tag == "" {
			ft := sf.Type
			switch {
			case ft.Kind() == reflect.Struct:
				if sf.IsExported() && reflect.PointerTo(ft).Implements(self) {
					steps = append(steps, fieldStep{index: index, self: true})
					continue
				}
				inner, err := collectSteps(ft, index, self, seen)
				if err != nil {
					return nil, err
				}
				steps = append(steps, inner...)
				continue
			case ft.Kind() == reflect.Ptr && ft.Elem().Kind() == reflect.Struct:
				return nil, fmt.Errorf("%w: embedded pointer %s in %s", ErrUnsupportedShape, ft, t)
			}
		}

		if !sf.IsExported() {
			continue
		}

		name, opts, _ := strings.Cut(tag, ",")
		if name == "" {
			name = sf.Name
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: %q in %s", ErrDuplicateField, name, t)
		}
		seen[name] = true

		steps = append(steps, fieldStep{name: name, index: index, omitEmpty: opts == "omitempty"})
	}

	return steps, nil
}

// unmarshalRow decodes one record into ptr.
func unmarshalRow[T any](d *Decoder, ptr *T) error {
	var err error
	if u, ok := any(ptr).(Unmarshaler); ok {
		err = u.UnmarshalRow(d)
	} else {
		err = unmarshalValue(d, reflect.ValueOf(ptr).Elem())
	}
	if err == nil {
		err = d.err
	}
	return err
}

func unmarshalValue(d *Decoder, v reflect.Value) error {
	info, err := cachedStructInfo(v.Type())
	if err != nil {
		return err
	}

	for _, s := range info.decode {
		fv := v.FieldByIndex(s.index)
		if s.self {
			if err := fv.Addr().Interface().(Unmarshaler).UnmarshalRow(d); err != nil {
				return err
			}
			continue
		}
		if s.omitEmpty && d.IsNil(s.name) {
			if d.err != nil {
				return d.err
			}
			continue
		}
		if err := d.decodeInto(s.name, fv); err != nil {
			return err
		}
	}
	return nil
}

// marshalRow encodes the record at ptr.
func marshalRow[T any](e *Encoder, ptr *T) error {
	if m, ok := any(ptr).(Marshaler); ok {
		return m.MarshalRow(e)
	}
	return marshalValue(e, reflect.ValueOf(ptr).Elem())
}

func marshalValue(e *Encoder, v reflect.Value) error {
	info, err := cachedStructInfo(v.Type())
	if err != nil {
		return err
	}

	for _, s := range info.encode {
		fv := v.FieldByIndex(s.index)
		if s.self {
			if err := fv.Addr().Interface().(Marshaler).MarshalRow(e); err != nil {
				return err
			}
			continue
		}
		if s.omitEmpty && fv.IsZero() {
			if err := e.put(s.name, e.spellings.FormatNil(), e.kindFor(s.name, fv.Type()), true); err != nil {
				return err
			}
			continue
		}
		if err := e.encodeValue(s.name, fv); err != nil {
			return err
		}
	}
	return nil
}
