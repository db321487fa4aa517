package record

import (
	"fmt"
	"reflect"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"tabcodec/codec"
	"tabcodec/options"
	"tabcodec/schema"
	"tabcodec/table"
)

// Introspection is the schema discovered for a record type.
type Introspection[T any] struct {
	Schema *schema.Schema
	// Sample is the record produced by the final probe decode.
	Sample T
	// Attempts counts probe decodes: one plus one per nilable field found
	// through a presence check.
	Attempts int
	NilKeys  []string
}

// Introspect discovers the schema of T by decoding it against placeholder
// cells until the field list stops changing.
//
// sample is consulted for its cell count only: a required field positioned
// past its last cell fails with ErrValueNotFound. Pass nil when the data has
// a header or is empty.
func Introspect[T any](sample table.Row, cfg *options.Config) (*Introspection[T], error) {
	if cfg == nil {
		cfg = options.Default()
	}
	reg, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	intro, err := introspect[T](sample, reg, cfg.Log())
	if err != nil {
		return nil, err
	}
	cfg.Metrics.Introspected(intro.Attempts)
	return intro, nil
}

func introspect[T any](sample table.Row, reg *codec.Registry, logger log.Logger) (*Introspection[T], error) {
	typ := reflect.TypeFor[T]().String()
	nilKeys := schema.NilKeySet{}

	for attempt := 1; ; attempt++ {
		var v T
		s, retry, err := probe(&v, sample, reg, nilKeys)
		if err != nil {
			return nil, fmt.Errorf("introspect %s: %w", typ, err)
		}

		if retry == "" {
			level.Debug(logger).Log("msg", "schema discovered", "type", typ, "attempts", attempt, "schema", s)
			return &Introspection[T]{Schema: s, Sample: v, Attempts: attempt, NilKeys: nilKeys.Sorted()}, nil
		}

		// A retry always names a key not yet in nilKeys, so the loop ends
		// within one attempt per field. A presence check after the value, or a
		// second value read, fails inside the probe as ErrDataCorrupted.
		nilKeys.Add(retry)
		level.Debug(logger).Log("msg", "introspection retry", "type", typ, "attempt", attempt, "nil_key", retry)
	}
}

// probe runs one placeholder decode. A non-empty retry names the field whose
// presence check came before the schema knew it was nilable.
func probe[T any](ptr *T, sample table.Row, reg *codec.Registry, nilKeys schema.NilKeySet) (s *schema.Schema, retry string, err error) {
	d := newProbeDecoder(sample, reg, nilKeys)
	err = unmarshalRow(d, ptr)
	if d.probe.retry != "" {
		return nil, d.probe.retry, nil
	}
	if err != nil {
		return nil, "", err
	}
	return d.probe.builder.Build(), "", nil
}
