package primitive_test

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabcodec/primitive"
)

func Example() {
	type Nationality string
	type Empty struct{}

	fmt.Println(primitive.FromReflectType(reflect.TypeOf(int(0))))
	fmt.Println(primitive.FromReflectType(reflect.TypeOf("")))
	fmt.Println(primitive.FromReflectType(reflect.TypeOf(Nationality(""))))
	fmt.Println(primitive.FromReflectType(reflect.TypeOf(time.Duration(0))))
	fmt.Println(primitive.FromReflectType(reflect.TypeOf(time.Time{})))
	fmt.Println(primitive.FromReflectType(reflect.TypeOf(decimal.Decimal{})))
	fmt.Println(primitive.FromReflectType(reflect.TypeOf(Empty{})))
	// Output:
	// KindInt
	// KindString
	// KindString
	// KindDuration
	// KindTime
	// KindDecimal
	// Kind(0)
}

func TestKindClassification(t *testing.T) {
	t.Parallel()

	assert.True(t, primitive.KindInt16.IsSigned())
	assert.True(t, primitive.KindUint8.IsUnsigned())
	assert.True(t, primitive.KindFloat32.IsFloat())
	assert.True(t, primitive.KindDecimal.IsNumber())
	assert.False(t, primitive.KindString.IsNumber())
	assert.False(t, primitive.Kind(0).IsValid())
	assert.Equal(t, 32, primitive.KindFloat32.Bits())
	assert.Equal(t, 16, primitive.KindUint16.Bits())
	assert.Panics(t, func() { primitive.KindString.Bits() })
}

func TestPlaceholderMatchesParseType(t *testing.T) {
	t.Parallel()

	sp := primitive.DefaultSpellings()
	cells := map[primitive.Kind]string{
		primitive.KindBool:     "true",
		primitive.KindInt8:     "-3",
		primitive.KindUint32:   "7",
		primitive.KindFloat32:  "1.5",
		primitive.KindFloat64:  "5.6",
		primitive.KindString:   "Alice",
		primitive.KindDuration: "2h45m0s",
		primitive.KindDecimal:  "12.3400",
	}

	for kind, cell := range cells {
		t.Run(kind.String(), func(t *testing.T) {
			t.Parallel()

			v, err := primitive.Parse(kind, cell, sp)
			require.NoError(t, err)
			assert.IsType(t, primitive.Placeholder(kind), v)
		})
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	t.Parallel()

	sp := primitive.Spellings{
		True:  []string{"yes", "Y"},
		False: []string{"no", "N"},
		Nil:   []string{"", "NULL"},
	}

	tests := []struct {
		kind primitive.Kind
		cell string
	}{
		{primitive.KindBool, "yes"},
		{primitive.KindBool, "no"},
		{primitive.KindInt, "23"},
		{primitive.KindInt64, "-9223372036854775808"},
		{primitive.KindUint16, "65535"},
		{primitive.KindFloat64, "5.6"},
		{primitive.KindString, "United Kingdom"},
		{primitive.KindTime, "2024-02-29T10:11:12.5Z"},
		{primitive.KindDuration, "1m30s"},
		{primitive.KindDecimal, "1234.5678"},
		{primitive.KindDecimal, "12.50"},
		{primitive.KindDecimal, "-0.001"},
		{primitive.KindBytes, "aGVsbG8="},
		{primitive.KindURL, "https://example.com/a?b=c"},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String()+"/"+tt.cell, func(t *testing.T) {
			t.Parallel()

			v, err := primitive.Parse(tt.kind, tt.cell, sp)
			require.NoError(t, err)

			out, err := primitive.Format(tt.kind, v, sp)
			require.NoError(t, err)
			assert.Equal(t, tt.cell, out)
		})
	}
}

func TestParseRejectsBadCells(t *testing.T) {
	t.Parallel()

	sp := primitive.Spellings{True: []string{"yes", "Y"}, False: []string{"no", "N"}}

	tests := []struct {
		kind primitive.Kind
		cell string
	}{
		{primitive.KindBool, "YESPLEASE"},
		{primitive.KindInt8, "128"},
		{primitive.KindUint, "-1"},
		{primitive.KindFloat64, "five"},
		{primitive.KindDuration, "soon"},
		{primitive.KindDecimal, "1.2.3"},
	}

	for _, tt := range tests {
		_, err := primitive.Parse(tt.kind, tt.cell, sp)
		assert.ErrorIs(t, err, primitive.ErrSyntax, "%s %q", tt.kind, tt.cell)
	}
}

func TestSpellings(t *testing.T) {
	t.Parallel()

	sp := primitive.Spellings{True: []string{"yes", "Y"}, False: []string{"no", "N"}, Nil: []string{"-"}}

	b, ok := sp.ParseBool("y")
	assert.True(t, ok)
	assert.True(t, b)
	assert.Equal(t, "yes", sp.FormatBool(true))
	assert.Equal(t, "no", sp.FormatBool(false))
	assert.True(t, sp.IsNil("-"))
	assert.False(t, sp.IsNil(""))
	assert.Equal(t, "-", sp.FormatNil())

	var empty primitive.Spellings
	assert.Equal(t, "true", empty.FormatBool(true))
	assert.Equal(t, "", empty.FormatNil())
}

func TestFormatNamedTypes(t *testing.T) {
	t.Parallel()

	type Age int
	type Name string

	sp := primitive.DefaultSpellings()

	s, err := primitive.Format(primitive.KindInt, Age(23), sp)
	require.NoError(t, err)
	assert.Equal(t, "23", s)

	s, err = primitive.Format(primitive.KindString, Name("Alice"), sp)
	require.NoError(t, err)
	assert.Equal(t, "Alice", s)

	var nilPtr *int
	s, err = primitive.Format(primitive.KindInt, nilPtr, sp)
	require.NoError(t, err)
	assert.Equal(t, "", s)
}
