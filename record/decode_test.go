package record

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabcodec/options"
	"tabcodec/primitive"
	"tabcodec/table"
)

func TestDecodeCSV_RoundTripsPetLine(t *testing.T) {
	t.Parallel()

	cfg := petConfig(t)

	pets, header, err := DecodeCSV[pet](strings.NewReader(petsCSV), cfg)
	require.NoError(t, err)
	require.Len(t, pets, 1, spew.Sdump(pets))

	p := pets[0]
	assert.Equal(t, "Alice", p.Name)
	assert.Equal(t, 23, p.Age)
	require.NotNil(t, p.Height)
	assert.InDelta(t, 5.6, *p.Height, 1e-9)
	assert.True(t, p.Tall)
	assert.Equal(t, "United Kingdom", p.Nationality)
	assert.Equal(t, []string{"name", "age", "height", "tall", "nationality"}, header)

	var buf bytes.Buffer
	require.NoError(t, EncodeCSV(&buf, pets, cfg))
	assert.Equal(t, petsCSV, buf.String())
}

func TestDecodeCSV_HeaderOrderInvariance(t *testing.T) {
	t.Parallel()

	cfg := petConfig(t)

	want, _, err := DecodeCSV[pet](strings.NewReader(petsCSV), cfg)
	require.NoError(t, err)

	tests := []struct {
		name string
		data string
	}{
		{"scenario order", "age,name,height,nationality,tall\n23,Alice,5.6,UK,yes\n"},
		{"reversed", "nationality,tall,height,age,name\nUK,yes,5.6,23,Alice\n"},
		{"rotated", "height,tall,nationality,name,age\n5.6,yes,UK,Alice,23\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, header, err := DecodeCSV[pet](strings.NewReader(tt.data), cfg)
			require.NoError(t, err)
			assert.Equal(t, want, got, spew.Sdump(got))
			assert.Equal(t, strings.Split(strings.SplitN(tt.data, "\n", 2)[0], ","), header)
		})
	}
}

func TestDecodeCSV_MissingFieldKeepsColumnBlank(t *testing.T) {
	t.Parallel()

	cfg := petConfig(t)

	_, _, err := DecodeCSV[petNoHeight](strings.NewReader(petsCSV), cfg)
	require.ErrorIs(t, err, ErrUnexpectedColumn)

	cfg.Tolerance = options.TolerateExtraColumns
	pets, header, err := DecodeCSV[petNoHeight](strings.NewReader(petsCSV), cfg)
	require.NoError(t, err)
	require.Len(t, pets, 1)
	assert.Equal(t, petNoHeight{Name: "Alice", Age: 23, Tall: true, Nationality: "United Kingdom"}, pets[0])

	// The resolved header keeps height, so it comes back blank.
	withHeader := *cfg
	withHeader.Header = header
	var buf bytes.Buffer
	require.NoError(t, EncodeCSV(&buf, pets, &withHeader))
	assert.Equal(t, "name,age,height,tall,nationality\nAlice,23,,yes,UK\n", buf.String())

	// Without the override header the column is gone.
	buf.Reset()
	require.NoError(t, EncodeCSV(&buf, pets, cfg))
	assert.Equal(t, "name,age,tall,nationality\nAlice,23,yes,UK\n", buf.String())
}

func TestDecodeCSV_ExtraTrailingColumnIsBlankedOnReencode(t *testing.T) {
	t.Parallel()

	cfg := petConfig(t)
	cfg.Tolerance = options.TolerateExtraColumns

	data := "name,age,height,tall,nationality,notes\nAlice,23,5.6,yes,UK,likes fish\nBob,31,,no,FR,\n"
	pets, header, err := DecodeCSV[pet](strings.NewReader(data), cfg)
	require.NoError(t, err)
	require.Len(t, pets, 2)
	assert.Nil(t, pets[1].Height)
	assert.Equal(t, "France", pets[1].Nationality)

	cfg.Header = header
	var buf bytes.Buffer
	require.NoError(t, EncodeCSV(&buf, pets, cfg))
	assert.Equal(t, "name,age,height,tall,nationality,notes\nAlice,23,5.6,yes,UK,\nBob,31,,no,FR,\n", buf.String())
}

func TestDecodeCSV_CorruptBoolNamesFieldAndRow(t *testing.T) {
	t.Parallel()

	cfg := petConfig(t)
	data := "name,age,height,tall,nationality\nAlice,23,5.6,yes,UK\nBob,31,6.1,YESPLEASE,FR\n"

	_, _, err := DecodeCSV[pet](strings.NewReader(data), cfg)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrDataCorrupted)

	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 2, fe.Row)
	assert.Equal(t, "tall", fe.Field)
	assert.Equal(t, "YESPLEASE", fe.Cell)
	assert.Contains(t, err.Error(), `row 2: field "tall"`)
}

func TestDecodeCSV_SkipRow(t *testing.T) {
	t.Parallel()

	var reported []int
	cfg := petConfig(t)
	cfg.ErrorMode = options.SkipRow
	cfg.OnRowError = func(row int, err error) {
		reported = append(reported, row)
	}

	data := "name,age,height,tall,nationality\n" +
		"Alice,23,5.6,yes,UK\n" +
		"Bob,old,6.1,no,FR\n" +
		"Carol,40,,Y,FR\n" +
		"Dan,,1.0,N,UK\n"

	pets, _, err := DecodeCSV[pet](strings.NewReader(data), cfg)
	require.Error(t, err)

	var be *BatchError
	require.ErrorAs(t, err, &be)
	require.Len(t, be.Errors, 2)
	assert.ErrorIs(t, be.Errors[0], ErrDataCorrupted)
	assert.ErrorIs(t, be.Errors[1], ErrValueNotFound)
	assert.ErrorIs(t, err, ErrValueNotFound)
	assert.Equal(t, []int{2, 4}, reported)

	require.Len(t, pets, 2)
	assert.Equal(t, "Alice", pets[0].Name)
	assert.Equal(t, "Carol", pets[1].Name)
	assert.Nil(t, pets[1].Height)
}

func TestDecode_InheritanceCursorContinuity(t *testing.T) {
	t.Parallel()

	header := []string{"Name", "Age", "Friendly", "Color", "Long Hair"}
	s, err := NewDecodeSession[Cat](header, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "[0:Name KindString, 1:Age KindInt64, 2:Friendly KindBool, 3:Color KindString, 4:Long Hair KindBool]",
		s.Schema().String(), spew.Sdump(s.Schema()))

	r := &recordingRow{StringRow: row("Tom", "4", "true", "black", "false")}
	c, err := s.DecodeRow(r, 1)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2, 3, 4}, r.touched)
	assert.Equal(t, Pet{Name: "Tom", Age: 4, Friendly: true}, c.Pet)
	assert.Equal(t, "black", c.Color)
	assert.False(t, c.LongHair)
	assert.Equal(t, 3, c.baseEnd)
	assert.True(t, c.sameCursor)

	tbl, err := Encode([]Cat{c}, nil)
	require.NoError(t, err)
	assert.Equal(t, header, tbl.Header)
	assert.Equal(t, [][]string{{"Tom", "4", "true", "black", "false"}}, tbl.Rows)
}

func TestDecode_MultipleSelfDecodingBases(t *testing.T) {
	t.Parallel()

	tbl := table.New([]string{"Name", "Age", "Friendly", "Owner", "Phone", "fee"})
	tbl.Append([]string{"Rex", "2", "true", "Ann", "555-0101", "12.50"})
	tbl.Append([]string{"Tom", "9", "false", "Bo", "", "0"})

	got, _, err := Decode[adoption](tbl, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, Pet{Name: "Rex", Age: 2, Friendly: true}, got[0].Pet)
	assert.Equal(t, "Ann", got[0].Who)
	require.NotNil(t, got[0].Phone)
	assert.Equal(t, "555-0101", *got[0].Phone)
	assert.True(t, decimal.RequireFromString("12.5").Equal(got[0].Fee))
	assert.Nil(t, got[1].Phone)

	out, err := Encode(got, nil)
	require.NoError(t, err)
	assert.Equal(t, tbl.Header, out.Header)
	assert.Equal(t, tbl.Rows, out.Rows)
}

func TestDecode_FlattensEmbeddedStruct(t *testing.T) {
	t.Parallel()

	tbl := table.New([]string{"breed", "name", "legs"})
	tbl.Append([]string{"collie", "Lassie", "4"})

	got, _, err := Decode[dog](tbl, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, dog{animal: animal{Name: "Lassie", Legs: 4}, Breed: "collie"}, got[0])
}

func TestDecode_Headerless(t *testing.T) {
	t.Parallel()

	cfg := options.Default()
	cfg.HasHeader = false

	pets, header, err := DecodeCSV[petNoHeight](strings.NewReader("Alice,23,true,UK\nBob,31,false,FR\n"), cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age", "tall", "nationality"}, header)
	require.Len(t, pets, 2)
	assert.Equal(t, "FR", pets[1].Nationality)

	_, _, err = DecodeCSV[petNoHeight](strings.NewReader("Alice,23\n"), cfg)
	require.ErrorIs(t, err, ErrValueNotFound)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "tall", fe.Field)
}

func TestDecode_DeclaredHeader(t *testing.T) {
	t.Parallel()

	cfg := options.Default()
	cfg.HasHeader = false
	cfg.Header = []string{"nationality", "tall", "age", "name"}

	pets, header, err := DecodeCSV[petNoHeight](strings.NewReader("UK,true,23,Alice\n"), cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.Header, header)
	assert.Equal(t, []petNoHeight{{Name: "Alice", Age: 23, Tall: true, Nationality: "UK"}}, pets)
}

func TestDecode_NilCells(t *testing.T) {
	t.Parallel()

	type item struct {
		Label string  `csv:"label"`
		Count int     `csv:"count"`
		Price *string `csv:"price"`
	}

	tests := []struct {
		name       string
		header     []string
		cells      []string
		nilAsEmpty bool
		want       item
		err        error
	}{
		{
			name:   "empty string field",
			header: []string{"label", "count", "price"},
			cells:  []string{"", "1", "2"},
			want:   item{Count: 1, Price: ptr("2")},
		},
		{
			name:   "empty required int",
			header: []string{"label", "count", "price"},
			cells:  []string{"a", "", "2"},
			err:    ErrValueNotFound,
		},
		{
			name:   "short row drops optional",
			header: []string{"label", "count", "price"},
			cells:  []string{"a", "1"},
			want:   item{Label: "a", Count: 1},
		},
		{
			name:   "short row misses required",
			header: []string{"label", "count", "price"},
			cells:  []string{"a"},
			err:    ErrValueNotFound,
		},
		{
			name:       "absent string column as empty",
			header:     []string{"count", "price"},
			cells:      []string{"1", "2"},
			nilAsEmpty: true,
			want:       item{Count: 1, Price: ptr("2")},
		},
		{
			name:   "absent string column",
			header: []string{"count", "price"},
			cells:  []string{"1", "2"},
			err:    ErrValueNotFound,
		},
		{
			name:   "bad int",
			header: []string{"label", "count", "price"},
			cells:  []string{"a", "one", ""},
			err:    ErrDataCorrupted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := options.Default()
			cfg.Tolerance = options.TolerateMissingColumns
			cfg.NilAsEmptyString = tt.nilAsEmpty

			tbl := table.New(tt.header)
			tbl.Append(tt.cells)

			got, _, err := Decode[item](tbl, cfg)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0])
		})
	}
}

func TestDecode_TextColumnNilIsCorrupted(t *testing.T) {
	t.Parallel()

	type item struct {
		Count int `csv:"count"`
	}

	tbl := table.New([]string{"count"})
	tbl.Append([]string{""})

	s, err := NewDecodeSession[item](tbl.Header, tbl.Row(0), tbl, nil)
	require.NoError(t, err)

	_, err = s.DecodeRow(tbl.Row(0), 1)
	require.ErrorIs(t, err, ErrValueNotFound)

	tbl.Kinds = nil
	tbl.ApplyTypes(map[string]primitive.Kind{"count": primitive.KindString})
	_, err = s.DecodeRow(tbl.Row(0), 1)
	require.ErrorIs(t, err, ErrDataCorrupted)
}

func TestDecode_SkipIntrospection(t *testing.T) {
	t.Parallel()

	cfg := petConfig(t)
	cfg.SkipIntrospection = true
	cfg.Tolerance = options.MatchNormalizedHeaders

	data := "Nationality,TALL,Height,Age,Name\nUK,Y,5.6,23,Alice\n"
	pets, header, err := DecodeCSV[pet](strings.NewReader(data), cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"Nationality", "TALL", "Height", "Age", "Name"}, header)
	require.Len(t, pets, 1)
	assert.Equal(t, "Alice", pets[0].Name)
	assert.True(t, pets[0].Tall)
	assert.Equal(t, "United Kingdom", pets[0].Nationality)

	type hair struct {
		LongHair bool `csv:"Long Hair"`
	}
	strict := options.Default()
	strict.SkipIntrospection = true
	_, _, err = DecodeCSV[hair](strings.NewReader("longhair\ntrue\n"), strict)
	require.ErrorIs(t, err, ErrValueNotFound)

	strict.Tolerance = options.MatchNormalizedHeaders
	got, _, err := DecodeCSV[hair](strings.NewReader("longhair\ntrue\n"), strict)
	require.NoError(t, err)
	assert.Equal(t, []hair{{LongHair: true}}, got)
}

func TestDecode_UnsupportedShape(t *testing.T) {
	t.Parallel()

	type nested struct {
		Tags []string `csv:"tags"`
	}

	_, err := Introspect[nested](nil, nil)
	require.ErrorIs(t, err, ErrUnsupportedShape)

	type embeddedPtr struct {
		*animal
	}
	_, err = Introspect[embeddedPtr](nil, nil)
	require.ErrorIs(t, err, ErrUnsupportedShape)
}

func TestDecode_UserErrorGetsRow(t *testing.T) {
	t.Parallel()

	s, err := NewDecodeSession[failing](nil, nil, nil, nil)
	require.NoError(t, err)

	_, err = s.DecodeRow(row("x"), 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errFailing))
	assert.Contains(t, err.Error(), "row 7")
}

var errFailing = errors.New("refused")

type failing struct {
	V string
}

func (f *failing) UnmarshalRow(d *Decoder) error {
	var err error
	if f.V, err = d.String("v"); err != nil {
		return err
	}
	if d.Row() > 0 {
		return errFailing
	}
	return nil
}
