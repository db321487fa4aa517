package record

import (
	"bytes"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabcodec/metrics"
	"tabcodec/options"
	"tabcodec/table"
)

func TestEncode_ShortRowPadding(t *testing.T) {
	t.Parallel()

	cfg := options.Default()
	cfg.Header = []string{"name", "x", "age", "tall", "y", "nationality", "z"}

	pets := []petNoHeight{
		{Name: "Alice", Age: 23, Tall: true, Nationality: "UK"},
		{Name: "Bob", Age: 31, Nationality: "FR"},
	}

	for _, layout := range []Layout{RowMajor, ColumnMajor} {
		s, err := encodeAll(pets, layout, cfg)
		require.NoError(t, err)

		tbl := s.Table()
		assert.Equal(t, cfg.Header, tbl.Header)
		assert.Equal(t, [][]string{
			{"Alice", "", "23", "true", "", "UK", ""},
			{"Bob", "", "31", "false", "", "FR", ""},
		}, tbl.Rows)
		assert.Equal(t, []int{1, 4, 6}, s.Resolution().Unmapped)
	}
}

func TestEncode_MissingTargetColumn(t *testing.T) {
	t.Parallel()

	cfg := options.Default()
	cfg.Header = []string{"name", "age"}

	pets := []petNoHeight{{Name: "Alice", Age: 23, Tall: true, Nationality: "UK"}}

	_, err := Encode(pets, cfg)
	require.ErrorIs(t, err, ErrMissingColumn)

	cfg.Tolerance = options.TolerateMissingColumns
	tbl, err := Encode(pets, cfg)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Alice", "23"}}, tbl.Rows)
}

func TestEncodeColumns(t *testing.T) {
	t.Parallel()

	pets := []petNoHeight{
		{Name: "Alice", Age: 23, Tall: true, Nationality: "UK"},
		{Name: "Bob", Age: 31, Nationality: "FR"},
	}

	ct, err := EncodeColumns(pets, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age", "tall", "nationality"}, ct.Header)
	assert.Equal(t, 2, ct.Len())
	assert.Equal(t, []string{"Alice", "Bob"}, ct.Column(0))
	assert.Equal(t, []string{"true", "false"}, ct.Column(2))

	back, _, err := Decode[petNoHeight](ct.Rows(), nil)
	require.NoError(t, err)
	assert.Equal(t, pets, back)
}

func TestEncode_Empty(t *testing.T) {
	t.Parallel()

	tbl, err := Encode[petNoHeight](nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age", "tall", "nationality"}, tbl.Header)
	assert.Zero(t, tbl.Len())

	var buf bytes.Buffer
	require.NoError(t, EncodeCSV[pet](&buf, nil, nil))
	assert.Equal(t, "name,age,height,tall,nationality\n", buf.String())
}

type grade string

type shipment struct {
	ID      uuid.UUID       `csv:"id"`
	Shipped time.Time       `csv:"shipped"`
	Transit time.Duration   `csv:"transit"`
	Weight  float32         `csv:"weight"`
	Pieces  uint16          `csv:"pieces"`
	Price   decimal.Decimal `csv:"price"`
	Label   []byte          `csv:"label"`
	Site    url.URL         `csv:"site"`
	Grade   grade           `csv:"grade"`
	Fragile bool            `csv:"fragile"`
	Notes   *string         `csv:"notes"`
	Rank    int8            `csv:"rank,omitempty"`
	Skipped string          `csv:"-"`
}

func TestCSV_RoundTripScalars(t *testing.T) {
	t.Parallel()

	site, err := url.Parse("https://example.com/track?id=7")
	require.NoError(t, err)

	in := []shipment{
		{
			ID:      uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
			Shipped: time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC),
			Transit: 90 * time.Minute,
			Weight:  1.5,
			Pieces:  3,
			Price:   decimal.RequireFromString("19.99"),
			Label:   []byte("fragile, handle with care"),
			Site:    *site,
			Grade:   "A",
			Fragile: true,
			Notes:   ptr("leave at door"),
			Rank:    2,
		},
		{
			ID:      uuid.MustParse("00000000-0000-0000-0000-000000000001"),
			Shipped: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
			Price:   decimal.Zero,
			Label:   []byte{0},
			Site:    *site,
			Grade:   "B",
		},
	}

	cfg := options.Default()
	cfg.Spellings.Nil = []string{"NA", ""}

	var buf bytes.Buffer
	require.NoError(t, EncodeCSV(&buf, in, cfg))
	lines := strings.Split(buf.String(), "\n")
	assert.Equal(t, "id,shipped,transit,weight,pieces,price,label,site,grade,fragile,notes,rank", lines[0])
	assert.True(t, strings.HasSuffix(lines[2], ",false,NA,NA"), lines[2])

	out, _, err := DecodeCSV[shipment](strings.NewReader(buf.String()), cfg)
	require.NoError(t, err)
	require.Len(t, out, len(in))

	for i := range in {
		want, got := in[i], out[i]
		assert.Equal(t, want.ID, got.ID)
		assert.True(t, want.Shipped.Equal(got.Shipped))
		assert.Equal(t, want.Transit, got.Transit)
		assert.Equal(t, want.Weight, got.Weight)
		assert.Equal(t, want.Pieces, got.Pieces)
		assert.True(t, want.Price.Equal(got.Price))
		assert.Equal(t, want.Label, got.Label)
		assert.Equal(t, want.Site.String(), got.Site.String())
		assert.Equal(t, want.Grade, got.Grade)
		assert.Equal(t, want.Fragile, got.Fragile)
		assert.Equal(t, want.Notes, got.Notes)
	}
	assert.Equal(t, int8(2), out[0].Rank)
}

func TestXLSX_RoundTrip(t *testing.T) {
	t.Parallel()

	cfg := options.Default()
	cfg.Sheet = "pets"

	in := []pet{
		{Name: "Alice", Age: 23, Height: ptr(5.6), Tall: true, Nationality: "UK"},
		{Name: "Bob", Age: 31, Nationality: "FR"},
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeXLSX(&buf, in, cfg))

	out, header, err := DecodeXLSX[pet](bytes.NewReader(buf.Bytes()), cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age", "height", "tall", "nationality"}, header)
	assert.Equal(t, in, out)
}

func TestEncode_FieldLeftOutByFirstRecord(t *testing.T) {
	t.Parallel()

	cfg := options.Default()
	cfg.Spellings.Nil = []string{"NA"}

	in := []contact{{Name: "b"}, {Name: "a", Phone: ptr("555-0100")}}

	for _, records := range [][]contact{in, {in[1], in[0]}} {
		tbl, err := Encode(records, cfg)
		require.NoError(t, err)
		assert.Equal(t, []string{"name", "phone"}, tbl.Header)

		out, _, err := Decode[contact](tbl, cfg)
		require.NoError(t, err)
		assert.Equal(t, records, out)
	}

	tbl, err := Encode(in, cfg)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"b", "NA"}, {"a", "555-0100"}}, tbl.Rows)
}

type twice struct{}

func (twice) MarshalRow(e *Encoder) error {
	if err := e.String("a", "1"); err != nil {
		return err
	}
	return e.String("a", "2")
}

type growing struct {
	Extra bool
}

func (g *growing) MarshalRow(e *Encoder) error {
	if err := e.String("a", "1"); err != nil {
		return err
	}
	if g.Extra {
		return e.String("b", "2")
	}
	return nil
}

func TestEncode_Errors(t *testing.T) {
	t.Parallel()

	_, err := Encode([]twice{{}}, nil)
	require.ErrorIs(t, err, ErrDuplicateField)

	_, err = Encode([]growing{{}, {Extra: true}}, nil)
	require.ErrorIs(t, err, ErrUnknownField)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 2, fe.Row)
	assert.Equal(t, "b", fe.Field)

	type withMap struct {
		M map[string]int `csv:"m"`
	}
	_, err = Encode([]withMap{{}}, nil)
	require.ErrorIs(t, err, ErrUnsupportedShape)
}

func TestEncode_FieldCodecs(t *testing.T) {
	t.Parallel()

	cfg := petConfig(t)
	tbl, err := Encode([]petNoHeight{{Name: "Bob", Age: 31, Tall: false, Nationality: "France"}}, cfg)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Bob", "31", "no", "FR"}}, tbl.Rows)

	_, err = Encode([]petNoHeight{{Name: "Eve", Nationality: "Atlantis"}}, cfg)
	require.ErrorIs(t, err, ErrDataCorrupted)
}

func TestDecodeSession_ConcurrentRows(t *testing.T) {
	t.Parallel()

	tbl := table.New([]string{"age", "name", "tall", "nationality"})
	for i := 0; i < 64; i++ {
		tbl.Append([]string{"1", "p", "true", "UK"})
	}

	s, err := NewDecodeSession[petNoHeight](tbl.Header, nil, tbl, nil)
	require.NoError(t, err)

	out := make([]petNoHeight, tbl.Len())
	errs := make([]error, tbl.Len())

	var wg sync.WaitGroup
	for i := range tbl.Rows {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out[i], errs[i] = s.DecodeRow(tbl.Row(i), i+1)
		}(i)
	}
	wg.Wait()

	for i := range out {
		require.NoError(t, errs[i])
		assert.Equal(t, petNoHeight{Name: "p", Age: 1, Tall: true, Nationality: "UK"}, out[i])
	}
}

func TestDecode_Metrics(t *testing.T) {
	t.Parallel()

	cfg := petConfig(t)
	cfg.Metrics = metrics.NewMetrics(prometheus.NewRegistry())
	cfg.ErrorMode = options.SkipRow

	data := "name,age,height,tall,nationality\nAlice,23,5.6,yes,UK\nBob,31,6.1,maybe,FR\n"
	_, _, err := DecodeCSV[pet](strings.NewReader(data), cfg)
	require.Error(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(cfg.Metrics.RowsDecoded))
	assert.Equal(t, float64(1), testutil.ToFloat64(cfg.Metrics.RowsSkipped))
	assert.Equal(t, float64(1), testutil.ToFloat64(cfg.Metrics.RowErrors.WithLabelValues("data_corrupted")))

	var buf bytes.Buffer
	require.NoError(t, EncodeCSV(&buf, []pet{{Name: "A", Nationality: "France"}, {Name: "B", Nationality: "France"}}, cfg))
	assert.Equal(t, float64(2), testutil.ToFloat64(cfg.Metrics.RowsEncoded))
}
