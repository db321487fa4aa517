package record

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tabcodec/options"
	"tabcodec/primitive"
	"tabcodec/table"
)

const petsCSV = "name,age,height,tall,nationality\nAlice,23,5.6,yes,UK\n"

type pet struct {
	Name        string   `csv:"name"`
	Age         int      `csv:"age"`
	Height      *float64 `csv:"height"`
	Tall        bool     `csv:"tall"`
	Nationality string   `csv:"nationality"`
}

type petNoHeight struct {
	Name        string `csv:"name"`
	Age         int    `csv:"age"`
	Tall        bool   `csv:"tall"`
	Nationality string `csv:"nationality"`
}

func petConfig(t *testing.T) *options.Config {
	t.Helper()

	cfg := options.Default()
	cfg.Fields = map[string]options.FieldConfig{
		"tall": {Bool: &options.BoolSpellings{
			True:  []string{"yes", "Y"},
			False: []string{"no", "N"},
		}},
		"nationality": {Enum: map[string]string{
			"UK": "United Kingdom",
			"FR": "France",
		}},
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

// Pet decodes itself by hand.
type Pet struct {
	Name     string
	Age      int
	Friendly bool
}

func (p *Pet) UnmarshalRow(d *Decoder) error {
	var err error
	if p.Name, err = d.String("Name"); err != nil {
		return err
	}
	age, err := d.Int("Age")
	if err != nil {
		return err
	}
	p.Age = int(age)
	p.Friendly, err = d.Bool("Friendly")
	return err
}

func (p *Pet) MarshalRow(e *Encoder) error {
	if err := e.String("Name", p.Name); err != nil {
		return err
	}
	if err := e.Int("Age", int64(p.Age)); err != nil {
		return err
	}
	return e.Bool("Friendly", p.Friendly)
}

// Cat extends Pet by calling its methods with the same Decoder and Encoder.
type Cat struct {
	Pet
	Color    string
	LongHair bool

	// baseEnd is the cursor index right after Pet's fields.
	baseEnd int
	// sameCursor is false if Pet saw a different cursor.
	sameCursor bool
}

func (c *Cat) UnmarshalRow(d *Decoder) error {
	cur := d.Cursor()
	if err := c.Pet.UnmarshalRow(d); err != nil {
		return err
	}
	c.baseEnd = d.Cursor().Index
	c.sameCursor = cur == d.Cursor()

	var err error
	if c.Color, err = d.String("Color"); err != nil {
		return err
	}
	c.LongHair, err = d.Bool("Long Hair")
	return err
}

func (c *Cat) MarshalRow(e *Encoder) error {
	if err := c.Pet.MarshalRow(e); err != nil {
		return err
	}
	if err := e.String("Color", c.Color); err != nil {
		return err
	}
	return e.Bool("Long Hair", c.LongHair)
}

// Owner is a second self-decoding base. Embedding both Pet and Owner hides
// their methods, so adoption is walked by reflection.
type Owner struct {
	Who   string
	Phone *string
}

func (o *Owner) UnmarshalRow(d *Decoder) error {
	var err error
	if o.Who, err = d.String("Owner"); err != nil {
		return err
	}
	return d.Decode("Phone", &o.Phone)
}

func (o *Owner) MarshalRow(e *Encoder) error {
	if err := e.String("Owner", o.Who); err != nil {
		return err
	}
	return e.Encode("Phone", o.Phone)
}

// contact writes its phone only when it has one.
type contact struct {
	Name  string
	Phone *string
}

func (c *contact) UnmarshalRow(d *Decoder) error {
	var err error
	if c.Name, err = d.String("name"); err != nil {
		return err
	}
	if d.IsNil("phone") {
		return d.Err()
	}
	phone, err := d.String("phone")
	if err != nil {
		return err
	}
	c.Phone = &phone
	return nil
}

func (c *contact) MarshalRow(e *Encoder) error {
	if err := e.String("name", c.Name); err != nil {
		return err
	}
	if c.Phone == nil {
		return nil
	}
	return e.String("phone", *c.Phone)
}

type adoption struct {
	Pet
	Owner
	Fee decimal.Decimal `csv:"fee"`
}

type animal struct {
	Name string `csv:"name"`
	Legs int    `csv:"legs"`
}

// dog flattens animal's fields in place.
type dog struct {
	animal
	Breed  string `csv:"breed"`
	Secret string `csv:"-"`
	note   string
}

// recordingRow remembers every column it parses.
type recordingRow struct {
	table.StringRow
	touched []int
}

func (r *recordingRow) Get(at int, k primitive.Kind) (any, error) {
	r.touched = append(r.touched, at)
	return r.StringRow.Get(at, k)
}

func row(cells ...string) table.StringRow {
	return table.StringRow{Cells: cells, Spellings: primitive.DefaultSpellings()}
}

func ptr[T any](v T) *T { return &v }
