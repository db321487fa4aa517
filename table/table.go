// Package table is the tokenized side of the mapper: rows of string cells
// with an optional header, read from and written to CSV and XLSX.
//
// The record engine only needs the Row and Columns views; Table and
// ColumnTable are the two storage layouts (row-major and column-major) an
// encode session can fill.
package table

import (
	"slices"

	"tabcodec/primitive"
)

// Row is the read view of one physical row.
type Row interface {
	// CellCount is the number of physical cells, which may be fewer than the
	// header width for short rows.
	CellCount() int
	// IsNil reports whether the cell at is missing or spelled as nil.
	IsNil(at int) bool
	// Cell returns the raw text at, or "" past the end of the row.
	Cell(at int) string
	// Get parses the cell at as kind k using the row's spellings.
	Get(at int, k primitive.Kind) (any, error)
}

// Columns reports the native kind of each physical column, 0 when unknown.
type Columns interface {
	KindAt(i int) primitive.Kind
}

// Table is a row-major cell matrix.
type Table struct {
	// Header is nil for headerless data.
	Header []string
	Rows   [][]string
	// Kinds holds per-column kinds, filled from a type map or by Infer.
	Kinds     []primitive.Kind
	Spellings primitive.Spellings
}

// New returns an empty table with default spellings.
func New(header []string) *Table {
	return &Table{Header: header, Spellings: primitive.DefaultSpellings()}
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// Width is the header width, or the widest row when there is no header.
func (t *Table) Width() int {
	if t.Header != nil {
		return len(t.Header)
	}
	w := 0
	for _, r := range t.Rows {
		w = max(w, len(r))
	}
	return w
}

// Row returns a view of row i.
func (t *Table) Row(i int) StringRow {
	return StringRow{Cells: t.Rows[i], Spellings: t.Spellings}
}

// Append adds one row of cells.
func (t *Table) Append(cells []string) {
	t.Rows = append(t.Rows, cells)
}

func (t *Table) KindAt(i int) primitive.Kind {
	if i < 0 || i >= len(t.Kinds) {
		return 0
	}
	return t.Kinds[i]
}

// ApplyTypes sets column kinds from a name → kind map. Columns missing from
// types keep their current kind.
func (t *Table) ApplyTypes(types map[string]primitive.Kind) {
	if t.Header == nil || len(types) == 0 {
		return
	}
	t.ensureKinds()
	for i, h := range t.Header {
		if k, ok := types[h]; ok {
			t.Kinds[i] = k
		}
	}
}

// Infer fills every column whose kind is still unknown from a sample of at
// most sample rows (all rows when sample <= 0).
func (t *Table) Infer(sample int) {
	rows := t.Rows
	if sample > 0 && sample < len(rows) {
		rows = rows[:sample]
	}
	t.ensureKinds()
	inferred := InferKinds(rows, len(t.Kinds), t.Spellings)
	for i, k := range t.Kinds {
		if k == 0 {
			t.Kinds[i] = inferred[i]
		}
	}
}

// SetKind sets the kind of column i.
func (t *Table) SetKind(i int, k primitive.Kind) {
	t.ensureKinds()
	if i >= 0 && i < len(t.Kinds) {
		t.Kinds[i] = k
	}
}

func (t *Table) ensureKinds() {
	if w := t.Width(); len(t.Kinds) < w {
		t.Kinds = append(t.Kinds, make([]primitive.Kind, w-len(t.Kinds))...)
	}
}

// Columns transposes the table into column-major storage.
func (t *Table) Columns() *ColumnTable {
	w := t.Width()
	ct := &ColumnTable{Header: slices.Clone(t.Header), Columns: make([][]string, w), Spellings: t.Spellings}
	for _, r := range t.Rows {
		for c := 0; c < w; c++ {
			cell := ""
			if c < len(r) {
				cell = r[c]
			}
			ct.Columns[c] = append(ct.Columns[c], cell)
		}
	}
	return ct
}

// ColumnTable is a column-major cell matrix. All columns have the same length.
type ColumnTable struct {
	Header    []string
	Columns   [][]string
	Spellings primitive.Spellings
}

// NewColumns returns a column table with width empty columns.
func NewColumns(header []string, width int) *ColumnTable {
	return &ColumnTable{
		Header:    header,
		Columns:   make([][]string, width),
		Spellings: primitive.DefaultSpellings(),
	}
}

// Len returns the number of rows.
func (c *ColumnTable) Len() int {
	if len(c.Columns) == 0 {
		return 0
	}
	return len(c.Columns[0])
}

// Column returns the cells of column i.
func (c *ColumnTable) Column(i int) []string { return c.Columns[i] }

// Rows transposes back into row-major storage.
func (c *ColumnTable) Rows() *Table {
	t := &Table{Header: slices.Clone(c.Header), Spellings: c.Spellings}
	for r := 0; r < c.Len(); r++ {
		row := make([]string, len(c.Columns))
		for i, col := range c.Columns {
			row[i] = col[r]
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// StringRow is a Row over plain string cells.
type StringRow struct {
	Cells     []string
	Spellings primitive.Spellings
}

func (r StringRow) CellCount() int { return len(r.Cells) }

func (r StringRow) IsNil(at int) bool {
	if at < 0 || at >= len(r.Cells) {
		return true
	}
	return r.Spellings.IsNil(r.Cells[at])
}

func (r StringRow) Cell(at int) string {
	if at < 0 || at >= len(r.Cells) {
		return ""
	}
	return r.Cells[at]
}

func (r StringRow) Get(at int, k primitive.Kind) (any, error) {
	return primitive.Parse(k, r.Cell(at), r.Spellings)
}

// Bool parses the cell at as a boolean.
func (r StringRow) Bool(at int) (bool, error) {
	v, err := r.Get(at, primitive.KindBool)
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// Int parses the cell at as an int64.
func (r StringRow) Int(at int) (int64, error) {
	v, err := r.Get(at, primitive.KindInt64)
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

// Float parses the cell at as a float64.
func (r StringRow) Float(at int) (float64, error) {
	v, err := r.Get(at, primitive.KindFloat64)
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}
