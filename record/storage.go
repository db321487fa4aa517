package record

import (
	"tabcodec/primitive"
	"tabcodec/table"
)

// Layout selects the storage an encode session accumulates cells into.
type Layout int

const (
	// RowMajor keeps one cell slice per row, ready for line-by-line output.
	RowMajor Layout = iota
	// ColumnMajor keeps one cell slice per column.
	ColumnMajor
)

type storage interface {
	// append takes ownership of cells; len(cells) is the header width.
	append(cells []string)
	rows() *table.Table
	columns() *table.ColumnTable
}

func newStorage(layout Layout, header []string, sp primitive.Spellings) storage {
	if layout == ColumnMajor {
		ct := table.NewColumns(header, len(header))
		ct.Spellings = sp
		return &columnStorage{t: ct}
	}
	t := table.New(header)
	t.Spellings = sp
	return &rowStorage{t: t}
}

type rowStorage struct {
	t *table.Table
}

func (s *rowStorage) append(cells []string) { s.t.Append(cells) }
func (s *rowStorage) rows() *table.Table { return s.t }
func (s *rowStorage) columns() *table.ColumnTable { return s.t.Columns() }

type columnStorage struct {
	t *table.ColumnTable
}

func (s *columnStorage) append(cells []string) {
	for i, c := range cells {
		s.t.Columns[i] = append(s.t.Columns[i], c)
	}
}

func (s *columnStorage) rows() *table.Table { return s.t.Rows() }
func (s *columnStorage) columns() *table.ColumnTable { return s.t }
