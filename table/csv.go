package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"tabcodec/primitive"
)

const byteOrderMark = "\uFEFF"

// CSVOptions configures delimited text reading and writing. The quote
// character is always '"'.
type CSVOptions struct {
	Comma      rune
	HasHeader  bool
	TrimSpace  bool
	LazyQuotes bool
	UseCRLF    bool
	Spellings  primitive.Spellings
	// Types is the partial column name → kind map applied after reading.
	Types map[string]primitive.Kind
}

// DefaultCSVOptions returns comma separated text with a header row.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{Comma: ',', HasHeader: true, Spellings: primitive.DefaultSpellings()}
}

// ReadCSV reads the whole input into a Table. Rows may have differing
// lengths; short rows are padded by the Row view, not here.
func ReadCSV(r io.Reader, opt CSVOptions) (*Table, error) {
	cr := csv.NewReader(r)
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.LazyQuotes = opt.LazyQuotes
	cr.FieldsPerRecord = -1

	t := &Table{Spellings: opt.Spellings}

	line := 0
	for {
		rec, err := cr.Read()
		line++
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv read line %d: %w", line, err)
		}

		if opt.TrimSpace {
			for i := range rec {
				rec[i] = strings.TrimSpace(rec[i])
			}
		}

		if line == 1 && len(rec) > 0 {
			rec[0] = strings.TrimPrefix(rec[0], byteOrderMark)
		}

		if opt.HasHeader && t.Header == nil {
			t.Header = rec
			continue
		}
		t.Rows = append(t.Rows, rec)
	}

	if opt.HasHeader && t.Header == nil {
		t.Header = []string{}
	}
	t.ApplyTypes(opt.Types)

	return t, nil
}

// WriteCSV writes t, header first when opt.HasHeader is set and t has one.
func WriteCSV(w io.Writer, t *Table, opt CSVOptions) error {
	cw := csv.NewWriter(w)
	if opt.Comma != 0 {
		cw.Comma = opt.Comma
	}
	cw.UseCRLF = opt.UseCRLF

	if opt.HasHeader && t.Header != nil {
		if err := cw.Write(t.Header); err != nil {
			return fmt.Errorf("csv write header: %w", err)
		}
	}

	for i, r := range t.Rows {
		if err := cw.Write(r); err != nil {
			return fmt.Errorf("csv write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
