package table

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"tabcodec/primitive"
)

// DefaultSheet is the sheet WriteXLSX creates when none is named.
const DefaultSheet = "Sheet1"

// XLSXOptions configures workbook reading and writing.
type XLSXOptions struct {
	// Sheet to read or write; empty means the first sheet on read and
	// DefaultSheet on write.
	Sheet     string
	HasHeader bool
	Spellings primitive.Spellings
	// Types is the partial column name → kind map. On read, boolean cells of a
	// KindBool column are rewritten to the canonical spellings. On write,
	// numeric and boolean columns are stored as native cell types.
	Types map[string]primitive.Kind
}

// ReadXLSX reads one sheet of a workbook into a Table. Leading empty rows are
// skipped.
func ReadXLSX(r io.Reader, opt XLSXOptions) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheet := opt.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("no sheets found in XLSX file")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet %s: %w", sheet, err)
	}

	t := &Table{Spellings: opt.Spellings}
	first := true
	for _, row := range rows {
		if first && len(row) == 0 {
			continue
		}
		if first && opt.HasHeader {
			t.Header = row
			first = false
			continue
		}
		first = false
		t.Rows = append(t.Rows, row)
	}

	if opt.HasHeader && t.Header == nil {
		return nil, fmt.Errorf("sheet %s is empty in XLSX file", sheet)
	}

	t.ApplyTypes(opt.Types)
	t.NormalizeBools()

	return t, nil
}

// NormalizeBools rewrites spreadsheet TRUE/FALSE cells in KindBool columns to
// the table's canonical spellings. Call it again after ApplyTypes when the
// types become known only after reading.
func (t *Table) NormalizeBools() {
	for c, k := range t.Kinds {
		if k != primitive.KindBool {
			continue
		}
		for _, r := range t.Rows {
			if c >= len(r) || t.Spellings.IsNil(r[c]) {
				continue
			}
			if b, err := strconv.ParseBool(r[c]); err == nil {
				r[c] = t.Spellings.FormatBool(b)
			}
		}
	}
}

// WriteXLSX writes t as a single-sheet workbook.
func WriteXLSX(w io.Writer, t *Table, opt XLSXOptions) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	sheet := opt.Sheet
	if sheet == "" {
		sheet = DefaultSheet
	}
	if sheet != DefaultSheet {
		if err := f.SetSheetName(DefaultSheet, sheet); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	}

	kinds := t.Kinds
	if t.Header != nil && len(opt.Types) > 0 {
		kinds = make([]primitive.Kind, len(t.Header))
		for i, h := range t.Header {
			kinds[i] = opt.Types[h]
		}
	}

	rowNum := 1
	if opt.HasHeader && t.Header != nil {
		for c, h := range t.Header {
			if err := setCell(f, sheet, c, rowNum, h); err != nil {
				return err
			}
		}
		rowNum++
	}

	for _, r := range t.Rows {
		for c, cell := range r {
			var k primitive.Kind
			if c < len(kinds) {
				k = kinds[c]
			}
			if err := setCell(f, sheet, c, rowNum, nativeValue(k, cell, t.Spellings)); err != nil {
				return err
			}
		}
		rowNum++
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write XLSX: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, v any) error {
	name, err := excelize.CoordinatesToCellName(col+1, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, name, v); err != nil {
		return fmt.Errorf("set cell %s: %w", name, err)
	}
	return nil
}

// nativeValue converts cell to the Go value excelize stores natively for k.
// Cells that do not parse, and nil cells, stay text.
func nativeValue(k primitive.Kind, cell string, sp primitive.Spellings) any {
	if sp.IsNil(cell) {
		return cell
	}
	switch {
	case k == primitive.KindBool:
		if b, ok := sp.ParseBool(cell); ok {
			return b
		}
	case k.IsInteger():
		if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
			return n
		}
	case k.IsFloat():
		if x, err := strconv.ParseFloat(cell, 64); err == nil {
			return x
		}
	}
	return cell
}
