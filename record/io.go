package record

import (
	"io"

	"tabcodec/options"
	"tabcodec/primitive"
	"tabcodec/table"
)

// DecodeCSV reads delimited text from r and decodes it into T.
func DecodeCSV[T any](r io.Reader, cfg *options.Config) ([]T, []string, error) {
	if cfg == nil {
		cfg = options.Default()
	}
	tbl, err := table.ReadCSV(r, cfg.CSV(nil))
	if err != nil {
		return nil, nil, err
	}
	return decodeTable[T](tbl, cfg, false)
}

// EncodeCSV encodes records and writes them to w as delimited text, with a
// header line when cfg.HasHeader is set.
func EncodeCSV[T any](w io.Writer, records []T, cfg *options.Config) error {
	if cfg == nil {
		cfg = options.Default()
	}
	tbl, err := Encode(records, cfg)
	if err != nil {
		return err
	}
	return table.WriteCSV(w, tbl, cfg.CSV(nil))
}

// DecodeXLSX reads the configured sheet of a workbook and decodes it into T.
func DecodeXLSX[T any](r io.Reader, cfg *options.Config) ([]T, []string, error) {
	if cfg == nil {
		cfg = options.Default()
	}
	tbl, err := table.ReadXLSX(r, cfg.XLSX(nil))
	if err != nil {
		return nil, nil, err
	}
	return decodeTable[T](tbl, cfg, true)
}

// EncodeXLSX encodes records into a one-sheet workbook. Bool and numeric
// fields are stored as native cell values.
func EncodeXLSX[T any](w io.Writer, records []T, cfg *options.Config) error {
	if cfg == nil {
		cfg = options.Default()
	}
	s, err := encodeAll(records, RowMajor, cfg)
	if err != nil {
		return err
	}
	return table.WriteXLSX(w, s.Table(), cfg.XLSX(s.Types()))
}

// decodeTable types the columns the schema covers before decoding, so the
// nil cell rule and spreadsheet booleans see native kinds.
func decodeTable[T any](tbl *table.Table, cfg *options.Config, spreadsheet bool) ([]T, []string, error) {
	s, err := NewDecodeSession[T](tbl.Header, firstRow(tbl), tbl, cfg)
	if err != nil {
		return nil, nil, err
	}

	for col, k := range s.columnKinds() {
		tbl.SetKind(col, k)
	}
	if cfg.InferSample > 0 {
		tbl.Infer(cfg.InferSample)
	}
	if spreadsheet {
		tbl.NormalizeBools()
	}

	return decodeRows(s, tbl, cfg)
}

// columnKinds maps physical columns to the kinds of the fields read from
// them. Fields with their own codec keep their column untyped.
func (s *DecodeSession[T]) columnKinds() map[int]primitive.Kind {
	kinds := map[int]primitive.Kind{}
	for pos, f := range s.plan.schema.Fields() {
		if _, ok := s.reg.ForField(f.Name); ok {
			continue
		}
		if col, ok := s.plan.mapping.Column(pos, f.Name); ok {
			kinds[col] = f.Kind
		}
	}
	return kinds
}
