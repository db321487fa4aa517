package record

import (
	"errors"

	"github.com/go-kit/log/level"

	"tabcodec/options"
	"tabcodec/table"
)

// Decode decodes every row of tbl into T. It returns the records in row
// order and the resolved header.
//
// With options.FailFast the first failing row aborts the batch. With
// options.SkipRow failing rows are left out and reported together as a
// *BatchError next to the records that decoded.
func Decode[T any](tbl *table.Table, cfg *options.Config) ([]T, []string, error) {
	if cfg == nil {
		cfg = options.Default()
	}
	s, err := NewDecodeSession[T](tbl.Header, firstRow(tbl), tbl, cfg)
	if err != nil {
		return nil, nil, err
	}
	return decodeRows(s, tbl, cfg)
}

func firstRow(tbl *table.Table) table.Row {
	if tbl.Len() == 0 {
		return nil
	}
	return tbl.Row(0)
}

func decodeRows[T any](s *DecodeSession[T], tbl *table.Table, cfg *options.Config) ([]T, []string, error) {
	logger := cfg.Log()
	out := make([]T, 0, tbl.Len())

	var skipped []error
	for i := range tbl.Rows {
		rowNum := i + 1

		v, err := s.DecodeRow(tbl.Row(i), rowNum)
		if err != nil {
			class := errorClass(err)
			if cfg.ErrorMode != options.SkipRow {
				cfg.Metrics.Failed(class)
				return nil, s.Header(), err
			}

			cfg.Metrics.Skipped(class)
			level.Warn(logger).Log("msg", "row skipped", "row", rowNum, "field", fieldOf(err), "err", err)
			if cfg.OnRowError != nil {
				cfg.OnRowError(rowNum, err)
			}
			skipped = append(skipped, err)
			continue
		}

		cfg.Metrics.Decoded()
		out = append(out, v)
	}

	if len(skipped) > 0 {
		return out, s.Header(), &BatchError{Errors: skipped}
	}
	return out, s.Header(), nil
}

func fieldOf(err error) string {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Field
	}
	return ""
}

// Encode encodes records into a row-major table under the configured
// override header, or the recorded field order when there is none.
// Encode failures are always fatal.
func Encode[T any](records []T, cfg *options.Config) (*table.Table, error) {
	s, err := encodeAll(records, RowMajor, cfg)
	if err != nil {
		return nil, err
	}
	return s.Table(), nil
}

// EncodeColumns is Encode into column-major storage.
func EncodeColumns[T any](records []T, cfg *options.Config) (*table.ColumnTable, error) {
	s, err := encodeAll(records, ColumnMajor, cfg)
	if err != nil {
		return nil, err
	}
	return s.Columns(), nil
}

func encodeAll[T any](records []T, layout Layout, cfg *options.Config) (*EncodeSession[T], error) {
	if cfg == nil {
		cfg = options.Default()
	}

	var first *T
	if len(records) > 0 {
		first = &records[0]
	}
	s, err := NewEncodeSession(first, layout, cfg)
	if err != nil {
		return nil, err
	}

	for i := range records {
		if err := s.EncodeRow(&records[i]); err != nil {
			cfg.Metrics.Failed(errorClass(err))
			return nil, err
		}
		cfg.Metrics.Encoded()
	}
	return s, nil
}
