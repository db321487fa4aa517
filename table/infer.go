package table

import (
	"strconv"
	"strings"

	"tabcodec/primitive"
)

// InferKinds guesses a kind per column from rows. Nil cells are ignored; a
// column with no non-nil cell is KindString. The most specific kind every
// cell parses as wins: Int64, then Bool, then Float64, then String.
func InferKinds(rows [][]string, width int, sp primitive.Spellings) []primitive.Kind {
	out := make([]primitive.Kind, width)
	for col := range out {
		out[col] = inferColumn(rows, col, sp)
	}
	return out
}

func inferColumn(rows [][]string, col int, sp primitive.Spellings) primitive.Kind {
	var seen bool
	allInt := true
	allBool := true
	allFloat := true

	for _, r := range rows {
		if col >= len(r) || sp.IsNil(r[col]) {
			continue
		}
		v := strings.TrimSpace(r[col])
		seen = true

		if allInt {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				allInt = false
			}
		}
		if allBool {
			if _, ok := sp.ParseBool(v); !ok {
				allBool = false
			}
		}
		if allFloat {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				allFloat = false
			}
		}
		if !allInt && !allBool && !allFloat {
			break
		}
	}

	switch {
	case !seen:
		return primitive.KindString
	case allInt:
		return primitive.KindInt64
	case allBool:
		return primitive.KindBool
	case allFloat:
		return primitive.KindFloat64
	default:
		return primitive.KindString
	}
}
