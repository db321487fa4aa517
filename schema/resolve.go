package schema

import (
	"fmt"

	"tabcodec/internal/diagnostic"
	"tabcodec/internal/match"
)

// Policy controls how strictly a physical header must match the schema.
type Policy struct {
	// TolerateExtra accepts physical columns no field claims. They are dropped
	// on decode and kept blank on encode.
	TolerateExtra bool
	// TolerateMissing lets encode drop fields the target header lacks.
	TolerateMissing bool
	// Loose matches headers after match.NormalizeHeader instead of exactly.
	Loose bool
}

// ColumnError reports a header problem together with a suggested field name.
type ColumnError struct {
	Column     string
	Index      int
	Suggestion string
	Err        error
}

func (e *ColumnError) Error() string {
	msg := fmt.Sprintf("%v: %q at column %d", e.Err, e.Column, e.Index+1)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

func (e *ColumnError) Unwrap() error { return e.Err }

// Resolution is the outcome of matching a schema against a header.
type Resolution struct {
	Mapping ColumnMapping
	// Header is the physical header rows are read from or written to.
	Header []string
	// Unmapped lists physical columns no field maps to.
	Unmapped    []int
	Diagnostics diagnostic.Diagnostics
}

// headerIndex finds columns by name, exactly or loosely.
type headerIndex struct {
	exact map[string]int
	loose match.Index
	use   bool
}

func newHeaderIndex(header []string, p Policy) (headerIndex, error) {
	hi := headerIndex{exact: make(map[string]int, len(header)), use: p.Loose}
	for i, h := range header {
		if _, dup := hi.exact[h]; dup {
			return hi, &ColumnError{Column: h, Index: i, Err: ErrDuplicateColumn}
		}
		hi.exact[h] = i
	}
	if p.Loose {
		var collisions [][2]string
		hi.loose, collisions = match.NewIndex(header)
		if len(collisions) > 0 {
			return hi, &ColumnError{Column: collisions[0][1], Index: hi.exact[collisions[0][1]],
				Suggestion: collisions[0][0], Err: ErrDuplicateColumn}
		}
	}
	return hi, nil
}

func (hi headerIndex) lookup(name string) (int, bool) {
	if i, ok := hi.exact[name]; ok {
		return i, true
	}
	if hi.use {
		return hi.loose.Lookup(name)
	}
	return Absent, false
}

// Resolve computes the decode mapping for s.
//
//   - physical == nil and declared == nil: Identity over the schema's names.
//   - physical == nil and declared != nil: declared names the physical columns.
//   - otherwise each field is looked up by name in the physical header.
//
// Physical columns missing from the declared order (the schema's names when
// declared is nil) are ErrUnexpectedColumn unless p.TolerateExtra is set.
// Fields without a column are reported as diagnostics only; the decoder
// decides per row whether absence is acceptable.
func Resolve(s *Schema, physical, declared []string, p Policy) (*Resolution, error) {
	if physical == nil && declared == nil {
		return &Resolution{Mapping: Identity(), Header: s.Names()}, nil
	}
	if physical == nil {
		physical = declared
	}

	order := declared
	if order == nil {
		order = s.Names()
	}

	hi, err := newHeaderIndex(physical, p)
	if err != nil {
		return nil, err
	}

	res := &Resolution{Header: physical}

	declaredIdx, err := newHeaderIndex(order, Policy{Loose: p.Loose})
	if err != nil {
		return nil, err
	}
	for i, h := range physical {
		if _, ok := declaredIdx.lookup(h); ok {
			continue
		}
		if !p.TolerateExtra {
			suggestion, _ := match.Suggest(h, order, match.DefaultThreshold)
			return nil, &ColumnError{Column: h, Index: i, Suggestion: suggestion, Err: ErrUnexpectedColumn}
		}
		res.Unmapped = append(res.Unmapped, i)
		res.Diagnostics.AddWarning(diagnostic.CodeExtraColumn, "column is not mapped to any field", "", h)
	}

	perm := make([]int, s.Len())
	identity := len(physical) == s.Len()
	for pos, f := range s.Fields() {
		col, ok := hi.lookup(f.Name)
		if !ok {
			perm[pos] = Absent
			identity = false
			if f.Nilable {
				res.Diagnostics.AddInfo(diagnostic.CodeMissingColumn, "nilable field has no column", f.Name, "")
			} else {
				res.Diagnostics.AddWarning(diagnostic.CodeMissingColumn, "required field has no column", f.Name, "")
			}
			continue
		}
		if physical[col] != f.Name {
			res.Diagnostics.AddInfo(diagnostic.CodeLooseMatch, "matched after normalization", f.Name, physical[col])
		}
		perm[pos] = col
		identity = identity && col == pos
	}

	if identity {
		res.Mapping = Identity()
	} else {
		res.Mapping = Permutation(perm)
	}
	return res, nil
}

// ResolveNames builds a NameMap straight from a physical header, for callers
// that skip introspection.
func ResolveNames(physical []string, p Policy) (*Resolution, error) {
	hi, err := newHeaderIndex(physical, Policy{})
	if err != nil {
		return nil, err
	}
	names := make(map[string]int, len(physical))
	for i, h := range physical {
		names[h] = i
		if p.Loose {
			if key := match.NormalizeHeader(h); key != h {
				if _, taken := hi.exact[key]; !taken {
					names[key] = i
				}
			}
		}
	}
	mapping := NameMap(names)
	if p.Loose {
		mapping = LooseNameMap(names)
	}
	return &Resolution{Mapping: mapping, Header: physical}, nil
}

// ResolveEncode computes where each field is written. target is the override
// header, or nil for the schema's own order. Target columns no field maps to
// stay blank. A field the target lacks is ErrMissingColumn unless
// p.TolerateMissing is set, in which case it is dropped.
func ResolveEncode(s *Schema, target []string, p Policy) (*Resolution, error) {
	if target == nil {
		return &Resolution{Mapping: Identity(), Header: s.Names()}, nil
	}

	hi, err := newHeaderIndex(target, p)
	if err != nil {
		return nil, err
	}

	res := &Resolution{Header: target}
	claimed := make([]bool, len(target))
	perm := make([]int, s.Len())
	for pos, f := range s.Fields() {
		col, ok := hi.lookup(f.Name)
		if !ok {
			if !p.TolerateMissing {
				return nil, &ColumnError{Column: f.Name, Index: pos, Err: ErrMissingColumn}
			}
			perm[pos] = Absent
			res.Diagnostics.AddWarning(diagnostic.CodeMissingColumn, "field dropped, target header has no column", f.Name, "")
			continue
		}
		perm[pos] = col
		claimed[col] = true
	}

	for i, ok := range claimed {
		if !ok {
			res.Unmapped = append(res.Unmapped, i)
			res.Diagnostics.AddInfo(diagnostic.CodeExtraColumn, "column left blank", "", target[i])
		}
	}

	res.Mapping = Permutation(perm)
	return res, nil
}
