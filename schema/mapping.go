package schema

import (
	"fmt"
	"maps"
	"slices"

	"tabcodec/internal/match"
)

//go:generate go tool stringer -type=MappingKind -trimprefix=Mapping -output=mappingkind_string.go

// MappingKind tells how a ColumnMapping resolves a field to a column.
type MappingKind int

const (
	// MappingIdentity maps field i to column i.
	MappingIdentity MappingKind = iota
	// MappingPermutation maps field i to perm[i]; -1 means absent.
	MappingPermutation
	// MappingNameMap maps a field name straight to a column.
	MappingNameMap
)

// Absent marks a field with no physical column in a permutation.
const Absent = -1

// ColumnMapping translates a field's declared position (or name) into a
// physical column index. It is computed once per session and never mutated.
type ColumnMapping struct {
	kind  MappingKind
	perm  []int
	names map[string]int
	// loose also looks names up in normalized form.
	loose bool
}

// Identity returns the field i ↔ column i mapping.
func Identity() ColumnMapping {
	return ColumnMapping{kind: MappingIdentity}
}

// Permutation returns a mapping from field position to perm[position].
func Permutation(perm []int) ColumnMapping {
	return ColumnMapping{kind: MappingPermutation, perm: slices.Clone(perm)}
}

// NameMap returns a mapping keyed by field name.
func NameMap(names map[string]int) ColumnMapping {
	return ColumnMapping{kind: MappingNameMap, names: maps.Clone(names)}
}

// LooseNameMap is NameMap with a fallback to the normalized field name, for
// headers matched through match.NormalizeHeader.
func LooseNameMap(names map[string]int) ColumnMapping {
	m := NameMap(names)
	m.loose = true
	return m
}

func (m ColumnMapping) Kind() MappingKind { return m.kind }

// Column returns the physical column of the field at pos called name.
// ok is false when the field has no column in the source.
func (m ColumnMapping) Column(pos int, name string) (col int, ok bool) {
	switch m.kind {
	case MappingIdentity:
		return pos, pos >= 0
	case MappingPermutation:
		if pos < 0 || pos >= len(m.perm) || m.perm[pos] == Absent {
			return Absent, false
		}
		return m.perm[pos], true
	case MappingNameMap:
		col, ok := m.names[name]
		if !ok && m.loose {
			col, ok = m.names[match.NormalizeHeader(name)]
		}
		if !ok {
			return Absent, false
		}
		return col, true
	default:
		return Absent, false
	}
}

// Perm returns a copy of the permutation, nil for other kinds.
func (m ColumnMapping) Perm() []int {
	return slices.Clone(m.perm)
}

func (m ColumnMapping) String() string {
	switch m.kind {
	case MappingPermutation:
		return fmt.Sprintf("%s%v", m.kind, m.perm)
	case MappingNameMap:
		return fmt.Sprintf("%s%v", m.kind, m.names)
	default:
		return m.kind.String()
	}
}
