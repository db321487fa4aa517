package match

import "sort"

// DefaultThreshold is the minimum HeaderSimilarity for a suggestion.
const DefaultThreshold = 0.6

// Candidate is a known name scored against an unknown one.
type Candidate struct {
	Name  string
	Score float64
}

// Rank scores every known name against name, best first. Ties keep the order
// of known.
func Rank(name string, known []string) []Candidate {
	out := make([]Candidate, 0, len(known))
	for _, k := range known {
		out = append(out, Candidate{Name: k, Score: HeaderSimilarity(name, k)})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	return out
}

// Suggest returns the closest known name if it scores at least threshold.
func Suggest(name string, known []string, threshold float64) (string, bool) {
	ranked := Rank(name, known)
	if len(ranked) == 0 || ranked[0].Score < threshold {
		return "", false
	}

	return ranked[0].Name, true
}

// Index maps normalized headers to their position. Two headers that normalize
// to the same key are reported as a collision.
type Index struct {
	keys map[string]int
}

// NewIndex builds an Index over headers. collisions lists header pairs that
// normalize to the same key; the first occurrence wins.
func NewIndex(headers []string) (idx Index, collisions [][2]string) {
	idx.keys = make(map[string]int, len(headers))
	for i, h := range headers {
		key := NormalizeHeader(h)
		if prev, dup := idx.keys[key]; dup {
			collisions = append(collisions, [2]string{headers[prev], h})
			continue
		}
		idx.keys[key] = i
	}

	return idx, collisions
}

// Lookup returns the position of the header that normalizes like name.
func (idx Index) Lookup(name string) (int, bool) {
	i, ok := idx.keys[NormalizeHeader(name)]
	return i, ok
}
