package match

// Levenshtein computes the edit distance between a and b counted in runes,
// so a header with accented characters costs one edit per character.
//
// Time complexity: O(len(a) * len(b))
// Space complexity: O(min(len(a), len(b))).
func Levenshtein(a, b string) int {
	if a == b {
		return 0
	}

	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}

	if len(ra) == 0 {
		return len(rb)
	}

	prev := make([]int, len(ra)+1)
	curr := make([]int, len(ra)+1)

	for i := range prev {
		prev[i] = i
	}

	for j := 1; j <= len(rb); j++ {
		curr[0] = j

		for i := 1; i <= len(ra); i++ {
			substitution := prev[i-1]
			if ra[i-1] != rb[j-1] {
				substitution++
			}

			curr[i] = min(prev[i]+1, curr[i-1]+1, substitution)
		}

		prev, curr = curr, prev
	}

	return prev[len(ra)]
}

// Similarity is 1 - distance/longest, so 1.0 means identical and 0.0 means
// nothing in common.
func Similarity(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 && lb == 0 {
		return 1.0
	}

	return 1.0 - float64(Levenshtein(a, b))/float64(max(la, lb))
}

// HeaderSimilarity compares two headers after NormalizeHeader.
func HeaderSimilarity(a, b string) float64 {
	return Similarity(NormalizeHeader(a), NormalizeHeader(b))
}
