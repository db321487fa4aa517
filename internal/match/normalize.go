package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const byteOrderMark = "\uFEFF"

// NormalizeHeader turns a column header into a key for loose matching.
// The normalization pipeline:
// 1. Strip a leading byte order mark and surrounding space.
// 2. Compose to NFC so "é" typed two ways compares equal.
// 3. Tokenize CamelCase.
// 4. Case-fold (Unicode aware, not just ASCII).
// 5. Strip separators (_, -, ., spaces).
func NormalizeHeader(s string) string {
	s = strings.TrimPrefix(s, byteOrderMark)
	s = strings.TrimSpace(s)
	s = norm.NFC.String(s)

	joined := strings.Join(tokenizeCamelCase(s), "")

	return stripSeparators(cases.Fold().String(joined))
}

// CleanHeader strips what a spreadsheet export tends to add around a header
// (byte order mark, padding) but keeps case and separators.
func CleanHeader(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(s, byteOrderMark))
}

// TokenizeHeader splits a header into folded tokens.
func TokenizeHeader(s string) []string {
	tokens := tokenizeCamelCase(norm.NFC.String(CleanHeader(s)))
	for i, t := range tokens {
		tokens[i] = cases.Fold().String(t)
	}

	return tokens
}

// tokenizeCamelCase splits on separators and on case transitions.
// Examples:
//   - "LongHair" -> ["Long", "Hair"]
//   - "Long Hair" -> ["Long", "Hair"]
//   - "HTTPStatus" -> ["HTTP", "Status"]
func tokenizeCamelCase(s string) []string {
	if s == "" {
		return nil
	}

	var (
		tokens  []string
		current strings.Builder
	)

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		if isSeparator(r) {
			flush()

			continue
		}

		if i > 0 && startsToken(runes, i) {
			flush()
		}

		current.WriteRune(r)
	}

	flush()

	return tokens
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == '.' || unicode.IsSpace(r)
}

func startsToken(runes []rune, i int) bool {
	r, prev := runes[i], runes[i-1]
	if !unicode.IsUpper(r) || isSeparator(prev) {
		return false
	}

	// "longHair": lower to upper
	if !unicode.IsUpper(prev) {
		return true
	}

	// "HTTPStatus": last capital of an acronym followed by lower case
	return i+1 < len(runes) && unicode.IsLower(runes[i+1])
}

func stripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		if isSeparator(r) {
			return -1
		}
		return r
	}, s)
}
