// Package match provides header name normalization and fuzzy suggestions.
//
// Key functions:
//   - NormalizeHeader: folds a column header into a comparison key
//   - Levenshtein: computes rune-wise edit distance between strings
//   - Suggest: picks the closest known name for an unexpected header
package match
