// Package keys normalizes section and attribute names for store lookups.
package keys

import "strings"

// Normalize folds a section or attribute name to its lookup form: trimmed,
// lower-cased, with spaces treated as underscores.
func Normalize(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
}

// Equal reports whether two names refer to the same key.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
