package configorm

import (
	"strings"
	"unicode"
)

// isValidIdentifier checks a section identifier: a letter or underscore
// followed by letters, digits or underscores.
func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !(isLetter || r == '_' || (isDigit && i > 0)) {
			return false
		}
	}
	return true
}

// isValidFieldName checks a field name. Names are used as store keys and as
// part of environment variable names, so they follow the identifier rules.
func isValidFieldName(s string) bool {
	return isValidIdentifier(s)
}

// toSnakeCase converts a Go field name to snake_case ("MaxConns" -> "max_conns",
// "HTTPPort" -> "http_port").
func toSnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)

	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
