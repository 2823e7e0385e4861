package utils

import (
	"regexp"
	"strings"

	"github.com/lib/pq"
)

var (
	plainIdentifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

	// Only reserved words that are likely to show up as table or column names.
	reservedWords = map[string]struct{}{
		"all": {}, "and": {}, "any": {}, "as": {}, "asc": {}, "case": {}, "check": {},
		"column": {}, "constraint": {}, "create": {}, "default": {}, "desc": {},
		"distinct": {}, "do": {}, "else": {}, "end": {}, "false": {}, "for": {},
		"foreign": {}, "from": {}, "grant": {}, "group": {}, "having": {}, "in": {},
		"limit": {}, "not": {}, "null": {}, "offset": {}, "on": {}, "only": {},
		"or": {}, "order": {}, "primary": {}, "references": {}, "select": {},
		"table": {}, "then": {}, "to": {}, "true": {}, "union": {}, "unique": {},
		"user": {}, "using": {}, "when": {}, "where": {}, "window": {}, "with": {},
	}
)

// QuoteIdentifier returns a PostgreSQL identifier, double-quoted only when it
// has to be.
//
// Examples:
//   - "book" -> book
//   - "order" -> "order" (reserved word)
//   - "BookTitle" -> "BookTitle" (mixed case)
//   - "public.book" -> public.book
//   - "" -> ""
func QuoteIdentifier(name string) string {
	if name == "" {
		return ""
	}

	parts := strings.Split(name, ".")
	for i, part := range parts {
		if IsQuoted(part) {
			continue
		}

		if NeedsQuoting(part) {
			parts[i] = pq.QuoteIdentifier(part)
		}
	}

	return strings.Join(parts, ".")
}

// NeedsQuoting reports whether a single identifier part must be double-quoted.
func NeedsQuoting(part string) bool {
	if !plainIdentifier.MatchString(part) {
		return true
	}

	_, reserved := reservedWords[part]
	return reserved
}

// IsQuoted checks if a string is already wrapped in double quotes.
//
// Examples:
//   - `"table"` -> true
//   - "table" -> false
//   - "" -> false
func IsQuoted(s string) bool {
	return len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"'
}
