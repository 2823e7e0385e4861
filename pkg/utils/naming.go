package utils

import (
	"strings"

	"github.com/go-openapi/inflect"
)

// SnakeCase converts an entity or field name into the lower snake case form
// used for table and column names.
//
// Examples:
//   - "Book" -> "book"
//   - "BookAuthor" -> "book_author"
//   - "publishedAt" -> "published_at"
func SnakeCase(name string) string {
	return strings.ToLower(inflect.Underscore(strings.TrimSpace(name)))
}

// Singular returns the singular snake case form of a name.
//
// Examples:
//   - "tags" -> "tag"
//   - "Categories" -> "category"
func Singular(name string) string {
	return SnakeCase(inflect.Singularize(name))
}

// JoinColumnName returns the foreign key column name for a reference called
// name, e.g. "author" -> "author_id".
func JoinColumnName(name string) string {
	return SnakeCase(name) + "_id"
}
