// Package utils provides common utility functions used throughout the migen codebase.
//
// # Identifier Utilities (identifier.go)
//
// The identifier utilities provide consistent handling of PostgreSQL identifiers.
// Identifiers are only quoted when required (mixed case, special characters or
// reserved words) so that generated DDL stays readable:
//
//	utils.QuoteIdentifier("book")       // book
//	utils.QuoteIdentifier("order")      // "order"
//	utils.QuoteIdentifier("BookTitle")  // "BookTitle"
//
// # Naming Utilities (naming.go)
//
// The naming utilities derive table and column names from entity and field
// names:
//
//	utils.SnakeCase("BookAuthor")   // book_author
//	utils.Singular("categories")    // category
//	utils.JoinColumnName("author")  // author_id
package utils
