// Package render renders PostgreSQL DDL from the contexts built by the
// schema package.
//
// Templates are embedded in the binary and addressed by id (Sequence,
// CreateTable, AlterTable, ...). Callers depend on the Renderer interface so
// tests can substitute their own implementation.
package render
