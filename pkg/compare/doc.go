// Package compare provides generic comparison utilities for slices.
//
// The schema differ and the migration synthesizer compare recorded state
// against desired state:
//
//	// unordered equality
//	compare.SlicesUnordered(a, b, func(x, y Column) bool { return x == y })
//
//	// set difference, order of the first slice preserved
//	compare.Subtract(desired, recorded)
package compare
