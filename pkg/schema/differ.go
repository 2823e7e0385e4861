package schema

import (
	"github.com/pseudomuto/migen/pkg/compare"
	"github.com/pseudomuto/migen/pkg/manifest"
)

type (
	// Differ compares the recorded shape of a table with its desired columns.
	Differ interface {
		Diff(existing *manifest.EntityState, desired []manifest.ColumnState) *DiffResult
	}

	// ColumnDiffer is the default Differ. Columns are matched by name.
	ColumnDiffer struct{}

	// DiffResult describes the structural changes to a table.
	DiffResult struct {
		Table    string
		Added    []manifest.ColumnState
		Removed  []manifest.ColumnState
		Modified []ColumnChange
	}

	// ColumnChange is a column whose definition changed.
	ColumnChange struct {
		From manifest.ColumnState
		To   manifest.ColumnState
	}
)

// NewDiffer returns the default Differ.
func NewDiffer() *ColumnDiffer {
	return &ColumnDiffer{}
}

// Diff reports added, removed and modified columns. Added and modified
// columns keep the desired order, removed columns keep the recorded order.
func (d *ColumnDiffer) Diff(existing *manifest.EntityState, desired []manifest.ColumnState) *DiffResult {
	res := &DiffResult{}
	if existing == nil {
		res.Added = append(res.Added, desired...)
		return res
	}

	res.Table = existing.Table
	if compare.SlicesUnordered(existing.Columns, desired, sameColumn) {
		return res
	}

	current := make(map[string]manifest.ColumnState, len(existing.Columns))
	for _, c := range existing.Columns {
		current[c.Name] = c
	}

	wanted := make(map[string]struct{}, len(desired))
	for _, c := range desired {
		wanted[c.Name] = struct{}{}

		prev, ok := current[c.Name]
		switch {
		case !ok:
			res.Added = append(res.Added, c)
		case prev != c:
			res.Modified = append(res.Modified, ColumnChange{From: prev, To: c})
		}
	}

	for _, c := range existing.Columns {
		if _, ok := wanted[c.Name]; !ok {
			res.Removed = append(res.Removed, c)
		}
	}

	return res
}

// IsEmpty reports whether the table is unchanged.
func (r *DiffResult) IsEmpty() bool {
	return r == nil || (len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Modified) == 0)
}

// TypeChanged reports whether the SQL type changed.
func (c ColumnChange) TypeChanged() bool {
	return c.From.Type != c.To.Type
}

// NullabilityChanged reports whether the column became nullable or not null.
func (c ColumnChange) NullabilityChanged() bool {
	return c.From.Nullable != c.To.Nullable
}

// UniquenessChanged reports whether a unique constraint was added or dropped.
func (c ColumnChange) UniquenessChanged() bool {
	return c.From.Unique != c.To.Unique
}

func sameColumn(a, b manifest.ColumnState) bool {
	return a == b
}
