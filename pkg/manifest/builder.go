package manifest

import (
	"github.com/pkg/errors"
)

type (
	// Creation describes a DDL artifact emitted during the current session.
	Creation struct {
		Kind ArtifactKind

		// Columns and ForeignKeys describe tables (KindTable, KindElementCollection).
		Columns     []ColumnState
		ForeignKeys []FkState

		// Content is the rendered DDL; only its hash is recorded.
		Content string
	}

	// Builder is the in-session projection of the manifest. It is seeded from
	// the persisted state and records every artifact created during the
	// session so that entities processed later see what earlier ones created.
	Builder struct {
		state *MigrationState
		built bool
	}
)

// NewBuilder wraps a copy of state.
func NewBuilder(state *MigrationState) *Builder {
	if state == nil {
		state = Empty(0)
	}

	return &Builder{state: state.Clone()}
}

// HasEntity reports whether a table is recorded.
func (b *Builder) HasEntity(table string) bool {
	return b.state.Entity(table) != nil
}

// Entity returns the recorded state of table, or nil.
func (b *Builder) Entity(table string) *EntityState {
	return b.state.Entity(table)
}

// HasJoin reports whether any entity recorded the join table. Join tables
// are shared between both sides of a relation, so every entity is checked.
func (b *Builder) HasJoin(table string) bool {
	for _, e := range b.state.Entities {
		if e.HasJoin(table) {
			return true
		}
	}

	return false
}

// HasArtifact reports whether an identical artifact was already produced,
// either by a previous session or earlier in this one.
func (b *Builder) HasArtifact(kind ArtifactKind, owner, suffix, content string) bool {
	rec := b.FindArtifact(kind, owner, suffix)
	return rec != nil && rec.Hash == ContentHash(content)
}

// FindArtifact returns the record with the given kind, owner and suffix
// regardless of its content, or nil.
func (b *Builder) FindArtifact(kind ArtifactKind, owner, suffix string) *DdlArtifactRecord {
	for _, a := range b.state.DDLArtifacts {
		if a.Kind == kind && a.Owner == owner && a.Suffix == suffix {
			return a
		}
	}

	return nil
}

// ApplyCreate records an artifact created for owner. The owner is the table
// of the entity being processed; name is the created object (table, join
// table, sequence, generator table).
//
// Recording rules:
//   - KindTable adds an EntityState for name
//   - KindElementCollection adds an EntityState for name and an artifact record
//   - KindJoinTable adds name to the owner's joins
//   - KindSequence and KindTableGenerator add an artifact record
func (b *Builder) ApplyCreate(owner, name string, c Creation) error {
	if b.built {
		return errors.New("manifest builder already built")
	}

	switch c.Kind {
	case KindTable:
		b.putEntity(&EntityState{
			Table:       name,
			Columns:     append([]ColumnState(nil), c.Columns...),
			ForeignKeys: append([]FkState(nil), c.ForeignKeys...),
		})
	case KindElementCollection:
		b.putEntity(&EntityState{
			Table:       name,
			Columns:     append([]ColumnState(nil), c.Columns...),
			ForeignKeys: append([]FkState(nil), c.ForeignKeys...),
		})
		b.putArtifact(c.Kind, owner, name, c.Content)
	case KindJoinTable:
		e := b.state.Entity(owner)
		if e == nil {
			return errors.Errorf("join table %s: owner %s is not recorded", name, owner)
		}
		if !e.HasJoin(name) {
			e.Joins = append(e.Joins, JoinState{Table: name})
		}
	case KindSequence, KindTableGenerator:
		b.putArtifact(c.Kind, owner, name, c.Content)
	default:
		return errors.Errorf("unknown artifact kind: %s", c.Kind)
	}

	return nil
}

// ApplyAlter records the outcome of an alter script for table: its columns
// are replaced (when columns is non-nil) and the new foreign keys appended.
// Recorded foreign keys on columns that no longer exist are forgotten.
func (b *Builder) ApplyAlter(table string, columns []ColumnState, newFKs []FkState) error {
	if b.built {
		return errors.New("manifest builder already built")
	}

	e := b.state.Entity(table)
	if e == nil {
		return errors.Errorf("cannot alter unrecorded table: %s", table)
	}

	if columns != nil {
		e.Columns = append([]ColumnState(nil), columns...)

		// dropped columns take their foreign keys with them
		kept := e.ForeignKeys[:0]
		for _, fk := range e.ForeignKeys {
			if hasColumn(e.Columns, fk.Column) {
				kept = append(kept, fk)
			}
		}
		e.ForeignKeys = kept
	}
	e.ForeignKeys = append(e.ForeignKeys, newFKs...)

	return nil
}

// Build finalizes the session state. It may only be called once.
func (b *Builder) Build() (*MigrationState, error) {
	if b.built {
		return nil, errors.New("manifest builder already built")
	}

	b.built = true
	return b.state, nil
}

func (b *Builder) putEntity(e *EntityState) {
	for i, existing := range b.state.Entities {
		if existing.Table == e.Table {
			e.Joins = existing.Joins
			b.state.Entities[i] = e
			return
		}
	}

	b.state.Entities = append(b.state.Entities, e)
}

func (b *Builder) putArtifact(kind ArtifactKind, owner, suffix, content string) {
	hash := ContentHash(content)
	if rec := b.FindArtifact(kind, owner, suffix); rec != nil {
		rec.Hash = hash
		return
	}

	b.state.DDLArtifacts = append(b.state.DDLArtifacts, &DdlArtifactRecord{
		Kind:   kind,
		Owner:  owner,
		Suffix: suffix,
		Hash:   hash,
	})
}

func hasColumn(cols []ColumnState, name string) bool {
	for _, c := range cols {
		if c.Name == name {
			return true
		}
	}

	return false
}
