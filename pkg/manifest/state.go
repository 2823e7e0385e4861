package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// ArtifactKind identifies the kind of DDL artifact a record describes.
type ArtifactKind string

const (
	KindSequence          ArtifactKind = "sequence"
	KindTableGenerator    ArtifactKind = "table_generator"
	KindTable             ArtifactKind = "table"
	KindElementCollection ArtifactKind = "element_collection"
	KindJoinTable         ArtifactKind = "join_table"
)

type (
	// MigrationState is the persisted root of the manifest.
	MigrationState struct {
		// LastVersion is the version of the last migration file actually written.
		LastVersion int `yaml:"lastVersion"`

		// Session identifies the session that last saved the state.
		Session string `yaml:"session,omitempty"`

		// UpdatedAt is when the state was last saved.
		UpdatedAt time.Time `yaml:"updatedAt,omitempty"`

		Entities     []*EntityState       `yaml:"entities"`
		DDLArtifacts []*DdlArtifactRecord `yaml:"ddlArtifacts"`
	}

	// EntityState is the last known shape of a table.
	EntityState struct {
		Table       string        `yaml:"table"`
		Columns     []ColumnState `yaml:"columns"`
		ForeignKeys []FkState     `yaml:"foreignKeys,omitempty"`
		Joins       []JoinState   `yaml:"joins,omitempty"`
	}

	// ColumnState is a column as it was last emitted.
	ColumnState struct {
		Name     string `yaml:"name"`
		Type     string `yaml:"type"`
		Nullable bool   `yaml:"nullable"`
		Unique   bool   `yaml:"unique,omitempty"`
	}

	// FkState is an emitted foreign key. The whole triple is its identity.
	FkState struct {
		Column           string `yaml:"column"`
		ReferencedTable  string `yaml:"referencedTable"`
		ReferencedColumn string `yaml:"referencedColumn"`
	}

	// JoinState records a join table created on behalf of an entity.
	JoinState struct {
		Table string `yaml:"table"`
	}

	// DdlArtifactRecord records a non-entity DDL artifact for idempotence checks.
	// Its identity is (Kind, Owner, Suffix, Hash).
	DdlArtifactRecord struct {
		Kind   ArtifactKind `yaml:"kind"`
		Owner  string       `yaml:"owner"`
		Suffix string       `yaml:"suffix"`
		Hash   string       `yaml:"hash"`
	}
)

// Empty returns an initial state whose last version is baseline.
func Empty(baseline int) *MigrationState {
	return &MigrationState{LastVersion: baseline}
}

// Entity returns the state recorded for table, or nil.
func (s *MigrationState) Entity(table string) *EntityState {
	for _, e := range s.Entities {
		if e.Table == table {
			return e
		}
	}

	return nil
}

// Clone returns a deep copy of the state.
func (s *MigrationState) Clone() *MigrationState {
	out := &MigrationState{
		LastVersion:  s.LastVersion,
		Session:      s.Session,
		UpdatedAt:    s.UpdatedAt,
		Entities:     make([]*EntityState, 0, len(s.Entities)),
		DDLArtifacts: make([]*DdlArtifactRecord, 0, len(s.DDLArtifacts)),
	}

	for _, e := range s.Entities {
		out.Entities = append(out.Entities, e.clone())
	}
	for _, a := range s.DDLArtifacts {
		rec := *a
		out.DDLArtifacts = append(out.DDLArtifacts, &rec)
	}

	return out
}

func (e *EntityState) clone() *EntityState {
	return &EntityState{
		Table:       e.Table,
		Columns:     append([]ColumnState(nil), e.Columns...),
		ForeignKeys: append([]FkState(nil), e.ForeignKeys...),
		Joins:       append([]JoinState(nil), e.Joins...),
	}
}

// HasJoin reports whether the entity recorded the join table.
func (e *EntityState) HasJoin(table string) bool {
	for _, j := range e.Joins {
		if j.Table == table {
			return true
		}
	}

	return false
}

// ContentHash returns the identity hash stored for rendered DDL content.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return "sha256:" + hex.EncodeToString(sum[:])
}
