package entity

import (
	"github.com/pseudomuto/migen/pkg/utils"
)

// Generation is the identifier generation strategy of an ID field.
type Generation string

// RelationKind is the cardinality of a relation.
type RelationKind string

const (
	GenerationNone     Generation = "none"
	GenerationAuto     Generation = "auto"
	GenerationSequence Generation = "sequence"
	GenerationTable    Generation = "table"
	GenerationIdentity Generation = "identity"
	GenerationUUID     Generation = "uuid"

	ManyToOne  RelationKind = "many-to-one"
	OneToOne   RelationKind = "one-to-one"
	OneToMany  RelationKind = "one-to-many"
	ManyToMany RelationKind = "many-to-many"

	// DefaultAllocationSize is the sequence increment used when none is given.
	DefaultAllocationSize = 50
)

type (
	// Entity describes a persistent type and the table that stores it.
	Entity struct {
		// Name is the entity name used by relations to reference it (e.g. "Book").
		Name string `yaml:"name"`

		// Table is the table name. Defaults to the snake case entity name.
		Table string `yaml:"table,omitempty"`

		// Embeddable entities have no table. Their fields are flattened into the
		// tables of the entities that embed them.
		Embeddable bool `yaml:"embeddable,omitempty"`

		// Fields in declaration order.
		Fields []*Field `yaml:"fields,omitempty"`

		// Relations to other entities.
		Relations []*Relation `yaml:"relations,omitempty"`
	}

	// Field describes a single attribute of an entity.
	Field struct {
		Name   string `yaml:"name"`
		Column string `yaml:"column,omitempty"`

		// RawType is the type expression as written in the descriptor.
		RawType string `yaml:"type,omitempty"`

		// Type is the parsed form of RawType, populated by Normalize.
		Type *TypeExpr `yaml:"-"`

		ID             bool       `yaml:"id,omitempty"`
		Generation     Generation `yaml:"generation,omitempty"`
		AllocationSize int        `yaml:"allocationSize,omitempty"`

		Required  bool `yaml:"required,omitempty"`
		Unique    bool `yaml:"unique,omitempty"`
		Length    int  `yaml:"length,omitempty"`
		Precision int  `yaml:"precision,omitempty"`
		Scale     int  `yaml:"scale,omitempty"`

		// Embedded names an embeddable entity whose fields are flattened into
		// this table, prefixed with the column name.
		Embedded string `yaml:"embedded,omitempty"`

		// JSON names an entity stored as a JSON document in a single column.
		JSON string `yaml:"json,omitempty"`
	}

	// Relation describes an association to another entity.
	Relation struct {
		Name       string       `yaml:"name"`
		Kind       RelationKind `yaml:"kind"`
		Target     string       `yaml:"target"`
		MappedBy   string       `yaml:"mappedBy,omitempty"`
		JoinTable  string       `yaml:"joinTable,omitempty"`
		JoinColumn string       `yaml:"joinColumn,omitempty"`
		Required   bool         `yaml:"required,omitempty"`
	}
)

// TableName returns the table for the entity.
func (e *Entity) TableName() string {
	if e.Table != "" {
		return e.Table
	}

	return utils.SnakeCase(e.Name)
}

// IDField returns the identifier field. Normalize guarantees every
// non-embeddable entity has one.
func (e *Entity) IDField() *Field {
	for _, f := range e.Fields {
		if f.ID {
			return f
		}
	}

	return nil
}

// Generation returns the identifier generation strategy, or GenerationNone
// when the entity has no identifier.
func (e *Entity) Generation() Generation {
	id := e.IDField()
	if id == nil || id.Generation == "" {
		return GenerationNone
	}

	return id.Generation
}

// UsesSequence reports whether the identifier is backed by a database sequence.
func (e *Entity) UsesSequence() bool {
	g := e.Generation()
	return g == GenerationAuto || g == GenerationSequence
}

// UsesTableGenerator reports whether the identifier is backed by a table generator.
func (e *Entity) UsesTableGenerator() bool {
	return e.Generation() == GenerationTable
}

// CollectionFields returns the simple-collection fields of the entity.
func (e *Entity) CollectionFields() []*Field {
	var fields []*Field
	for _, f := range e.Fields {
		if f.IsCollection() {
			fields = append(fields, f)
		}
	}

	return fields
}

// Relation returns the relation with the given name, or nil.
func (e *Entity) Relation(name string) *Relation {
	for _, r := range e.Relations {
		if r.Name == name {
			return r
		}
	}

	return nil
}

// ColumnName returns the column for the field.
func (f *Field) ColumnName() string {
	if f.Column != "" {
		return f.Column
	}

	return utils.SnakeCase(f.Name)
}

// IsCollection reports whether the field is a simple collection.
func (f *Field) IsCollection() bool {
	return f.Type != nil && f.Type.IsCollection()
}

// Owning reports whether the relation stores a foreign key column in the
// declaring entity's table.
func (r *Relation) Owning() bool {
	switch r.Kind {
	case ManyToOne:
		return true
	case OneToOne:
		return r.MappedBy == ""
	default:
		return false
	}
}

// ColumnName returns the foreign key column of an owning relation.
func (r *Relation) ColumnName() string {
	if r.JoinColumn != "" {
		return r.JoinColumn
	}

	return utils.JoinColumnName(r.Name)
}

// Index maps entity names to their descriptors.
type Index map[string]*Entity

// NewIndex builds an Index over entities.
func NewIndex(entities []*Entity) Index {
	idx := make(Index, len(entities))
	for _, e := range entities {
		idx[e.Name] = e
	}

	return idx
}
