package schema

import (
	"github.com/pkg/errors"
	"github.com/pseudomuto/migen/pkg/entity"
	"github.com/pseudomuto/migen/pkg/manifest"
	"github.com/pseudomuto/migen/pkg/utils"
)

type (
	// ImpliedColumn is a foreign key column that a table must hold because of a
	// one-to-many relation declared on another entity.
	ImpliedColumn struct {
		Column     manifest.ColumnState
		ForeignKey manifest.FkState

		// Source is the declaring relation, e.g. "Author.books".
		Source string
	}

	// ReverseRelations maps table names to the columns implied on them.
	ReverseRelations map[string][]ImpliedColumn

	// Resolver computes implied foreign key columns across a whole entity set.
	Resolver interface {
		Resolve(entities []*entity.Entity) (ReverseRelations, error)
	}

	// ReverseResolver is the default Resolver.
	ReverseResolver struct{}
)

// NewResolver returns the default Resolver.
func NewResolver() *ReverseResolver {
	return &ReverseResolver{}
}

// Resolve validates every cross-entity reference and returns the foreign key
// columns implied by one-to-many relations, keyed by the table that holds them.
//
// A one-to-many relation A.items -> B implies a nullable column on B's table
// referencing A's identifier unless B already declares the owning many-to-one
// named by mappedBy. The column is named after mappedBy (or the relation's
// join column, or A's name when neither is set).
//
// Any relation target, embedded field or JSON field naming an entity that is
// not in entities fails with ErrReferenceNotFound.
func (r *ReverseResolver) Resolve(entities []*entity.Entity) (ReverseRelations, error) {
	idx := entity.NewIndex(entities)
	if err := validateReferences(entities, idx); err != nil {
		return nil, err
	}

	out := make(ReverseRelations)
	for _, owner := range entities {
		if owner.Embeddable {
			continue
		}

		for _, rel := range owner.Relations {
			if rel.Kind != entity.OneToMany {
				continue
			}

			target := idx[rel.Target]
			col, ok, err := impliedColumn(owner, rel, target)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}

			table := target.TableName()
			if declaresColumn(target, col.Column.Name) || hasImplied(out[table], col.Column.Name) {
				continue
			}

			out[table] = append(out[table], col)
		}
	}

	return out, nil
}

func impliedColumn(owner *entity.Entity, rel *entity.Relation, target *entity.Entity) (ImpliedColumn, bool, error) {
	var name string
	switch {
	case rel.MappedBy != "":
		if back := target.Relation(rel.MappedBy); back != nil {
			if back.Kind != entity.ManyToOne || back.Target != owner.Name {
				return ImpliedColumn{}, false, errors.Errorf(
					"%s.%s: mappedBy %s.%s must be a many-to-one relation to %s",
					owner.Name, rel.Name, target.Name, back.Name, owner.Name,
				)
			}

			// the many side owns the column already
			return ImpliedColumn{}, false, nil
		}
		name = utils.JoinColumnName(rel.MappedBy)
	case rel.JoinColumn != "":
		name = rel.JoinColumn
	default:
		name = utils.JoinColumnName(owner.Name)
	}

	id := owner.IDField()
	idType, err := SQLType(id)
	if err != nil {
		return ImpliedColumn{}, false, errors.Wrapf(err, "%s.%s", owner.Name, rel.Name)
	}

	return ImpliedColumn{
		Column: manifest.ColumnState{
			Name:     name,
			Type:     idType,
			Nullable: !rel.Required,
		},
		ForeignKey: manifest.FkState{
			Column:           name,
			ReferencedTable:  owner.TableName(),
			ReferencedColumn: id.ColumnName(),
		},
		Source: owner.Name + "." + rel.Name,
	}, true, nil
}

func validateReferences(entities []*entity.Entity, idx entity.Index) error {
	for _, e := range entities {
		for _, f := range e.Fields {
			if f.Embedded != "" {
				target, ok := idx[f.Embedded]
				if !ok {
					return errors.Wrapf(ErrReferenceNotFound, "%s.%s embeds %s", e.Name, f.Name, f.Embedded)
				}
				if !target.Embeddable {
					return errors.Errorf("%s.%s embeds %s which is not embeddable", e.Name, f.Name, f.Embedded)
				}
			}

			if f.JSON != "" {
				if _, ok := idx[f.JSON]; !ok {
					return errors.Wrapf(ErrReferenceNotFound, "%s.%s stores %s as json", e.Name, f.Name, f.JSON)
				}
			}
		}

		for _, rel := range e.Relations {
			target, ok := idx[rel.Target]
			if !ok {
				return errors.Wrapf(ErrReferenceNotFound, "%s.%s targets %s", e.Name, rel.Name, rel.Target)
			}
			if target.Embeddable {
				return errors.Errorf("%s.%s targets embeddable %s", e.Name, rel.Name, rel.Target)
			}

			// inverse sides of these kinds must point at the owning relation
			if rel.MappedBy == "" || rel.Kind == entity.OneToMany {
				continue
			}
			back := target.Relation(rel.MappedBy)
			if back == nil {
				return errors.Wrapf(ErrReferenceNotFound, "%s.%s is mapped by %s.%s", e.Name, rel.Name, rel.Target, rel.MappedBy)
			}
			if back.Kind != rel.Kind || back.MappedBy != "" {
				return errors.Errorf("%s.%s: %s.%s is not an owning %s relation", e.Name, rel.Name, rel.Target, rel.MappedBy, rel.Kind)
			}
		}
	}

	return nil
}

// declaresColumn reports whether the entity's own fields or owning relations
// already produce a column named name.
func declaresColumn(e *entity.Entity, name string) bool {
	for _, f := range e.Fields {
		if f.Embedded == "" && !f.IsCollection() && f.ColumnName() == name {
			return true
		}
	}

	for _, rel := range e.Relations {
		if rel.Owning() && rel.ColumnName() == name {
			return true
		}
	}

	return false
}

func hasImplied(cols []ImpliedColumn, name string) bool {
	for _, c := range cols {
		if c.Column.Name == name {
			return true
		}
	}

	return false
}

// Model is the resolved view of an entity set handed to context builders.
type Model struct {
	Entities []*entity.Entity
	Index    entity.Index
	Reverse  ReverseRelations
}

// NewModel bundles entities with their resolved reverse relations.
func NewModel(entities []*entity.Entity, reverse ReverseRelations) *Model {
	if reverse == nil {
		reverse = make(ReverseRelations)
	}

	return &Model{
		Entities: entities,
		Index:    entity.NewIndex(entities),
		Reverse:  reverse,
	}
}

// Entity returns the entity with the given name, or ErrReferenceNotFound.
func (m *Model) Entity(name string) (*entity.Entity, error) {
	e, ok := m.Index[name]
	if !ok {
		return nil, errors.Wrapf(ErrReferenceNotFound, "%s", name)
	}

	return e, nil
}
