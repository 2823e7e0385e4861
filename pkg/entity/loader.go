package entity

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/pseudomuto/migen/pkg/utils"
	"gopkg.in/yaml.v3"
)

// ErrInvalidDescriptor is returned when a descriptor file is structurally invalid.
var ErrInvalidDescriptor = errors.New("invalid entity descriptor")

type descriptorFile struct {
	Entities []*Entity `yaml:"entities"`
}

// Load decodes entity descriptors from YAML and normalizes them.
//
// Example:
//
//	entities, err := entity.Load(strings.NewReader(`
//	entities:
//	  - name: Book
//	    fields:
//	      - name: title
//	        type: String
//	`))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Println(entities[0].TableName()) // book
func Load(r io.Reader) ([]*Entity, error) {
	var file descriptorFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to decode entity descriptors")
	}

	if err := Normalize(file.Entities); err != nil {
		return nil, err
	}

	return file.Entities, nil
}

// LoadFile loads entity descriptors from the file at path.
func LoadFile(path string) ([]*Entity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	entities, err := Load(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load entities from %s", path)
	}

	return entities, nil
}

// Normalize parses field types, fills defaults and validates the descriptors
// in place. Cross-entity references are not checked here; the schema
// resolver reports those.
//
// Defaults applied:
//   - entities without an ID field get an implicit "id Long" field with auto generation
//   - ID fields without a generation strategy use auto generation
//   - sequence-backed IDs without an allocation size use DefaultAllocationSize
func Normalize(entities []*Entity) error {
	names := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		if e.Name == "" {
			return errors.Wrap(ErrInvalidDescriptor, "entity without a name")
		}
		if _, dup := names[e.Name]; dup {
			return errors.Wrapf(ErrInvalidDescriptor, "duplicate entity: %s", e.Name)
		}
		names[e.Name] = struct{}{}

		if err := normalizeEntity(e); err != nil {
			return errors.Wrapf(err, "entity %s", e.Name)
		}
	}

	return validateTables(entities)
}

// validateTables rejects descriptors mapping two entities or collections to
// the same table. Both sides of a many-to-many relation may name the same
// join table, but it must not be an entity or collection table.
func validateTables(entities []*Entity) error {
	owners := make(map[string]string)
	claim := func(table, owner string) error {
		if prev, ok := owners[table]; ok {
			return errors.Wrapf(ErrInvalidDescriptor, "table %s is used by both %s and %s", table, prev, owner)
		}

		owners[table] = owner
		return nil
	}

	for _, e := range entities {
		if e.Embeddable {
			continue
		}

		if err := claim(e.TableName(), e.Name); err != nil {
			return err
		}

		for _, f := range e.CollectionFields() {
			if err := claim(e.TableName()+"_"+f.ColumnName(), e.Name+"."+f.Name); err != nil {
				return err
			}
		}
	}

	for _, e := range entities {
		for _, r := range e.Relations {
			if r.Kind != ManyToMany || r.MappedBy != "" {
				continue
			}

			table := r.JoinTable
			if table == "" {
				table = e.TableName() + "_" + utils.SnakeCase(r.Name)
			}

			if prev, ok := owners[table]; ok {
				return errors.Wrapf(ErrInvalidDescriptor, "join table %s of %s.%s is used by %s", table, e.Name, r.Name, prev)
			}
		}
	}

	return nil
}

func normalizeEntity(e *Entity) error {
	ids := 0
	for _, f := range e.Fields {
		if f.Name == "" {
			return errors.Wrap(ErrInvalidDescriptor, "field without a name")
		}

		if f.RawType == "" {
			switch {
			case f.Embedded != "":
				// embedded fields take their columns from the embeddable
			case f.JSON != "":
				f.RawType = "Json"
			default:
				f.RawType = "String"
			}
		}

		if f.RawType != "" && f.Type == nil {
			t, err := ParseType(f.RawType)
			if err != nil {
				return errors.Wrapf(err, "field %s", f.Name)
			}
			f.Type = t
		}

		if f.ID {
			ids++
			if f.Generation == "" {
				f.Generation = GenerationAuto
			}
		}

		if err := validateGeneration(f); err != nil {
			return errors.Wrapf(err, "field %s", f.Name)
		}
	}

	switch {
	case ids > 1:
		return errors.Wrap(ErrInvalidDescriptor, "composite identifiers are not supported")
	case ids == 0 && !e.Embeddable:
		id := &Field{
			Name:       "id",
			RawType:    "Long",
			Type:       &TypeExpr{Name: "Long"},
			ID:         true,
			Generation: GenerationAuto,
		}
		e.Fields = append([]*Field{id}, e.Fields...)
	case ids == 1 && e.Embeddable:
		return errors.Wrap(ErrInvalidDescriptor, "embeddable entities cannot declare an identifier")
	}

	if id := e.IDField(); id != nil && id.AllocationSize == 0 && e.UsesSequence() {
		id.AllocationSize = DefaultAllocationSize
	}

	for _, r := range e.Relations {
		if err := validateRelation(e, r); err != nil {
			return err
		}
	}

	return nil
}

func validateGeneration(f *Field) error {
	switch f.Generation {
	case "", GenerationNone, GenerationAuto, GenerationSequence, GenerationTable, GenerationIdentity, GenerationUUID:
	default:
		return errors.Wrapf(ErrInvalidDescriptor, "unknown generation strategy: %s", f.Generation)
	}

	if f.Generation != "" && !f.ID {
		return errors.Wrap(ErrInvalidDescriptor, "generation is only valid on identifier fields")
	}

	return nil
}

func validateRelation(e *Entity, r *Relation) error {
	if r.Name == "" {
		return errors.Wrap(ErrInvalidDescriptor, "relation without a name")
	}
	if r.Target == "" {
		return errors.Wrapf(ErrInvalidDescriptor, "relation %s has no target", r.Name)
	}
	if e.Embeddable {
		return errors.Wrapf(ErrInvalidDescriptor, "relation %s: embeddable entities cannot declare relations", r.Name)
	}

	switch r.Kind {
	case ManyToOne, OneToOne, OneToMany, ManyToMany:
	default:
		return errors.Wrapf(ErrInvalidDescriptor, "relation %s has unknown kind: %q", r.Name, r.Kind)
	}

	if r.Kind == ManyToOne && r.MappedBy != "" {
		return errors.Wrapf(ErrInvalidDescriptor, "relation %s: many-to-one relations cannot be mapped by another relation", r.Name)
	}

	return nil
}
