package entity_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/pseudomuto/migen/pkg/entity"
	"github.com/stretchr/testify/require"
)

const libraryYAML = `
entities:
  - name: Author
    fields:
      - name: name
        type: String(120)
        required: true
    relations:
      - name: books
        kind: one-to-many
        target: Book
  - name: Book
    fields:
      - name: isbn
        type: String(13)
        unique: true
      - name: tags
        type: Set<String>
      - name: address
        embedded: Address
      - name: metadata
        json: BookMetadata
    relations:
      - name: genres
        kind: many-to-many
        target: Genre
        joinTable: book_genre
  - name: Genre
    fields:
      - name: id
        type: Long
        id: true
        generation: identity
  - name: Address
    embeddable: true
    fields:
      - name: city
  - name: BookMetadata
    embeddable: true
`

func TestLoad(t *testing.T) {
	entities, err := Load(strings.NewReader(libraryYAML))
	require.NoError(t, err)
	require.Len(t, entities, 5)

	t.Run("implicit identifier", func(t *testing.T) {
		author := entities[0]
		id := author.IDField()
		require.NotNil(t, id)
		require.Equal(t, "id", id.Name)
		require.Equal(t, GenerationAuto, id.Generation)
		require.Equal(t, DefaultAllocationSize, id.AllocationSize)
		require.True(t, author.UsesSequence())
		require.Same(t, id, author.Fields[0])
	})

	t.Run("explicit identifier", func(t *testing.T) {
		genre := entities[2]
		require.Len(t, genre.Fields, 1)
		require.Equal(t, GenerationIdentity, genre.Generation())
		require.False(t, genre.UsesSequence())
		require.False(t, genre.UsesTableGenerator())
	})

	t.Run("field types", func(t *testing.T) {
		book := entities[1]
		require.Equal(t, "book", book.TableName())

		collections := book.CollectionFields()
		require.Len(t, collections, 1)
		require.Equal(t, "tags", collections[0].ColumnName())

		var metadata *Field
		for _, f := range book.Fields {
			if f.Name == "metadata" {
				metadata = f
			}
		}
		require.NotNil(t, metadata)
		require.Equal(t, "Json", metadata.Type.Name)
	})

	t.Run("embeddable entities have no identifier", func(t *testing.T) {
		require.Nil(t, entities[3].IDField())
		require.Equal(t, GenerationNone, entities[3].Generation())
		require.Equal(t, "String", entities[3].Fields[0].Type.Name)
	})
}

func TestLoad_Empty(t *testing.T) {
	entities, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, entities)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		err  error
	}{
		{
			name: "duplicate entity",
			yaml: "entities:\n  - name: Book\n  - name: Book\n",
			err:  ErrInvalidDescriptor,
		},
		{
			name: "bad type",
			yaml: "entities:\n  - name: Book\n    fields:\n      - name: title\n        type: String(\n",
			err:  ErrInvalidType,
		},
		{
			name: "unknown relation kind",
			yaml: "entities:\n  - name: Book\n    relations:\n      - name: author\n        kind: sideways\n        target: Author\n",
			err:  ErrInvalidDescriptor,
		},
		{
			name: "generation on plain field",
			yaml: "entities:\n  - name: Book\n    fields:\n      - name: title\n        generation: auto\n",
			err:  ErrInvalidDescriptor,
		},
		{
			name: "composite identifier",
			yaml: "entities:\n  - name: Book\n    fields:\n      - name: a\n        id: true\n      - name: b\n        id: true\n",
			err:  ErrInvalidDescriptor,
		},
		{
			name: "shared entity table",
			yaml: "entities:\n  - name: Book\n    table: item\n  - name: Movie\n    table: item\n",
			err:  ErrInvalidDescriptor,
		},
		{
			name: "entity table named like a collection table",
			yaml: "entities:\n  - name: Book\n    fields:\n      - name: tags\n        type: List<String>\n  - name: BookTags\n",
			err:  ErrInvalidDescriptor,
		},
		{
			name: "join table named like an entity table",
			yaml: "entities:\n  - name: Book\n    relations:\n      - name: genres\n        kind: many-to-many\n        target: Genre\n        joinTable: genre\n  - name: Genre\n",
			err:  ErrInvalidDescriptor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.yaml))
			require.Error(t, err)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestLoad_TableNames(t *testing.T) {
	t.Run("collisions name both owners", func(t *testing.T) {
		_, err := Load(strings.NewReader(`
entities:
  - name: Book
    table: item
  - name: Movie
    table: item
`))
		require.ErrorIs(t, err, ErrInvalidDescriptor)
		require.ErrorContains(t, err, "table item is used by both Book and Movie")
	})

	t.Run("both sides may name the join table", func(t *testing.T) {
		entities, err := Load(strings.NewReader(`
entities:
  - name: Book
    relations:
      - name: genres
        kind: many-to-many
        target: Genre
        joinTable: book_genre
  - name: Genre
    relations:
      - name: books
        kind: many-to-many
        target: Book
        joinTable: book_genre
`))
		require.NoError(t, err)
		require.Len(t, entities, 2)
	})

	t.Run("embeddables have no table", func(t *testing.T) {
		_, err := Load(strings.NewReader(`
entities:
  - name: Address
    embeddable: true
  - name: Customer
    table: address
`))
		require.NoError(t, err)
	})
}

func TestLoadFile(t *testing.T) {
	t.Run("reads descriptors from disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "entities.yaml")
		require.NoError(t, os.WriteFile(path, []byte(libraryYAML), 0o644))

		entities, err := LoadFile(path)
		require.NoError(t, err)
		require.Len(t, entities, 5)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to open file")
	})
}

func TestRelation_Owning(t *testing.T) {
	require.True(t, (&Relation{Kind: ManyToOne}).Owning())
	require.True(t, (&Relation{Kind: OneToOne}).Owning())
	require.False(t, (&Relation{Kind: OneToOne, MappedBy: "book"}).Owning())
	require.False(t, (&Relation{Kind: OneToMany}).Owning())
	require.False(t, (&Relation{Kind: ManyToMany}).Owning())

	require.Equal(t, "author_id", (&Relation{Name: "author"}).ColumnName())
	require.Equal(t, "writer", (&Relation{Name: "author", JoinColumn: "writer"}).ColumnName())
}
