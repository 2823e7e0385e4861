package schema_test

import (
	"strings"
	"testing"

	"github.com/pseudomuto/migen/pkg/entity"
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
        mappedBy: author
      - name: awards
        kind: one-to-many
        target: Award
  - name: Book
    fields:
      - name: title
        required: true
      - name: isbn
        type: String(13)
        unique: true
      - name: price
        type: BigDecimal(10,2)
      - name: tags
        type: Set<String>
      - name: address
        embedded: Address
      - name: metadata
        json: BookMetadata
    relations:
      - name: author
        kind: many-to-one
        target: Author
        required: true
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
      - name: name
    relations:
      - name: books
        kind: many-to-many
        target: Book
        mappedBy: genres
  - name: Award
    fields:
      - name: id
        type: Long
        id: true
        generation: table
      - name: title
  - name: Address
    embeddable: true
    fields:
      - name: city
        required: true
      - name: zip
        type: String(10)
  - name: BookMetadata
    embeddable: true
    fields:
      - name: summary
        type: Text
`

func loadEntities(t *testing.T, doc string) []*entity.Entity {
	t.Helper()

	entities, err := entity.Load(strings.NewReader(doc))
	require.NoError(t, err)

	return entities
}

func find(t *testing.T, entities []*entity.Entity, name string) *entity.Entity {
	t.Helper()

	for _, e := range entities {
		if e.Name == name {
			return e
		}
	}

	require.Failf(t, "entity not found", "no entity named %s", name)
	return nil
}
