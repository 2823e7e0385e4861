// Package entity defines the entity descriptors consumed by the migration
// synthesizer and loads them from a YAML descriptor file.
//
// An entity describes one persistent type: its table, its ordered fields, its
// identifier strategy and its relations to other entities. Field types are
// written as small type expressions that are parsed with participle:
//
//	String(200)        // VARCHAR(200)
//	BigDecimal(10,2)   // NUMERIC(10,2)
//	List<String>       // element collection of VARCHAR(255)
//	byte[]             // BYTEA
//
// Example descriptor file:
//
//	entities:
//	  - name: Book
//	    fields:
//	      - name: title
//	        type: String(200)
//	        required: true
//	      - name: tags
//	        type: Set<String>
//	    relations:
//	      - name: author
//	        kind: many-to-one
//	        target: Author
//	      - name: genres
//	        kind: many-to-many
//	        target: Genre
//	        joinTable: book_genre
//
// Loading:
//
//	entities, err := entity.LoadFile("entities.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
package entity
