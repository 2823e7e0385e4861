package utils_test

import (
	"testing"

	"github.com/pseudomuto/migen/pkg/utils"
	"github.com/stretchr/testify/require"
)

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Book":        "book",
		"BookAuthor":  "book_author",
		"publishedAt": "published_at",
		"title":       "title",
		" Genre ":     "genre",
	}

	for input, expected := range tests {
		t.Run(input, func(t *testing.T) {
			require.Equal(t, expected, utils.SnakeCase(input))
		})
	}
}

func TestSingular(t *testing.T) {
	require.Equal(t, "tag", utils.Singular("tags"))
	require.Equal(t, "category", utils.Singular("Categories"))
	require.Equal(t, "book", utils.Singular("books"))
}

func TestJoinColumnName(t *testing.T) {
	require.Equal(t, "author_id", utils.JoinColumnName("author"))
	require.Equal(t, "book_author_id", utils.JoinColumnName("BookAuthor"))
}
