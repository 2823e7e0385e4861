package utils_test

import (
	"testing"

	"github.com/pseudomuto/migen/pkg/utils"
	"github.com/stretchr/testify/require"
)

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain identifier",
			input:    "book",
			expected: "book",
		},
		{
			name:     "snake case identifier",
			input:    "book_author",
			expected: "book_author",
		},
		{
			name:     "reserved word",
			input:    "order",
			expected: `"order"`,
		},
		{
			name:     "mixed case",
			input:    "BookTitle",
			expected: `"BookTitle"`,
		},
		{
			name:     "leading digit",
			input:    "1st_edition",
			expected: `"1st_edition"`,
		},
		{
			name:     "embedded quote",
			input:    `my"table`,
			expected: `"my""table"`,
		},
		{
			name:     "qualified name",
			input:    "public.book",
			expected: "public.book",
		},
		{
			name:     "qualified name with reserved table",
			input:    "public.user",
			expected: `public."user"`,
		},
		{
			name:     "already quoted",
			input:    `"Book"`,
			expected: `"Book"`,
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, utils.QuoteIdentifier(tt.input))
		})
	}
}

func TestNeedsQuoting(t *testing.T) {
	require.False(t, utils.NeedsQuoting("book"))
	require.False(t, utils.NeedsQuoting("_internal"))
	require.True(t, utils.NeedsQuoting("select"))
	require.True(t, utils.NeedsQuoting("Book"))
	require.True(t, utils.NeedsQuoting("book-title"))
}

func TestIsQuoted(t *testing.T) {
	require.True(t, utils.IsQuoted(`"table"`))
	require.False(t, utils.IsQuoted("table"))
	require.False(t, utils.IsQuoted(`"`))
	require.False(t, utils.IsQuoted(""))
}
