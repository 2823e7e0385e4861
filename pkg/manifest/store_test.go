package manifest_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/pseudomuto/migen/pkg/manifest"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	t.Run("missing manifest yields empty state at baseline", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "manifest.yaml"), 1)

		state, err := store.Load()
		require.NoError(t, err)
		require.Equal(t, 1, state.LastVersion)
		require.Empty(t, state.Entities)
		require.Empty(t, state.DDLArtifacts)
	})

	t.Run("empty file yields empty state", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "manifest.yaml")
		require.NoError(t, os.WriteFile(path, []byte("\n"), 0o644))

		state, err := NewFileStore(path, 3).Load()
		require.NoError(t, err)
		require.Equal(t, 3, state.LastVersion)
	})

	t.Run("unreadable manifest is recovered", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "manifest.yaml")
		require.NoError(t, os.WriteFile(path, []byte("lastVersion: [not, a, number"), 0o644))

		state, err := NewFileStore(path, 1).Load()
		require.ErrorIs(t, err, ErrUnreadable)
		require.NotNil(t, state)
		require.Equal(t, 1, state.LastVersion)
	})

	t.Run("round trips through save and load", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "manifest.yaml")
		store := NewFileStore(path, 1)

		saved := &MigrationState{
			LastVersion: 4,
			Session:     "session-1",
			UpdatedAt:   time.Date(2024, 8, 10, 12, 0, 0, 0, time.UTC),
			Entities: []*EntityState{
				{
					Table: "book",
					Columns: []ColumnState{
						{Name: "id", Type: "BIGINT"},
						{Name: "author_id", Type: "BIGINT", Nullable: true},
					},
					ForeignKeys: []FkState{{Column: "author_id", ReferencedTable: "author", ReferencedColumn: "id"}},
					Joins:       []JoinState{{Table: "book_genre"}},
				},
			},
			DDLArtifacts: []*DdlArtifactRecord{
				{Kind: KindSequence, Owner: "book", Suffix: "book_seq", Hash: ContentHash("CREATE SEQUENCE book_seq;")},
			},
		}
		require.NoError(t, store.Save(saved))

		loaded, err := store.Load()
		require.NoError(t, err)
		require.Equal(t, saved, loaded)

		info, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o644), info.Mode().Perm())

		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		require.Len(t, entries, 1, "temporary files should be cleaned up")
	})

	t.Run("refuses nil state", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "manifest.yaml"), 1)
		require.Error(t, store.Save(nil))
	})
}
