package migrator_test

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/pseudomuto/migen/pkg/consts"
	. "github.com/pseudomuto/migen/pkg/migrator"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	require.Equal(t, "V2__create_book_sequence.sql", FileName(2, "create_book_sequence"))

	v, desc, ok := ParseFileName("V12__alter_table_book.sql")
	require.True(t, ok)
	require.Equal(t, 12, v)
	require.Equal(t, "alter_table_book", desc)

	for _, name := range []string{"001_init.sql", "V2_create.sql", "V2__create.txt", "v2__create.sql", consts.SumFile} {
		_, _, ok := ParseFileName(name)
		require.False(t, ok, name)
	}
}

func TestLoadMigrationDir(t *testing.T) {
	t.Run("sorts numerically and skips other files", func(t *testing.T) {
		dir, err := LoadMigrationDir(fstest.MapFS{
			"V10__alter_table_book.sql":    {Data: []byte("ALTER TABLE book;")},
			"V2__create_book_sequence.sql": {Data: []byte("CREATE SEQUENCE book_seq;")},
			"V9__create_book_table.sql":    {Data: []byte("CREATE TABLE book;")},
			"README.md":                    {Data: []byte("docs")},
			"nested/V1__ignored.sql":       {Data: []byte("SELECT 1;")},
		})
		require.NoError(t, err)
		require.Nil(t, dir.SumFile)
		require.Equal(t, 10, dir.LastVersion())

		var names []string
		for _, m := range dir.Migrations {
			names = append(names, m.Name)
		}
		require.Equal(t, []string{
			"V2__create_book_sequence.sql",
			"V9__create_book_table.sql",
			"V10__alter_table_book.sql",
		}, names)
		require.Equal(t, "CREATE TABLE book;", string(dir.Migrations[1].Content))
	})

	t.Run("duplicate versions", func(t *testing.T) {
		_, err := LoadMigrationDir(fstest.MapFS{
			"V2__a.sql": {Data: []byte("a")},
			"V2__b.sql": {Data: []byte("b")},
		})
		require.ErrorContains(t, err, "duplicate migration version 2")
	})

	t.Run("empty directory", func(t *testing.T) {
		dir, err := LoadMigrationDir(fstest.MapFS{})
		require.NoError(t, err)
		require.Zero(t, dir.LastVersion())
		require.Zero(t, dir.Rehash().Len())
	})
}

func TestRehashAndValidate(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), consts.ModeFile))
	}

	write("V2__create_book_sequence.sql", "CREATE SEQUENCE book_seq START WITH 1 INCREMENT BY 50;\n")
	write("V3__create_book_table.sql", "CREATE TABLE book ();\n")

	md, err := LoadMigrationDir(os.DirFS(dir))
	require.NoError(t, err)

	_, err = md.Validate()
	require.ErrorContains(t, err, consts.SumFile)

	sum, err := Rehash(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"V2__create_book_sequence.sql", "V3__create_book_table.sql"}, sum.Names())

	md, err = LoadMigrationDir(os.DirFS(dir))
	require.NoError(t, err)
	require.NotNil(t, md.SumFile)

	mismatched, err := md.Validate()
	require.NoError(t, err)
	require.Empty(t, mismatched)

	write("V3__create_book_table.sql", "CREATE TABLE book (id BIGINT);\n")
	write("V4__alter_table_book.sql", "ALTER TABLE book;\n")

	md, err = LoadMigrationDir(os.DirFS(dir))
	require.NoError(t, err)

	mismatched, err = md.Validate()
	require.NoError(t, err)
	require.Equal(t, []string{"V3__create_book_table.sql", "V4__alter_table_book.sql"}, mismatched)
}
