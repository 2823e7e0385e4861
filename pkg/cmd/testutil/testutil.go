package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pseudomuto/migen/pkg/consts"
	"github.com/pseudomuto/migen/pkg/project"
	"github.com/stretchr/testify/require"
)

// ProjectFixture represents a test project environment with all necessary dependencies
type ProjectFixture struct {
	Dir     string
	Project *project.Project
	t       *testing.T
}

// MigrationFile represents a test migration
type MigrationFile struct {
	Name string
	SQL  string
}

// TestProject creates an isolated temp directory with an initialized migen project
func TestProject(t *testing.T) *ProjectFixture {
	t.Helper()

	tmpDir := t.TempDir()
	proj := project.New(tmpDir, nil)
	require.NoError(t, proj.Initialize(), "Failed to initialize test project")

	return &ProjectFixture{
		Dir:     tmpDir,
		Project: proj,
		t:       t,
	}
}

// WithConfig replaces migen.yaml and reloads the project configuration
func (p *ProjectFixture) WithConfig(yaml string) *ProjectFixture {
	p.t.Helper()

	err := os.WriteFile(p.GetConfigPath(), []byte(yaml), consts.ModeFile)
	require.NoError(p.t, err, "Failed to write config file")
	require.NoError(p.t, p.Project.Open(p.Dir), "Failed to reload config")

	return p
}

// WithEntities sets the entity descriptors
func (p *ProjectFixture) WithEntities(yaml string) *ProjectFixture {
	p.t.Helper()

	err := os.WriteFile(p.Project.EntitiesPath(), []byte(yaml), consts.ModeFile)
	require.NoError(p.t, err, "Failed to write entities file")

	return p
}

// WithMigrations adds migration files to the project
func (p *ProjectFixture) WithMigrations(migrations []MigrationFile) *ProjectFixture {
	p.t.Helper()

	migrationsDir := p.GetMigrationsDir()
	err := os.MkdirAll(migrationsDir, consts.ModeDir)
	require.NoError(p.t, err, "Failed to create migrations directory")

	for _, migration := range migrations {
		path := filepath.Join(migrationsDir, migration.Name)
		err := os.WriteFile(path, []byte(migration.SQL), consts.ModeFile)
		require.NoError(p.t, err, "Failed to write migration file: %s", migration.Name)
	}

	return p
}

// WithSumFile creates a sum file for the migrations
func (p *ProjectFixture) WithSumFile(content string) *ProjectFixture {
	p.t.Helper()

	err := os.WriteFile(p.GetSumFilePath(), []byte(content), consts.ModeFile)
	require.NoError(p.t, err, "Failed to write sum file")

	return p
}

// GetMigrationsDir returns the path to the migrations directory
func (p *ProjectFixture) GetMigrationsDir() string {
	return p.Project.MigrationsDir()
}

// GetSumFilePath returns the path to migen.sum
func (p *ProjectFixture) GetSumFilePath() string {
	return filepath.Join(p.GetMigrationsDir(), consts.SumFile)
}

// GetConfigPath returns the path to the migen.yaml file
func (p *ProjectFixture) GetConfigPath() string {
	return filepath.Join(p.Dir, consts.ConfigFile)
}

// MinimalMigrations returns a small, valid migration set
func MinimalMigrations() []MigrationFile {
	return []MigrationFile{
		{Name: "V2__create_book_sequence.sql", SQL: "CREATE SEQUENCE book_seq START WITH 1 INCREMENT BY 50;\n"},
		{Name: "V3__create_book_table.sql", SQL: "CREATE TABLE book (\n    id BIGINT NOT NULL\n);\n"},
	}
}

// LibraryEntities is a descriptor file with relations of every kind
const LibraryEntities = `
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
  - name: Book
    fields:
      - name: title
        required: true
      - name: tags
        type: Set<String>
    relations:
      - name: author
        kind: many-to-one
        target: Author
        required: true
      - name: genres
        kind: many-to-many
        target: Genre
  - name: Genre
    fields:
      - name: name
    relations:
      - name: books
        kind: many-to-many
        target: Book
        mappedBy: genres
`
