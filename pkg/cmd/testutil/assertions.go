package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pseudomuto/migen/pkg/consts"
	"github.com/pseudomuto/migen/pkg/migrator"
	"github.com/stretchr/testify/require"
)

// RequireValidProject asserts that a project structure is correctly initialized
func RequireValidProject(t *testing.T, projectDir string) {
	t.Helper()

	require.DirExists(t, filepath.Join(projectDir, "db"), "db directory should exist")
	require.DirExists(t, filepath.Join(projectDir, consts.DefaultMigrationsDir), "migrations directory should exist")
	require.FileExists(t, filepath.Join(projectDir, consts.ConfigFile), "migen.yaml should exist")
	require.FileExists(t, filepath.Join(projectDir, consts.DefaultEntitiesFile), "entities.yaml should exist")
}

// RequireFileExists asserts that a file exists and optionally checks its content
func RequireFileExists(t *testing.T, path string, checks ...func(content string)) {
	t.Helper()

	require.FileExists(t, path, "File should exist: %s", path)

	if len(checks) > 0 {
		content, err := os.ReadFile(path)
		require.NoError(t, err, "Failed to read file: %s", path)

		contentStr := string(content)
		for _, check := range checks {
			check(contentStr)
		}
	}
}

// RequireFileContains returns a check function that verifies file contains text
func RequireFileContains(t *testing.T, expected string) func(string) {
	return func(content string) {
		require.Contains(t, content, expected, "File should contain: %s", expected)
	}
}

// RequireMigrations asserts that the migrations directory holds exactly the named files
func RequireMigrations(t *testing.T, migrationsDir string, expected ...string) {
	t.Helper()

	entries, err := os.ReadDir(migrationsDir)
	require.NoError(t, err, "Failed to read migrations directory")

	var names []string
	for _, entry := range entries {
		if _, _, ok := migrator.ParseFileName(entry.Name()); ok {
			names = append(names, entry.Name())
		}
	}

	require.ElementsMatch(t, expected, names, "Unexpected migration files")
}

// RequireSumFileValid asserts that a sum file exists and has valid format
func RequireSumFileValid(t *testing.T, sumPath string) {
	t.Helper()

	RequireFileExists(t, sumPath, func(content string) {
		lines := strings.Split(strings.TrimSpace(content), "\n")
		require.NotEmpty(t, lines, "Sum file should not be empty")

		require.True(t, strings.HasPrefix(lines[0], "h1:"), "First line should be total hash")

		for i := 1; i < len(lines); i++ {
			parts := strings.Fields(lines[i])
			require.Len(t, parts, 2, "Each line should have filename and hash")
			require.True(t, strings.HasSuffix(parts[0], ".sql"), "First part should be SQL filename")
			require.True(t, strings.HasPrefix(parts[1], "h1:"), "Second part should be hash")
		}
	})
}

// RequireNoFile asserts that a file does not exist
func RequireNoFile(t *testing.T, path string) {
	t.Helper()

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err), "File should not exist: %s", path)
}
