package project_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pseudomuto/migen/pkg/config"
	"github.com/pseudomuto/migen/pkg/consts"
	"github.com/pseudomuto/migen/pkg/project"
	"github.com/stretchr/testify/require"
)

func TestProjectInitialize(t *testing.T) {
	t.Run("creates all missing directories and files", func(t *testing.T) {
		tmpDir := t.TempDir()

		proj := project.New(tmpDir, nil)
		require.NoError(t, proj.Initialize())

		require.DirExists(t, filepath.Join(tmpDir, "db"))
		require.DirExists(t, filepath.Join(tmpDir, "db", "migration"))
		require.FileExists(t, filepath.Join(tmpDir, consts.ConfigFile))
		require.FileExists(t, filepath.Join(tmpDir, consts.DefaultEntitiesFile))

		require.True(t, proj.IsConfigured())
		require.True(t, proj.Config().Migrations.IsEnabled())
		require.Equal(t, consts.DefaultBaselineVersion, proj.Config().Migrations.BaselineVersion())

		entities, err := proj.LoadEntities()
		require.NoError(t, err)
		require.Empty(t, entities)
	})

	t.Run("preserves existing files", func(t *testing.T) {
		tmpDir := t.TempDir()

		existing := []byte("entities: model.yaml\nmigrations:\n  dir: sql\n")
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, consts.ConfigFile), existing, consts.ModeFile))

		proj := project.New(tmpDir, nil)
		require.NoError(t, proj.Initialize())

		data, err := os.ReadFile(filepath.Join(tmpDir, consts.ConfigFile))
		require.NoError(t, err)
		require.Equal(t, existing, data)

		require.Equal(t, filepath.Join(tmpDir, "model.yaml"), proj.EntitiesPath())
		require.Equal(t, filepath.Join(tmpDir, "sql"), proj.MigrationsDir())
	})

	t.Run("is idempotent", func(t *testing.T) {
		tmpDir := t.TempDir()

		proj := project.New(tmpDir, nil)
		require.NoError(t, proj.Initialize())

		custom := []byte("entities: []\n# mine\n")
		entitiesPath := filepath.Join(tmpDir, consts.DefaultEntitiesFile)
		require.NoError(t, os.WriteFile(entitiesPath, custom, consts.ModeFile))

		require.NoError(t, proj.Initialize())

		data, err := os.ReadFile(entitiesPath)
		require.NoError(t, err)
		require.Equal(t, custom, data)
	})

	t.Run("fails for a missing root", func(t *testing.T) {
		proj := project.New(filepath.Join(t.TempDir(), "missing"), nil)
		require.ErrorContains(t, proj.Initialize(), "failed to stat dir")
	})

	t.Run("fails when the root is a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(path, nil, consts.ModeFile))

		proj := project.New(path, nil)
		require.ErrorContains(t, proj.Initialize(), "is not a directory")
	})
}

func TestProjectOpen(t *testing.T) {
	t.Run("loads the config in the directory", func(t *testing.T) {
		tmpDir := t.TempDir()
		cfg := []byte("migrations:\n  baseline: 10\n  manifest: state.yaml\n")
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, consts.ConfigFile), cfg, consts.ModeFile))

		proj := project.New(".", nil)
		require.NoError(t, proj.Open(tmpDir))

		require.Equal(t, tmpDir, proj.Root())
		require.Equal(t, 10, proj.Config().Migrations.BaselineVersion())
		require.Equal(t, filepath.Join(tmpDir, "state.yaml"), proj.ManifestPath())
		require.Equal(t, filepath.Join(tmpDir, "state.yaml"), proj.ManifestStore().Path())
	})

	t.Run("keeps the fallback config", func(t *testing.T) {
		tmpDir := t.TempDir()
		fallback := &config.Config{Entities: "model.yaml"}

		proj := project.New(".", fallback)
		require.NoError(t, proj.Open(tmpDir))
		require.Same(t, fallback, proj.Config())
	})

	t.Run("fails on an invalid config", func(t *testing.T) {
		tmpDir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, consts.ConfigFile), []byte("["), consts.ModeFile))

		proj := project.New(".", nil)
		require.ErrorContains(t, proj.Open(tmpDir), "failed to load migen.yaml")
	})
}

func TestProjectPaths(t *testing.T) {
	t.Run("unconfigured projects use the defaults", func(t *testing.T) {
		proj := project.New("/srv/app", nil)

		require.False(t, proj.IsConfigured())
		require.Equal(t, filepath.Join("/srv/app", consts.DefaultEntitiesFile), proj.EntitiesPath())
		require.Equal(t, filepath.Join("/srv/app", consts.DefaultMigrationsDir), proj.MigrationsDir())
		require.Equal(t, filepath.Join("/srv/app", consts.DefaultManifestFile), proj.ManifestPath())
	})

	t.Run("absolute paths are kept", func(t *testing.T) {
		cfg, err := config.LoadConfig(strings.NewReader("entities: /etc/model.yaml\n"))
		require.NoError(t, err)

		proj := project.New("/srv/app", cfg)
		require.Equal(t, "/etc/model.yaml", proj.EntitiesPath())
	})
}

func TestProjectLoadEntities(t *testing.T) {
	t.Run("requires a config", func(t *testing.T) {
		proj := project.New(t.TempDir(), nil)

		_, err := proj.LoadEntities()
		require.ErrorContains(t, err, "run `migen init` first")
	})

	t.Run("loads the descriptors", func(t *testing.T) {
		proj := newProject(t, bookYAML)

		entities, err := proj.LoadEntities()
		require.NoError(t, err)
		require.Len(t, entities, 1)
		require.Equal(t, "book", entities[0].TableName())
	})
}

func TestProjectUseConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("entities: model.yaml\n"), consts.ModeFile))

	proj := project.New("/srv/app", nil)
	require.NoError(t, proj.UseConfigFile(path))
	require.Equal(t, filepath.Join("/srv/app", "model.yaml"), proj.EntitiesPath())

	require.ErrorContains(t, proj.UseConfigFile(filepath.Join(t.TempDir(), "missing.yaml")), "failed to open file")
}
