package config_test

import (
	_ "embed"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/pseudomuto/migen/pkg/config"
	"github.com/pseudomuto/migen/pkg/consts"
	"github.com/pseudomuto/migen/pkg/utils"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/migen.yaml
var testConfigYAML string

func TestLoadConfig(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		cfg, err := LoadConfig(strings.NewReader(testConfigYAML))
		require.NoError(t, err)
		validateTestConfig(t, cfg)
	})

	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadConfig(strings.NewReader("other_key: value"))
		require.NoError(t, err)
		require.Equal(t, consts.DefaultEntitiesFile, cfg.Entities)
		require.Equal(t, consts.DefaultMigrationsDir, cfg.Migrations.Dir)
		require.Equal(t, consts.DefaultManifestFile, cfg.Migrations.Manifest)
		require.Equal(t, consts.DefaultBaselineVersion, cfg.Migrations.BaselineVersion())
		require.True(t, cfg.Migrations.IsEnabled())
	})

	t.Run("error", func(t *testing.T) {
		cfg, err := LoadConfig(strings.NewReader("invalid: yaml: ["))
		require.ErrorContains(t, err, "failed to unmarshal migen config")
		require.Nil(t, cfg)

		cfg, err = LoadConfig(strings.NewReader(""))
		require.ErrorContains(t, err, "failed to unmarshal migen config")
		require.Nil(t, cfg)

		cfg, err = LoadConfig(strings.NewReader("migrations:\n  baseline: -1\n"))
		require.ErrorContains(t, err, "must not be negative")
		require.Nil(t, cfg)
	})
}

func TestLoadConfigFile(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), consts.ConfigFile)
		require.NoError(t, os.WriteFile(path, []byte(testConfigYAML), consts.ModeFile))

		cfg, err := LoadConfigFile(path)
		require.NoError(t, err)
		validateTestConfig(t, cfg)
	})

	t.Run("error", func(t *testing.T) {
		cfg, err := LoadConfigFile("nonexistent.yaml")
		require.ErrorContains(t, err, "failed to open file")
		require.Nil(t, cfg)

		cfg, err = LoadConfigFile(t.TempDir())
		require.Error(t, err)
		require.Nil(t, cfg)
	})
}

func validateTestConfig(t *testing.T, cfg *Config) {
	t.Helper()

	require.Equal(t, "model/entities.yaml", cfg.Entities)
	require.False(t, cfg.Migrations.IsEnabled())
	require.Equal(t, "db/changelog", cfg.Migrations.Dir)
	require.Equal(t, "db/.manifest.yaml", cfg.Migrations.Manifest)
	require.Equal(t, 0, cfg.Migrations.BaselineVersion())
}

func TestMigrations(t *testing.T) {
	tests := []struct {
		name     string
		m        Migrations
		enabled  bool
		baseline int
	}{
		{name: "zero value", m: Migrations{}, enabled: true, baseline: consts.DefaultBaselineVersion},
		{name: "disabled", m: Migrations{Enabled: utils.Ptr(false)}, enabled: false, baseline: consts.DefaultBaselineVersion},
		{name: "explicit baseline", m: Migrations{Enabled: utils.Ptr(true), Baseline: utils.Ptr(100)}, enabled: true, baseline: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.enabled, tt.m.IsEnabled())
			require.Equal(t, tt.baseline, tt.m.BaselineVersion())
		})
	}
}
