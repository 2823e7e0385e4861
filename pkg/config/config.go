package config

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/pseudomuto/migen/pkg/consts"
	"gopkg.in/yaml.v3"
)

type (
	// Migrations configures migration synthesis.
	Migrations struct {
		// Enabled turns migration generation on or off. Defaults to true.
		Enabled *bool `yaml:"enabled,omitempty"`

		// Dir is the migrations directory, relative to the project root.
		Dir string `yaml:"dir,omitempty"`

		// Manifest is the persisted migration state, relative to the project root.
		Manifest string `yaml:"manifest,omitempty"`

		// Baseline is the last version of an empty manifest. The first
		// generated migration is Baseline+1.
		Baseline *int `yaml:"baseline,omitempty"`
	}

	// Config represents the migen project configuration (migen.yaml).
	Config struct {
		// Entities is the entity descriptor file, relative to the project root.
		Entities string `yaml:"entities"`

		Migrations Migrations `yaml:"migrations"`
	}
)

// IsEnabled reports whether migration generation is enabled.
func (m Migrations) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// BaselineVersion returns the configured baseline or the default.
func (m Migrations) BaselineVersion() int {
	if m.Baseline == nil {
		return consts.DefaultBaselineVersion
	}

	return *m.Baseline
}

// LoadConfig parses a project configuration from r and applies defaults.
//
// Example:
//
//	cfg, err := config.LoadConfig(strings.NewReader(`
//	entities: model/entities.yaml
//	migrations:
//	  dir: db/changelog
//	`))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Println(cfg.Migrations.Manifest) // .migen/manifest.yaml
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal migen config")
	}

	if cfg.Entities == "" {
		cfg.Entities = consts.DefaultEntitiesFile
	}
	if cfg.Migrations.Dir == "" {
		cfg.Migrations.Dir = consts.DefaultMigrationsDir
	}
	if cfg.Migrations.Manifest == "" {
		cfg.Migrations.Manifest = consts.DefaultManifestFile
	}

	if b := cfg.Migrations.Baseline; b != nil && *b < 0 {
		return nil, errors.Errorf("migrations.baseline must not be negative: %d", *b)
	}

	return &cfg, nil
}

// LoadConfigFile loads a project configuration from path.
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	return LoadConfig(f)
}
