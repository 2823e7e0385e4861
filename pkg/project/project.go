package project

import (
	_ "embed"
	"os"
	"path/filepath"
	"strings"
	"testing/fstest"

	"github.com/pkg/errors"
	"github.com/pseudomuto/migen/pkg/config"
	"github.com/pseudomuto/migen/pkg/consts"
	"github.com/pseudomuto/migen/pkg/entity"
	"github.com/pseudomuto/migen/pkg/manifest"
)

var (
	//go:embed embed/migen.yaml
	defaultConfig []byte

	//go:embed embed/entities.yaml
	defaultEntities []byte

	image = fstest.MapFS{
		"db":                        {Mode: os.ModeDir | consts.ModeDir},
		consts.DefaultMigrationsDir: {Mode: os.ModeDir | consts.ModeDir},
		consts.ConfigFile:           {Data: defaultConfig},
		consts.DefaultEntitiesFile:  {Data: defaultEntities},
	}
)

// Project is a migen project rooted at a directory containing migen.yaml.
type Project struct {
	root   string
	config *config.Config
}

// New creates a Project rooted at root. cfg may be nil, in which case the
// project is unconfigured until Initialize or Open finds a migen.yaml.
//
// Example:
//
//	proj := project.New("/path/to/service", nil)
//	if err := proj.Initialize(); err != nil {
//		log.Fatal(err)
//	}
//
//	entities, err := proj.LoadEntities()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Loaded %d entities\n", len(entities))
func New(root string, cfg *config.Config) *Project {
	return &Project{root: root, config: cfg}
}

// Open re-roots the project at dir. When dir contains a migen.yaml it
// replaces the current configuration, otherwise the current one is kept.
func (p *Project) Open(dir string) error {
	root, err := filepath.Abs(dir)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve project dir: %s", dir)
	}

	p.root = root
	if err := p.ensureDirectory(); err != nil {
		return err
	}

	return p.loadConfig()
}

// UseConfigFile replaces the project configuration with the one at path.
func (p *Project) UseConfigFile(path string) error {
	cfg, err := config.LoadConfigFile(path)
	if err != nil {
		return err
	}

	p.config = cfg
	return nil
}

// Initialize creates the standard project layout under the root and loads
// its configuration. It is idempotent: existing files and directories are
// never modified.
//
// The layout is:
//
//	migen.yaml
//	entities.yaml
//	db/migration/
func (p *Project) Initialize() error {
	if err := p.ensureDirectory(); err != nil {
		return err
	}

	for path, entry := range image {
		fullPath := filepath.Join(p.root, filepath.FromSlash(path))

		if _, err := os.Stat(fullPath); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return errors.Wrapf(err, "failed to stat %s", fullPath)
		}

		if entry.Mode.IsDir() {
			if err := os.MkdirAll(fullPath, entry.Mode.Perm()); err != nil {
				return errors.Wrapf(err, "failed to create directory %s", fullPath)
			}

			continue
		}

		parentDir := filepath.Dir(fullPath)
		if err := os.MkdirAll(parentDir, consts.ModeDir); err != nil {
			return errors.Wrapf(err, "failed to create parent directory %s", parentDir)
		}

		if err := os.WriteFile(fullPath, entry.Data, consts.ModeFile); err != nil {
			return errors.Wrapf(err, "failed to write file %s", fullPath)
		}
	}

	return p.loadConfig()
}

// Root returns the project directory.
func (p *Project) Root() string {
	return p.root
}

// Config returns the loaded configuration, or nil when the project has none.
func (p *Project) Config() *config.Config {
	return p.config
}

// IsConfigured reports whether a configuration has been loaded.
func (p *Project) IsConfigured() bool {
	return p.config != nil
}

// EntitiesPath returns the absolute path of the entity descriptor file.
func (p *Project) EntitiesPath() string {
	return p.path(p.cfg().Entities)
}

// MigrationsDir returns the absolute path of the migrations directory.
func (p *Project) MigrationsDir() string {
	return p.path(p.cfg().Migrations.Dir)
}

// ManifestPath returns the absolute path of the migration manifest.
func (p *Project) ManifestPath() string {
	return p.path(p.cfg().Migrations.Manifest)
}

// LoadEntities loads and normalizes the project's entity descriptors.
func (p *Project) LoadEntities() ([]*entity.Entity, error) {
	if err := p.requireConfig(); err != nil {
		return nil, err
	}

	return entity.LoadFile(p.EntitiesPath())
}

// ManifestStore returns the store for the project's migration manifest.
func (p *Project) ManifestStore() *manifest.FileStore {
	return manifest.NewFileStore(p.ManifestPath(), p.cfg().Migrations.BaselineVersion())
}

func (p *Project) cfg() *config.Config {
	if p.config == nil {
		// unconfigured projects resolve paths against the defaults
		cfg, _ := config.LoadConfig(strings.NewReader("{}"))
		return cfg
	}

	return p.config
}

func (p *Project) path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}

	return filepath.Join(p.root, rel)
}

func (p *Project) loadConfig() error {
	path := filepath.Join(p.root, consts.ConfigFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	cfg, err := config.LoadConfigFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to load %s", consts.ConfigFile)
	}

	p.config = cfg
	return nil
}

func (p *Project) requireConfig() error {
	if p.config == nil {
		return errors.Errorf("no %s found in %s - run `migen init` first", consts.ConfigFile, p.root)
	}

	return nil
}

func (p *Project) ensureDirectory() error {
	dir, err := os.Stat(p.root)
	if err != nil {
		return errors.Wrapf(err, "failed to stat dir: %s", p.root)
	}

	if !dir.IsDir() {
		return errors.Errorf("%s is not a directory", p.root)
	}

	return nil
}
