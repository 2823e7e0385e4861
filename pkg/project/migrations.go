package project

import (
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/pseudomuto/migen/pkg/migrator"
	"github.com/pseudomuto/migen/pkg/render"
)

// Migrations loads the project's migrations directory. A directory that does
// not exist yet is treated as empty.
//
// Example:
//
//	dir, err := proj.Migrations()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	mismatched, err := dir.Validate()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if len(mismatched) > 0 {
//		log.Printf("modified since last rehash: %v", mismatched)
//	}
func (p *Project) Migrations() (*migrator.MigrationDir, error) {
	if err := p.requireConfig(); err != nil {
		return nil, err
	}

	dir := p.MigrationsDir()
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return &migrator.MigrationDir{}, nil
	}

	md, err := migrator.LoadMigrationDir(os.DirFS(dir))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load migrations from %s", dir)
	}

	return md, nil
}

// Rehash rewrites the sum file of the project's migrations directory.
func (p *Project) Rehash() (*migrator.SumFile, error) {
	if err := p.requireConfig(); err != nil {
		return nil, err
	}

	return migrator.Rehash(p.MigrationsDir())
}

// NewSynthesizer returns a Synthesizer for a new generation session, wired
// to the project's manifest and configuration.
func (p *Project) NewSynthesizer(logger *slog.Logger) (*migrator.Synthesizer, error) {
	if err := p.requireConfig(); err != nil {
		return nil, err
	}

	renderer, err := render.New()
	if err != nil {
		return nil, err
	}

	return migrator.NewSynthesizer(migrator.SynthesizerParams{
		Enabled:  p.config.Migrations.IsEnabled(),
		Baseline: p.config.Migrations.BaselineVersion(),
		Store:    p.ManifestStore(),
		Renderer: renderer,
		Logger:   logger,
	})
}
