package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/pseudomuto/migen/pkg/project"
	"github.com/urfave/cli/v3"
)

// rehash creates a CLI command for regenerating the sum file for all migrations.
//
// The command loads every V<version>__<description>.sql file in the
// migrations directory, hashes them in version order and rewrites migen.sum.
// Run it after editing a migration by hand so that `migen status` reports
// the directory as valid again.
//
// Example usage:
//
//	migen rehash
func rehash(p *project.Project) *cli.Command {
	return &cli.Command{
		Name:   "rehash",
		Usage:  "Regenerate the sum file for all migrations",
		Before: requireConfig(p),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			migrationsDir := p.MigrationsDir()
			if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
				return errors.Errorf("migrations directory does not exist: %s", migrationsDir)
			}

			sum, err := p.Rehash()
			if err != nil {
				return errors.Wrap(err, "failed to rehash migrations")
			}

			fmt.Fprintf(cmd.Root().Writer, "Successfully rehashed %d migration(s) and updated sum file\n", sum.Len())
			return nil
		},
	}
}
