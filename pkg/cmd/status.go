package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pseudomuto/migen/pkg/consts"
	"github.com/pseudomuto/migen/pkg/manifest"
	"github.com/pseudomuto/migen/pkg/project"
	"github.com/urfave/cli/v3"
)

// status creates the status command which summarizes the manifest and the
// migrations directory.
//
// The output includes:
//   - the last allocated version and the session that saved it
//   - the tables recorded in the manifest and their join tables
//   - the sequences and other artifacts recorded for idempotence
//   - the number of migration files and whether migen.sum matches them
//
// Example usage:
//
//	migen status
func status(p *project.Project) *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show the manifest and migration status",
		Before: requireConfig(p),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			w := cmd.Root().Writer

			state, err := p.ManifestStore().Load()
			if err != nil {
				fmt.Fprintf(w, "Warning: %v\n", err)
			}

			dir, err := p.Migrations()
			if err != nil {
				return err
			}

			fmt.Fprintf(w, "Project:       %s\n", p.Root())
			fmt.Fprintf(w, "Manifest:      %s\n", relPath(p, p.ManifestPath()))
			fmt.Fprintf(w, "Last version:  %d\n", state.LastVersion)
			if state.Session != "" {
				fmt.Fprintf(w, "Last session:  %s (%s)\n", state.Session, state.UpdatedAt.Format("2006-01-02 15:04:05 MST"))
			}

			printTables(w, state)
			printArtifacts(w, state)

			fmt.Fprintf(w, "Migrations:    %d file(s) in %s\n", len(dir.Migrations), relPath(p, p.MigrationsDir()))
			if len(dir.Migrations) == 0 {
				return nil
			}

			mismatched, err := dir.Validate()
			switch {
			case err != nil:
				fmt.Fprintf(w, "Sum file:      missing, run `migen rehash` to create %s\n", consts.SumFile)
			case len(mismatched) > 0:
				fmt.Fprintf(w, "Sum file:      out of date: %s\n", strings.Join(mismatched, ", "))
			default:
				fmt.Fprintln(w, "Sum file:      valid")
			}

			return nil
		},
	}
}

func printTables(w io.Writer, state *manifest.MigrationState) {
	fmt.Fprintf(w, "Tables (%d):\n", len(state.Entities))
	for _, e := range state.Entities {
		if len(e.Joins) == 0 {
			fmt.Fprintf(w, "  %s\n", e.Table)
			continue
		}

		joins := make([]string, len(e.Joins))
		for i, j := range e.Joins {
			joins[i] = j.Table
		}
		fmt.Fprintf(w, "  %s (joins: %s)\n", e.Table, strings.Join(joins, ", "))
	}
}

func printArtifacts(w io.Writer, state *manifest.MigrationState) {
	fmt.Fprintf(w, "Artifacts (%d):\n", len(state.DDLArtifacts))
	for _, a := range state.DDLArtifacts {
		fmt.Fprintf(w, "  %-20s %-20s %s\n", a.Kind, a.Owner, a.Suffix)
	}
}
