package cmd

import (
	"context"
	"fmt"

	"github.com/pseudomuto/migen/pkg/project"
	"github.com/urfave/cli/v3"
)

// initCmd creates the init command which lays out a new migen project.
//
// The command creates migen.yaml, a starter entities.yaml and the migrations
// directory under the project root. Existing files are left alone, so
// running it in an existing project only fills in what is missing.
//
// Example usage:
//
//	migen init
//	migen --dir services/catalog init
func initCmd(p *project.Project) *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize a new migen project",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := p.Initialize(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.Root().Writer, "Initialized migen project in %s\n", p.Root())
			return nil
		},
	}
}
