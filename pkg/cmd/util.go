package cmd

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/pseudomuto/migen/pkg/consts"
	"github.com/pseudomuto/migen/pkg/project"
	"github.com/urfave/cli/v3"
)

func requireConfig(p *project.Project) func(context.Context, *cli.Command) (context.Context, error) {
	return func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
		if !p.IsConfigured() {
			return ctx, errors.Errorf("%s not found", consts.ConfigFile)
		}

		return ctx, nil
	}
}

// relPath returns path relative to the project root when possible.
func relPath(p *project.Project, path string) string {
	rel, err := filepath.Rel(p.Root(), path)
	if err != nil {
		return path
	}

	return rel
}
