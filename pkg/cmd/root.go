package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/pseudomuto/migen/pkg/config"
	"github.com/pseudomuto/migen/pkg/project"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type (
	Params struct {
		fx.In

		Args       []string
		Commands   []*cli.Command `group:"commands"`
		Ctx        context.Context
		Lifecycle  fx.Lifecycle
		Shutdowner fx.Shutdowner
		Project    *project.Project
		Version    *Version
	}

	Version struct {
		Version   string
		Commit    string
		Timestamp string
	}
)

// Run creates the migen CLI application and runs it when the fx application
// starts. The exit code of the fx application reflects the command result.
//
// Global Flags:
//   - --dir, -d: Project directory (defaults to current directory)
//   - --config, -c: Config file, overriding <dir>/migen.yaml (env: MIGEN_CONFIG)
//   - --verbose: Enable debug logging
//
// The project is re-rooted at --dir before any command runs. Commands that
// need a configured project fail when no migen.yaml was found.
func Run(p Params) {
	cli.VersionPrinter = func(cmd *cli.Command) {
		fmt.Fprintln(cmd.Writer, "Version:", p.Version.Version)
		fmt.Fprintln(cmd.Writer, "Commit:", p.Version.Commit)
		fmt.Fprintln(cmd.Writer, "Date:", p.Version.Timestamp)
	}

	app := root(p.Project, p.Version.Version, p.Commands)

	p.Lifecycle.Append(fx.StartHook(func() {
		if err := app.Run(p.Ctx, p.Args); err != nil {
			slog.Error("Error running command", "err", err)
			_ = p.Shutdowner.Shutdown(fx.ExitCode(1))
		}

		_ = p.Shutdowner.Shutdown(fx.ExitCode(0))
	}))
}

func root(proj *project.Project, version string, commands []*cli.Command) *cli.Command {
	return &cli.Command{
		Name:  "migen",
		Usage: "Incremental SQL migration generator for entity models",
		Description: `migen reads entity descriptors and writes versioned PostgreSQL migration
scripts for whatever changed since the last run. The last known schema is kept
in a manifest so that each run only emits the difference.`,
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "dir",
				Aliases:     []string{"d"},
				Usage:       "the project directory",
				Value:       ".",
				DefaultText: "Current directory",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "the migen config file",
				Sources: cli.EnvVars(config.EnvConfigFile),
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("verbose") {
				slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})))
			}

			if err := proj.Open(cmd.String("dir")); err != nil {
				return ctx, err
			}

			if path := cmd.String("config"); path != "" {
				return ctx, proj.UseConfigFile(path)
			}

			return ctx, nil
		},
		Commands: commands,
	}
}
