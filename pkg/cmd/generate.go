package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/migen/pkg/migrator"
	"github.com/pseudomuto/migen/pkg/project"
	"github.com/urfave/cli/v3"
)

// generate creates the generate command which writes the migrations needed
// to bring the manifest up to date with the entity descriptors.
//
// Each invocation is a single generation session: scripts get consecutive
// versions after the manifest's last version, the manifest is saved and the
// sum file is rebuilt. Running it again without changing the descriptors
// writes nothing.
//
// With --watch the command keeps running and starts a new session each time
// the descriptor file changes. Failed sessions are reported and watching
// continues.
//
// Example usage:
//
//	migen generate
//	migen generate --watch
func generate(p *project.Project) *cli.Command {
	return &cli.Command{
		Name:   "generate",
		Usage:  "Generate migrations for changed entities",
		Before: requireConfig(p),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "regenerate whenever the entity descriptors change",
			},
			&cli.DurationFlag{
				Name:  "debounce",
				Usage: "how long to wait for changes to settle in watch mode",
				Value: 300 * time.Millisecond,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			w := cmd.Root().Writer

			if !cmd.Bool("watch") {
				return runGenerate(ctx, p, w)
			}

			watcher, err := newFileWatcher(p.EntitiesPath())
			if err != nil {
				return err
			}
			defer func() { _ = watcher.Close() }()

			regenerate := func() {
				if err := runGenerate(ctx, p, w); err != nil {
					fmt.Fprintf(w, "Generation failed: %v\n", err)
				}
			}

			regenerate()
			fmt.Fprintf(w, "Watching %s for changes\n", relPath(p, p.EntitiesPath()))
			return watcher.Run(ctx, cmd.Duration("debounce"), regenerate)
		},
	}
}

// runGenerate runs one generation session and reports the result to w.
func runGenerate(ctx context.Context, p *project.Project, w io.Writer) error {
	entities, err := p.LoadEntities()
	if err != nil {
		return err
	}

	synth, err := p.NewSynthesizer(slog.Default())
	if err != nil {
		return err
	}

	// The synthesizer is driven once per entity like any other generator.
	// Only the first call of the session does any work.
	var res *migrator.Result
	for i := 0; i < max(1, len(entities)); i++ {
		r, err := synth.Run(ctx, entities, p.MigrationsDir())
		if err != nil {
			return errors.Wrap(err, "failed to generate migrations")
		}

		if r.State != migrator.AlreadyRun {
			res = r
		}
	}

	if res.State == migrator.Disabled {
		fmt.Fprintln(w, "Migration generation is disabled")
		return nil
	}

	if len(res.Files) == 0 {
		fmt.Fprintf(w, "No changes detected (last version %d)\n", res.LastVersion)
		return nil
	}

	for _, f := range res.Files {
		fmt.Fprintf(w, "  %s\n", relPath(p, f))
	}

	if _, err := p.Rehash(); err != nil {
		return errors.Wrap(err, "failed to update sum file")
	}

	fmt.Fprintf(w, "Generated %d migration(s), last version %d\n", len(res.Files), res.LastVersion)
	return nil
}
