package testutil

import (
	"context"
	"io"
	"testing"

	"github.com/urfave/cli/v3"
)

// RunCommand executes a command through a test app so that its flags are
// parsed, writing output to w.
func RunCommand(ctx context.Context, t *testing.T, w io.Writer, command *cli.Command, args ...string) error {
	t.Helper()

	app := &cli.Command{
		Name:     "test",
		Writer:   w,
		Commands: []*cli.Command{command},
	}

	fullArgs := append([]string{"test", command.Name}, args...)
	return app.Run(ctx, fullArgs)
}
