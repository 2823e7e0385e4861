// Package cmd provides CLI commands for the migen tool.
//
// # Available Commands
//
//   - init: Create migen.yaml, a starter entities.yaml and the migrations directory
//   - generate: Write the migrations for whatever changed since the last run
//   - status: Summarize the manifest and check migen.sum
//   - rehash: Rebuild migen.sum after editing a migration by hand
//
// # Command Structure
//
// Each command is a function returning a *cli.Command, following the
// urfave/cli/v3 pattern, and is registered with the fx application through
// the "commands" value group in Module. Commands receive the shared
// *project.Project, which the root command re-roots at --dir before any
// command runs.
//
// # Global Options
//
//   - --dir, -d: Project directory (defaults to current directory)
//   - --config, -c: Config file overriding <dir>/migen.yaml (env: MIGEN_CONFIG)
//   - --verbose: Enable debug logging
//
// # Example Usage
//
//	migen init
//	migen generate
//	migen generate --watch
//	migen --dir services/catalog status
//	migen rehash
package cmd
