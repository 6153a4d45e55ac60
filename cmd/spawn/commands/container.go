// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"log/slog"

	"github.com/spawn-dev/spawn/cmd/spawn/cli"
)

// The commands in this file hand their arguments to the container
// engine and exit with its status.

type listParams struct {
	All bool `flag:"all,a" desc:"include stopped containers"`
}

func listCommand(app *App) *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "List running sandboxes",
		Usage:   "spawn list [--all]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			env, err := app.environment(logger)
			if err != nil {
				return err
			}
			engineArgs := []string{"list"}
			if params.All {
				engineArgs = append(engineArgs, "--all")
			}
			return env.passthrough(ctx, engineArgs...)
		},
	}
}

func stopCommand(app *App) *cli.Command {
	return &cli.Command{
		Name:    "stop",
		Summary: "Stop running sandboxes",
		Usage:   "spawn stop <id>...",
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) == 0 {
				return cli.Validation("at least one container id is required")
			}
			env, err := app.environment(logger)
			if err != nil {
				return err
			}
			return env.passthrough(ctx, append([]string{"stop"}, args...)...)
		},
	}
}

type execParams struct {
	Interactive bool `flag:"interactive,i" desc:"keep standard input open"`
	TTY         bool `flag:"tty,t" desc:"allocate a terminal"`
}

func execCommand(app *App) *cli.Command {
	var params execParams

	return &cli.Command{
		Name:    "exec",
		Summary: "Run a command in a running sandbox",
		Description: `Run a command in a running sandbox. Flag parsing stops at the
container id, so everything after it is passed to the command as is.`,
		Usage: "spawn exec [-i] [-t] <id> <command> [args...]",
		Examples: []cli.Example{
			{
				Description: "Open a shell in a running sandbox",
				Command:     "spawn exec -it 3f2a bash",
			},
		},
		Params:           func() any { return &params },
		StopAtPositional: true,
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) < 2 {
				return cli.Validation("usage: spawn exec [-i] [-t] <id> <command> [args...]")
			}
			env, err := app.environment(logger)
			if err != nil {
				return err
			}
			engineArgs := []string{"exec"}
			if params.Interactive {
				engineArgs = append(engineArgs, "-i")
			}
			if params.TTY {
				engineArgs = append(engineArgs, "-t")
			}
			return env.passthrough(ctx, append(engineArgs, args...)...)
		},
	}
}
