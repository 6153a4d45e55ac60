// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"os"

	"github.com/spawn-dev/spawn/cmd/spawn/cli"
	"github.com/spawn-dev/spawn/cmd/spawn/commands"
	"github.com/spawn-dev/spawn/lib/process"
)

func main() {
	if err := run(); err != nil {
		// The sandbox's own status, engine passthroughs, and doctor
		// failures arrive as an exit code with their output already
		// printed.
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		process.Fatal(err)
	}
}

func run() error {
	level := cli.NewLogLevel(os.Getenv)
	root := rootCommand(commands.NewApp(level))
	root.Logger = cli.NewCommandLogger(level)
	return root.Execute(context.Background(), os.Args[1:])
}

func rootCommand(app *commands.App) *cli.Command {
	return commands.Root(app)
}
