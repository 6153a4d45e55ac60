// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the spawn command tree.
//
// The root command is itself the run command: `spawn [path] [agent]`
// resolves and launches a sandbox, and any first argument that is not
// a subcommand name is taken as the workspace path.
package commands

import (
	"github.com/spawn-dev/spawn/cmd/spawn/cli"
)

// Root builds the complete command tree for app.
func Root(app *App) *cli.Command {
	var root *cli.Command
	run := runCommand(app, func(name string) string {
		return cli.SuggestCommand(name, root.Subcommands)
	})
	root = &cli.Command{
		Name: "spawn",
		Description: `spawn: sandboxed AI coding agents.

Runs an agent inside a container with the workspace mounted, the
toolchain image chosen from the project, and credentials staged
read-only. Safe mode (the default) seeds permission rules that gate
destructive commands; --yolo turns it off.`,
		Usage:  "spawn [path] [agent] [flags]",
		Params: run.Params,
		Run:    run.Run,
		Examples: []cli.Example{
			{
				Description: "Build the container images (required once)",
				Command:     "spawn build",
			},
			{
				Description: "Run Claude Code in the current directory",
				Command:     "spawn .",
			},
			{
				Description: "Run Codex instead",
				Command:     "spawn . codex",
			},
			{
				Description: "Show the engine command without running it",
				Command:     "spawn ~/src/app --dry-run",
			},
		},
	}
	root.Subcommands = []*cli.Command{
		run,
		buildCommand(app),
		imageCommand(app),
		listCommand(app),
		stopCommand(app),
		execCommand(app),
		doctorCommand(app),
		versionCommand(app),
	}
	return root
}
