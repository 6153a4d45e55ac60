// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/spawn-dev/spawn/cmd/spawn/cli"
	"github.com/spawn-dev/spawn/image"
	"github.com/spawn-dev/spawn/toolchain"
)

func imageCommand(app *App) *cli.Command {
	return &cli.Command{
		Name:    "image",
		Summary: "List and remove spawn images",
		Subcommands: []*cli.Command{
			imageListCommand(app),
			imageRemoveCommand(app),
		},
	}
}

type imageListParams struct {
	All bool `flag:"all" desc:"show every image, not just spawn ones"`
}

func imageListCommand(app *App) *cli.Command {
	var params imageListParams

	return &cli.Command{
		Name:    "list",
		Summary: "List installed spawn images",
		Usage:   "spawn image list [--all]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			env, err := app.environment(logger)
			if err != nil {
				return err
			}
			if params.All {
				return env.passthrough(ctx, "image", "list")
			}

			code, output, err := env.engine.Capture(ctx, "image", "list")
			if err != nil {
				return engineError(err)
			}
			if code != 0 {
				return cli.ExitWith(code)
			}
			printImageTable(app, output, env.resolver.Prefix+"-")
			return nil
		},
	}
}

// printImageTable prints the engine's header line and every row naming
// an image under prefix.
func printImageTable(app *App, output, prefix string) {
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	header := lines[0]
	if app.colour() {
		header = lipgloss.NewStyle().Bold(true).Render(header)
	}
	fmt.Fprintln(app.Stdout, header)

	found := false
	for _, line := range lines[1:] {
		if strings.HasPrefix(line, prefix) {
			fmt.Fprintln(app.Stdout, line)
			found = true
		}
	}
	if !found {
		fmt.Fprintf(app.Stdout, "No %s* images found. Run 'spawn build' to create them.\n", prefix)
	}
}

func imageRemoveCommand(app *App) *cli.Command {
	return &cli.Command{
		Name:    "rm",
		Summary: "Remove spawn images",
		Description: `Remove one or more spawn images. Only images named with the configured
prefix can be removed, and the base image is refused because every
other spawn image is built from it. All names are checked before any
image is deleted.`,
		Usage: "spawn image rm <name>...",
		Examples: []cli.Example{
			{
				Description: "Remove the C++ image",
				Command:     "spawn image rm spawn-cpp:latest",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) == 0 {
				return cli.Validation("at least one image name is required")
			}
			env, err := app.environment(logger)
			if err != nil {
				return err
			}
			for _, name := range args {
				if err := validateRemoval(name, env.resolver); err != nil {
					return err
				}
			}
			for _, name := range args {
				if err := env.passthrough(ctx, "image", "delete", name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// validateRemoval rejects names outside the prefix and the base image.
func validateRemoval(name string, resolver image.Resolver) error {
	prefix := resolver.Prefix + "-"
	if !strings.HasPrefix(name, prefix) {
		return cli.Validation("refusing to remove %q: only %s* images can be removed", name, prefix)
	}
	if name == toolchain.Base.ImageName(resolver.Prefix) || name == resolver.Base() {
		return cli.Validation("refusing to remove %q: other %s* images are built from it", name, prefix)
	}
	return nil
}
