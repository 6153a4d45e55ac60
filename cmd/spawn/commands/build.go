// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spawn-dev/spawn/cmd/spawn/cli"
	"github.com/spawn-dev/spawn/toolchain"
)

type buildParams struct {
	NoCache bool `flag:"no-cache" desc:"build without the engine's layer cache"`
	Verbose bool `flag:"verbose,v" desc:"show build output"`
}

func buildCommand(app *App) *cli.Command {
	var params buildParams

	return &cli.Command{
		Name:    "build",
		Summary: "Build the toolchain images",
		Description: `Build spawn's toolchain images from their Containerfile templates.

With no arguments every toolchain is built. The base image is built
first when it is named or not installed yet, because the other images
are built FROM it. Each image records the digest of the template it
was built from, which "spawn doctor" compares against the current one.`,
		Usage: "spawn build [toolchain...] [flags]",
		Examples: []cli.Example{
			{
				Description: "Build every image",
				Command:     "spawn build",
			},
			{
				Description: "Rebuild the Go image from scratch, showing output",
				Command:     "spawn build go --no-cache --verbose",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			requested, err := parseToolchains(args)
			if err != nil {
				return err
			}
			if params.Verbose {
				app.verbose()
			}

			env, err := app.environment(logger)
			if err != nil {
				return err
			}
			plan := buildOrder(requested, !env.store.Exists(env.resolver.Base()))

			var output io.Writer
			if params.Verbose {
				output = app.Stdout
			}
			builder := env.builder(output, params.NoCache, logger)
			for _, tc := range plan {
				reference := env.resolver.Canonical(tc)
				fmt.Fprintf(app.Stdout, "Building %s...\n", reference)
				if err := builder.BuildToolchain(ctx, tc); err != nil {
					return buildFailure(app, err)
				}
				fmt.Fprintf(app.Stdout, "Built %s\n", reference)
			}
			return nil
		},
	}
}

// parseToolchains validates every name before anything is built. An
// empty list means all toolchains.
func parseToolchains(names []string) ([]toolchain.Toolchain, error) {
	if len(names) == 0 {
		return toolchain.All(), nil
	}
	var parsed []toolchain.Toolchain
	for _, name := range names {
		tc, err := toolchain.Parse(name)
		if err != nil {
			return nil, cli.Validation("%w", err)
		}
		if !slices.Contains(parsed, tc) {
			parsed = append(parsed, tc)
		}
	}
	return parsed, nil
}

// buildOrder puts base first, adding it when baseMissing is set, and
// keeps the remaining toolchains in build order.
func buildOrder(requested []toolchain.Toolchain, baseMissing bool) []toolchain.Toolchain {
	var order []toolchain.Toolchain
	for _, tc := range toolchain.All() {
		if slices.Contains(requested, tc) || (tc == toolchain.Base && baseMissing) {
			order = append(order, tc)
		}
	}
	return order
}
