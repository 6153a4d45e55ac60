// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spawn-dev/spawn/cmd/spawn/cli"
	"github.com/spawn-dev/spawn/lib/version"
)

type versionParams struct {
	cli.JSONOutput
}

func versionCommand(app *App) *cli.Command {
	var params versionParams

	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Params:  func() any { return &params },
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if done, err := params.EmitJSON(app.Stdout, version.Current()); done {
				return err
			}
			fmt.Fprintf(app.Stdout, "spawn %s\n", version.Full())
			return nil
		},
	}
}
