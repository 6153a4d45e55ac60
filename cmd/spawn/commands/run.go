// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spawn-dev/spawn/cmd/spawn/cli"
	"github.com/spawn-dev/spawn/image"
	"github.com/spawn-dev/spawn/pipeline"
	"github.com/spawn-dev/spawn/sandbox"
)

type runParams struct {
	cli.JSONOutput

	Unrestricted bool     `flag:"yolo" desc:"skip permission gates (default: safe mode)"`
	NoGit        bool     `flag:"no-git" desc:"don't stage git and SSH configuration into the sandbox"`
	Shell        bool     `flag:"shell" desc:"drop into a shell instead of running the agent"`
	Toolchain    string   `flag:"toolchain,t" desc:"override the detected toolchain (base, cpp, rust, go)"`
	Image        string   `flag:"image" desc:"run this image instead of the toolchain image"`
	Env          []string `flag:"env,e" desc:"set KEY=VALUE in the sandbox (repeatable)"`
	EnvFile      string   `flag:"env-file" desc:"read the environment from this file instead of the default one"`
	Mounts       []string `flag:"mount" desc:"mount an additional directory read-write (repeatable)"`
	ReadOnly     []string `flag:"mount-ro" desc:"mount an additional directory read-only (repeatable)"`
	CPUs         int      `flag:"cpus" desc:"CPU count (default: agent profile)"`
	Memory       string   `flag:"memory" desc:"memory limit such as 8g (default: agent profile)"`
	Rebuild      bool     `flag:"rebuild" desc:"rebuild the project image from its build file"`
	DryRun       bool     `flag:"dry-run" desc:"print the engine command instead of running it"`
	Verbose      bool     `flag:"verbose,v" desc:"log each resolution step"`
}

// dryRunOutput is the --dry-run --json document. Environment values
// are redacted in both the plan and the command.
type dryRunOutput struct {
	Plan      sandbox.LaunchPlan `json:"plan"`
	Command   []string           `json:"command"`
	Toolchain string             `json:"toolchain,omitempty"`
	BuildFile string             `json:"build_file,omitempty"`
	Build     bool               `json:"build"`
	Warnings  []string           `json:"warnings"`
}

func runCommand(app *App, suggest func(string) string) *cli.Command {
	var params runParams

	return &cli.Command{
		Name:    "run",
		Summary: "Run an AI coding agent in a sandbox (default command)",
		Description: `Resolve and launch a sandbox for an agent.

The workspace defaults to the current directory and the agent to the
configured default (claude-code). The toolchain image is detected from
the workspace unless --toolchain or --image is given. The sandbox's exit
status becomes spawn's exit status.`,
		Usage: "spawn run [path] [agent] [flags]",
		Examples: []cli.Example{
			{
				Description: "Run Codex with an extra read-only reference checkout",
				Command:     "spawn run . codex --mount-ro ~/src/upstream",
			},
			{
				Description: "Open a shell in the Rust image without staging credentials",
				Command:     "spawn run . --shell --toolchain rust --no-git",
			},
			{
				Description: "Print the resolved plan as JSON",
				Command:     "spawn run . --dry-run --json",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 2 {
				return cli.Validation("expected at most a path and an agent, got %d arguments: %s",
					len(args), strings.Join(args, " "))
			}
			if len(args) > 0 && suggest != nil {
				if _, err := os.Stat(args[0]); err != nil {
					if command := suggest(args[0]); command != "" {
						return cli.Validation("%s is not a directory (did you mean \"spawn %s\"?)", args[0], command)
					}
				}
			}
			if params.Verbose {
				app.verbose()
			}
			return runSandbox(ctx, app, &params, args, logger)
		},
	}
}

func runSandbox(ctx context.Context, app *App, params *runParams, args []string, logger *slog.Logger) error {
	env, err := app.environment(logger)
	if err != nil {
		return err
	}

	request := pipeline.Request{
		ReadWrite:    params.Mounts,
		ReadOnly:     params.ReadOnly,
		Toolchain:    params.Toolchain,
		Image:        params.Image,
		EnvFile:      params.EnvFile,
		Env:          params.Env,
		Unrestricted: params.Unrestricted,
		Shell:        params.Shell,
		IncludeGit:   env.config.Defaults.Git && !params.NoGit,
		Rebuild:      params.Rebuild,
		CPUs:         params.CPUs,
		Memory:       params.Memory,
	}
	if len(args) > 0 {
		request.Target = args[0]
	}
	if len(args) > 1 {
		request.Agent = args[1]
	}

	result, err := pipeline.Resolve(ctx, request, pipeline.Deps{
		Paths:  env.paths,
		Home:   app.Home,
		Config: env.config,
		Engine: env.engine,
		Store:  env.store,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	for _, warning := range result.Warnings {
		logger.Warn(warning.Error())
	}

	if params.DryRun {
		return printDryRun(app, env.engine.Path, params, result)
	}

	if result.NeedsBuild {
		fmt.Fprintf(app.Stderr, "Building %s from %s...\n", result.Plan.Image, result.BuildFile)
		builder := env.builder(app.Stderr, false, logger)
		if err := builder.BuildProject(ctx, result.Plan.Image, result.BuildFile, result.BuildContext); err != nil {
			return buildFailure(app, err)
		}
	}

	launcher := sandbox.NewLauncher(env.engine, logger)
	launcher.IsTerminal = app.stdinIsTerminal
	code, err := launcher.Launch(ctx, result.Plan)
	if err != nil {
		return engineError(err)
	}
	return cli.ExitWith(code)
}

func printDryRun(app *App, enginePath string, params *runParams, result *pipeline.Result) error {
	command := sandbox.RedactArgs(sandbox.RunArgs(result.Plan, app.stdinIsTerminal()))

	warnings := make([]string, len(result.Warnings))
	for i, warning := range result.Warnings {
		warnings[i] = warning.Error()
	}
	output := dryRunOutput{
		Plan:      result.Plan.Redacted(),
		Command:   append([]string{enginePath}, command...),
		Toolchain: string(result.Toolchain),
		BuildFile: result.BuildFile,
		Build:     result.NeedsBuild,
		Warnings:  warnings,
	}
	if done, err := params.EmitJSON(app.Stdout, output); done {
		return err
	}

	if result.NeedsBuild {
		fmt.Fprintf(app.Stdout, "# would build %s from %s\n", result.Plan.Image, result.BuildFile)
	}
	fmt.Fprintln(app.Stdout, shellJoin(output.Command))
	return nil
}

// shellJoin renders argv for display, quoting arguments the shell
// would split or expand.
func shellJoin(argv []string) string {
	quoted := make([]string, len(argv))
	for i, arg := range argv {
		if arg == "" || strings.ContainsAny(arg, " \t\n\"'$`\\*?;&|<>()") {
			quoted[i] = strconv.Quote(arg)
			continue
		}
		quoted[i] = arg
	}
	return strings.Join(quoted, " ")
}

// buildFailure reports a failed image build and exits with the engine's
// status.
func buildFailure(app *App, err error) error {
	var buildErr *image.BuildError
	if errors.As(err, &buildErr) {
		fmt.Fprintf(app.Stderr, "error: %v\n", err)
		return cli.ExitWith(buildErr.ExitCode)
	}
	return engineError(err)
}
