// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/spawn-dev/spawn/cmd/spawn/cli"
	"github.com/spawn-dev/spawn/cmd/spawn/cli/doctor"
	"github.com/spawn-dev/spawn/engine"
	"github.com/spawn-dev/spawn/image"
	"github.com/spawn-dev/spawn/lib/config"
	"github.com/spawn-dev/spawn/lib/envfile"
	"github.com/spawn-dev/spawn/lib/xdg"
	"github.com/spawn-dev/spawn/sandbox"
	"github.com/spawn-dev/spawn/toolchain"
)

type doctorParams struct {
	cli.JSONOutput
	Fix bool `flag:"fix" desc:"rebuild missing, stale and outdated images"`
}

func doctorCommand(app *App) *cli.Command {
	var params doctorParams

	return &cli.Command{
		Name:    "doctor",
		Summary: "Check the host is ready to run sandboxes",
		Description: `Check spawn's configuration and state directories, the container
engine, each toolchain image, and the credentials the agents need.

An image is reported when it is missing, older than the base image it
was built from, or built from a different Containerfile template than
the current one. --fix rebuilds those images.`,
		Usage: "spawn doctor [--fix] [--json]",
		Examples: []cli.Example{
			{
				Description: "Check the host",
				Command:     "spawn doctor",
			},
			{
				Description: "Rebuild anything that is out of date",
				Command:     "spawn doctor --fix",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return runDoctor(ctx, app, &params, logger)
		},
	}
}

// checkState carries what earlier checks discovered to later ones.
type checkState struct {
	paths      xdg.Paths
	pathsOK    bool
	config     *config.Config
	engine     *engine.Engine
	responsive bool
}

func runDoctor(ctx context.Context, app *App, params *doctorParams, logger *slog.Logger) error {
	state := checkState{config: config.Default()}
	var results []doctor.Result

	results = append(results, checkDirectories(app, &state)...)
	results = append(results, checkConfig(app, &state))
	results = append(results, checkEngine(ctx, app, &state, logger)...)
	results = append(results, checkImages(&state, logger)...)
	results = append(results, checkCredentials(&state)...)

	fixed := 0
	if params.Fix {
		fixed = doctor.ExecuteFixes(ctx, results)
	}

	if done, err := params.EmitJSON(app.Stdout, doctor.BuildJSON(results, fixed)); done {
		if err != nil {
			return err
		}
		if doctor.AnyFailed(results) {
			return &cli.ExitError{Code: 1}
		}
		return nil
	}

	styles := doctor.Styles{}
	if app.colour() {
		styles = doctor.ColorStyles()
	}
	return doctor.PrintChecklist(app.Stdout, results, params.Fix, styles)
}

func checkDirectories(app *App, state *checkState) []doctor.Result {
	paths, err := xdg.Resolve(app.Getenv, app.Home)
	if err != nil {
		return []doctor.Result{
			doctor.Fail("config root", err.Error()),
			doctor.Skip("state root", "config root unavailable"),
		}
	}
	state.paths = paths
	state.pathsOK = true
	return []doctor.Result{
		doctor.Pass("config root", paths.ConfigDir),
		doctor.Pass("state root", paths.StateDir),
	}
}

func checkConfig(app *App, state *checkState) doctor.Result {
	if !state.pathsOK {
		return doctor.Skip("configuration", "config root unavailable")
	}
	path := app.Getenv(config.PathEnvVar)
	if path == "" {
		path = state.paths.ConfigFile()
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return doctor.Fail("configuration", err.Error())
	}
	state.config = cfg
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return doctor.Pass("configuration", "defaults (no "+path+")")
	}
	return doctor.Pass("configuration", path)
}

func checkEngine(ctx context.Context, app *App, state *checkState, logger *slog.Logger) []doctor.Result {
	state.engine = app.newEngine(state.config, logger)
	path := state.engine.Path

	resolved, err := exec.LookPath(path)
	if err != nil {
		return []doctor.Result{
			doctor.Fail("engine located", fmt.Sprintf("%s not found; install Apple's container CLI or set %s", path, engine.PathEnvVar)),
			doctor.Skip("engine responds", "engine not located"),
		}
	}
	located := doctor.Pass("engine located", resolved)

	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := state.engine.Preflight(probeCtx); err != nil {
		return []doctor.Result{located, doctor.Fail("engine responds", err.Error()+"; try: container system start")}
	}
	state.responsive = true
	return []doctor.Result{located, doctor.Pass("engine responds", "--version succeeded")}
}

func checkImages(state *checkState, logger *slog.Logger) []doctor.Result {
	env := &environment{
		paths:    state.paths,
		config:   state.config,
		engine:   state.engine,
		store:    image.NewStore(state.config.Engine.StoreRoot),
		resolver: image.NewResolver(state.config.Images.Prefix),
	}
	var results []doctor.Result
	for _, tc := range toolchain.All() {
		reference := env.resolver.Canonical(tc)
		name := "image " + reference
		if !state.responsive || !state.pathsOK {
			results = append(results, doctor.Skip(name, "container engine unavailable"))
			continue
		}
		results = append(results, checkImage(env, tc, name, logger))
	}
	return results
}

func checkImage(env *environment, tc toolchain.Toolchain, name string, logger *slog.Logger) doctor.Result {
	reference := env.resolver.Canonical(tc)
	rebuild := func(ctx context.Context) error {
		return env.builder(nil, false, logger).BuildToolchain(ctx, tc)
	}
	hint := "spawn build " + string(tc)

	if !env.store.Exists(reference) {
		if tc == toolchain.Base {
			return doctor.FailWithFix(name, "not installed; every other image is built from it", hint, rebuild)
		}
		return doctor.Warn(name, "not installed; run \""+hint+"\" before using the "+string(tc)+" toolchain")
	}
	if env.store.IsStale(reference, env.resolver.Base()) {
		return doctor.FailWithFix(name, "older than "+env.resolver.Base(), hint, rebuild)
	}
	drifted, ok, err := env.builder(nil, false, logger).TemplateDrift(env.store, tc)
	switch {
	case err != nil:
		return doctor.Fail(name, err.Error())
	case ok && drifted:
		return doctor.FailWithFix(name, "built from an outdated Containerfile template", hint, rebuild)
	case !ok:
		return doctor.Pass(name, "installed (template unknown)")
	}
	return doctor.Pass(name, "installed")
}

func checkCredentials(state *checkState) []doctor.Result {
	if !state.pathsOK {
		return []doctor.Result{doctor.Skip("env file", "config root unavailable")}
	}
	path := state.paths.EnvFile()
	env, err := envfile.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		env = map[string]string{}
	} else if err != nil {
		return []doctor.Result{doctor.Fail("env file", err.Error())}
	}

	var results []doctor.Result
	for _, agent := range sandbox.AgentNames() {
		profile, _ := sandbox.LookupAgent(agent)
		name := "credentials for " + agent
		if len(profile.RequiredEnv) == 0 {
			results = append(results, doctor.Pass(name, "no keys required; sign-in persists in "+state.paths.AgentStateDir(agent)))
			continue
		}
		missing := envfile.Missing(profile.RequiredEnv, env)
		if len(missing) > 0 {
			results = append(results, doctor.Warn(name,
				strings.Join(missing, ", ")+" not set in "+path+"; pass --env or --env-file at run time"))
			continue
		}
		results = append(results, doctor.Pass(name, "required keys present"))
	}
	return results
}
