// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/spawn-dev/spawn/cmd/spawn/cli"
	"github.com/spawn-dev/spawn/engine"
	"github.com/spawn-dev/spawn/image"
	"github.com/spawn-dev/spawn/lib/config"
	"github.com/spawn-dev/spawn/lib/xdg"
)

// App carries the process-level dependencies shared by every command.
// Tests build one directly with buffers and a fake environment.
type App struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Getenv func(string) string
	Home   string

	// Level is raised to debug by --verbose. Nil leaves logging alone.
	Level *slog.LevelVar

	// StdinIsTerminal selects the launch strategy and whether the run
	// arguments carry -t. Dry runs and launches both consult it.
	StdinIsTerminal func() bool

	// StdoutIsTerminal enables coloured output. Nil means plain text.
	StdoutIsTerminal func() bool

	// Preflight is shared by every engine the app creates, so one
	// invocation probes the engine binary at most once.
	Preflight *engine.PreflightCache
}

// NewApp returns an App wired to the current process.
func NewApp(level *slog.LevelVar) *App {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return &App{
		Stdin:            os.Stdin,
		Stdout:           os.Stdout,
		Stderr:           os.Stderr,
		Getenv:           os.Getenv,
		Home:             home,
		Level:            level,
		StdinIsTerminal:  func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
		StdoutIsTerminal: func() bool { return term.IsTerminal(int(os.Stdout.Fd())) },
		Preflight:        engine.NewPreflightCache(),
	}
}

func (a *App) verbose() {
	if a.Level != nil {
		a.Level.Set(slog.LevelDebug)
	}
}

func (a *App) stdinIsTerminal() bool {
	return a.StdinIsTerminal != nil && a.StdinIsTerminal()
}

func (a *App) colour() bool {
	return a.StdoutIsTerminal != nil && a.StdoutIsTerminal()
}

// environment is everything a command derives from the host before it
// does any work.
type environment struct {
	paths    xdg.Paths
	config   *config.Config
	engine   *engine.Engine
	store    *image.Store
	resolver image.Resolver
}

func (a *App) environment(logger *slog.Logger) (*environment, error) {
	paths, err := xdg.Resolve(a.Getenv, a.Home)
	if err != nil {
		return nil, cli.Environment("%w", err)
	}
	cfg, err := config.Load(a.Getenv, paths.ConfigFile())
	if err != nil {
		return nil, cli.Environment("loading configuration: %w", err)
	}
	logger.Debug("environment resolved",
		"config_dir", paths.ConfigDir,
		"state_dir", paths.StateDir,
	)
	return &environment{
		paths:    paths,
		config:   cfg,
		engine:   a.newEngine(cfg, logger),
		store:    image.NewStore(cfg.Engine.StoreRoot),
		resolver: image.NewResolver(cfg.Images.Prefix),
	}, nil
}

func (a *App) newEngine(cfg *config.Config, logger *slog.Logger) *engine.Engine {
	e := engine.New(engine.Locate(a.Getenv, cfg.Engine.Path), a.Preflight, logger)
	e.Stdin = a.Stdin
	e.Stdout = a.Stdout
	e.Stderr = a.Stderr
	return e
}

// builder returns an image builder writing build progress to output.
func (env *environment) builder(output io.Writer, noCache bool, logger *slog.Logger) *image.Builder {
	return &image.Builder{
		Engine:   env.engine,
		Resolver: env.resolver,
		BuildDir: env.paths.BuildDir(),
		Output:   output,
		NoCache:  noCache,
		Logger:   logger,
	}
}

// engineError categorizes a failure to run the engine at all.
func engineError(err error) error {
	var unresponsive *engine.UnresponsiveError
	if errors.Is(err, engine.ErrNotFound) || errors.As(err, &unresponsive) {
		return cli.Environment("%w", err)
	}
	return cli.Runtime("%w", err)
}

// passthrough runs the engine with args and propagates its exit code.
func (env *environment) passthrough(ctx context.Context, args ...string) error {
	code, err := env.engine.Passthrough(ctx, args...)
	if err != nil {
		return engineError(err)
	}
	return cli.ExitWith(code)
}
