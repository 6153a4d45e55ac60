// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/spawn-dev/spawn/engine"
)

// Launcher runs a LaunchPlan through the container engine.
//
// When standard input is a terminal the launcher replaces the current
// process with the engine, handing it the terminal directly. Otherwise
// it runs the engine as a supervised child with its standard streams
// attached and forwards SIGINT and SIGTERM to it. There is no timeout:
// cancellation is signal forwarding.
type Launcher struct {
	Engine *engine.Engine

	// IsTerminal reports whether standard input is a terminal. Nil
	// checks os.Stdin.
	IsTerminal func() bool

	Logger *slog.Logger

	// replace swaps the process image. Nil uses unix.Exec.
	replace func(argv0 string, argv []string, envv []string) error

	// notify and stopNotify register and release signal delivery for
	// the supervise strategy. Nil uses signal.Notify and signal.Stop.
	notify     func(c chan<- os.Signal, sig ...os.Signal)
	stopNotify func(c chan<- os.Signal)
}

// NewLauncher returns a Launcher for e.
func NewLauncher(e *engine.Engine, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Launcher{Engine: e, Logger: logger}
}

// Launch runs plan and returns the sandbox's exit code. When stdin is a
// terminal Launch only returns if replacing the process fails.
func (l *Launcher) Launch(ctx context.Context, plan LaunchPlan) (int, error) {
	if err := l.Engine.Preflight(ctx); err != nil {
		return 0, err
	}

	tty := l.isTerminal()
	args := RunArgs(plan, tty)
	l.logger().Debug("launching sandbox",
		"command", l.Engine.Path+" "+strings.Join(RedactArgs(args), " "),
		"tty", tty,
	)

	if tty {
		return 0, l.replaceProcess(args)
	}
	return l.supervise(args)
}

func (l *Launcher) isTerminal() bool {
	if l.IsTerminal != nil {
		return l.IsTerminal()
	}
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func (l *Launcher) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l.Logger
}

// replaceProcess execs the engine in place of this process. It only
// returns on failure.
func (l *Launcher) replaceProcess(args []string) error {
	binary := l.Engine.Path
	if !strings.Contains(binary, string(filepath.Separator)) {
		resolved, err := exec.LookPath(binary)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", binary, err)
		}
		binary = resolved
	}

	replace := l.replace
	if replace == nil {
		replace = unix.Exec
	}
	argv := append([]string{l.Engine.Path}, args...)
	if err := replace(binary, argv, os.Environ()); err != nil {
		return fmt.Errorf("replacing process with %s: %w", binary, err)
	}
	return errors.New("process replacement returned without error")
}

// supervise runs the engine as a child, forwarding SIGINT and SIGTERM
// while it runs.
func (l *Launcher) supervise(args []string) (int, error) {
	notify, stopNotify := l.notify, l.stopNotify
	if notify == nil {
		notify = signal.Notify
	}
	if stopNotify == nil {
		stopNotify = signal.Stop
	}

	// The child must outlive context cancellation: only a forwarded
	// signal ends it.
	command := exec.Command(l.Engine.Path, args...)
	command.Stdin = l.Engine.Stdin
	command.Stdout = l.Engine.Stdout
	command.Stderr = l.Engine.Stderr

	// Registered before Start so a signal arriving during startup is
	// buffered rather than killing this process.
	signals := make(chan os.Signal, 4)
	notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer stopNotify(signals)

	if err := command.Start(); err != nil {
		return 0, fmt.Errorf("starting %s: %w", l.Engine.Path, err)
	}

	done := make(chan struct{})
	forwarded := make(chan struct{})
	go func() {
		defer close(forwarded)
		for {
			select {
			case sig := <-signals:
				l.logger().Debug("forwarding signal to sandbox", "signal", sig)
				if err := command.Process.Signal(sig); err != nil && !errors.Is(err, os.ErrProcessDone) {
					l.logger().Warn("forwarding signal failed", "signal", sig, "error", err)
				}
			case <-done:
				return
			}
		}
	}()

	err := command.Wait()
	close(done)
	<-forwarded

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return 0, fmt.Errorf("waiting for %s: %w", l.Engine.Path, err)
		}
	}
	return engine.ExitCode(command.ProcessState), nil
}
