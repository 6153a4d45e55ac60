// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

// Package engine drives the external container engine CLI (Apple's
// `container` by default). It locates the binary, verifies that it
// responds before any work is attempted, and runs passthrough, capture,
// and build invocations. The sandbox launch itself lives in package
// sandbox, which uses an Engine for its binary path and preflight.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"
	"syscall"
)

// PathEnvVar overrides the engine binary location.
const PathEnvVar = "CONTAINER_PATH"

// DefaultBinary is looked up on $PATH when no install location matches.
const DefaultBinary = "container"

// SearchPaths are the standard install locations, checked in order.
var SearchPaths = []string{
	"/opt/homebrew/bin/container",
	"/usr/local/bin/container",
}

// Locate picks the engine binary: $CONTAINER_PATH, then configured,
// then the first existing entry of SearchPaths, then DefaultBinary.
func Locate(getenv func(string) string, configured string) string {
	if path := getenv(PathEnvVar); path != "" {
		return path
	}
	if configured != "" {
		return configured
	}
	for _, path := range SearchPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return DefaultBinary
}

// Engine invokes one container engine binary.
type Engine struct {
	// Path is the engine binary, absolute or a name resolved via $PATH.
	Path string

	// Cache records successful preflights. Nil disables caching.
	Cache *PreflightCache

	Logger *slog.Logger

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// New returns an Engine wired to the process's standard streams.
func New(path string, cache *PreflightCache, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		Path:   path,
		Cache:  cache,
		Logger: logger,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Passthrough runs the engine with args and the Engine's standard
// streams attached, returning the engine's exit code. A non-zero exit
// is not an error.
func (e *Engine) Passthrough(ctx context.Context, args ...string) (int, error) {
	if err := e.Preflight(ctx); err != nil {
		return 0, err
	}
	command := e.command(ctx, args)
	command.Stdin = e.Stdin
	command.Stdout = e.Stdout
	command.Stderr = e.Stderr
	e.Logger.Debug("running engine", "command", e.Path+" "+strings.Join(args, " "))
	return runForExitCode(command)
}

// Capture runs the engine with args and returns its exit code and
// standard output. Standard error is passed through.
func (e *Engine) Capture(ctx context.Context, args ...string) (int, string, error) {
	if err := e.Preflight(ctx); err != nil {
		return 0, "", err
	}
	var stdout bytes.Buffer
	command := e.command(ctx, args)
	command.Stdout = &stdout
	command.Stderr = e.Stderr
	e.Logger.Debug("capturing engine output", "command", e.Path+" "+strings.Join(args, " "))
	code, err := runForExitCode(command)
	return code, stdout.String(), err
}

// BuildRequest describes one image build.
type BuildRequest struct {
	Tag     string
	File    string
	Context string
	Labels  map[string]string
	NoCache bool

	// Output receives the build's standard output. Nil discards it.
	Output io.Writer
}

// BuildArgs returns the engine arguments for req. Labels are emitted in
// sorted key order.
func BuildArgs(req BuildRequest) []string {
	args := []string{"build", "-t", req.Tag, "-f", req.File}
	if req.NoCache {
		args = append(args, "--no-cache")
	}
	keys := make([]string, 0, len(req.Labels))
	for key := range req.Labels {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		args = append(args, "--label", key+"="+req.Labels[key])
	}
	return append(args, req.Context)
}

// Build runs an image build and returns the engine's exit code.
func (e *Engine) Build(ctx context.Context, req BuildRequest) (int, error) {
	if err := e.Preflight(ctx); err != nil {
		return 0, err
	}
	args := BuildArgs(req)
	command := e.command(ctx, args)
	command.Stdout = req.Output
	command.Stderr = e.Stderr
	e.Logger.Debug("building image", "tag", req.Tag, "command", e.Path+" "+strings.Join(args, " "))
	return runForExitCode(command)
}

func (e *Engine) command(ctx context.Context, args []string) *exec.Cmd {
	return exec.CommandContext(ctx, e.Path, args...)
}

// runForExitCode runs command and converts a non-zero exit into a code
// rather than an error. Failure to start is an error.
func runForExitCode(command *exec.Cmd) (int, error) {
	err := command.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return ExitCode(exitErr.ProcessState), nil
	}
	return 0, fmt.Errorf("running %s: %w", command.Path, err)
}

// ExitCode converts a finished process state into a shell-style exit
// code: the exit status, or 128+N when killed by signal N.
func ExitCode(state *os.ProcessState) int {
	if state == nil {
		return 0
	}
	if status, ok := state.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return 128 + int(status.Signal())
	}
	return state.ExitCode()
}
