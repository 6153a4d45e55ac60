// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"sync"

	"golang.org/x/sys/unix"
)

// ErrNotFound matches any failure to locate or start the engine binary.
var ErrNotFound = errors.New("container engine not found")

// NotFoundError reports an engine binary that is missing, not
// executable, or cannot be started.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	message := fmt.Sprintf("container engine not found at %q", e.Path)
	if e.Err != nil {
		message += ": " + e.Err.Error()
	}
	return message + ". Install Apple's container tool or set " + PathEnvVar + " to its location"
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// UnresponsiveError reports an engine binary that started but exited
// non-zero when asked for its version.
type UnresponsiveError struct {
	Path     string
	ExitCode int
}

func (e *UnresponsiveError) Error() string {
	return fmt.Sprintf("container engine at %q exited with status %d when asked for its version. "+
		"Reinstall Apple's container tool or check your %s setting", e.Path, e.ExitCode, PathEnvVar)
}

// PreflightCache remembers which engine paths have already passed
// preflight in this process, so later commands skip the --version
// probe. It is safe for concurrent use.
type PreflightCache struct {
	mu       sync.Mutex
	verified map[string]bool
}

// NewPreflightCache returns an empty cache.
func NewPreflightCache() *PreflightCache {
	return &PreflightCache{verified: make(map[string]bool)}
}

// Verified reports whether path has passed preflight.
func (c *PreflightCache) Verified(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.verified[path]
}

// MarkVerified records a successful preflight of path.
func (c *PreflightCache) MarkVerified(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verified[path] = true
}

// Reset forgets every verified path.
func (c *PreflightCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.verified)
}

// Probe checks that the engine at path is reachable and responsive. An
// absolute path must name an executable regular file. The binary is then
// run with --version and must exit zero. A missing or unstartable binary
// yields *NotFoundError; a non-zero exit yields *UnresponsiveError.
func Probe(ctx context.Context, path string) error {
	if filepath.IsAbs(path) {
		if err := checkExecutable(path); err != nil {
			return &NotFoundError{Path: path, Err: err}
		}
	}

	command := exec.CommandContext(ctx, path, "--version")
	err := command.Run()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &UnresponsiveError{Path: path, ExitCode: ExitCode(exitErr.ProcessState)}
	}
	return &NotFoundError{Path: path, Err: err}
}

func checkExecutable(path string) error {
	var stat unix.Stat_t
	if err := unix.Stat(path, &stat); err != nil {
		return err
	}
	if stat.Mode&unix.S_IFMT != unix.S_IFREG {
		return fmt.Errorf("not a regular file")
	}
	if err := unix.Access(path, unix.X_OK); err != nil {
		return fmt.Errorf("not executable: %w", err)
	}
	return nil
}

// Preflight probes the engine once per process when a cache is
// attached, and on every call otherwise.
func (e *Engine) Preflight(ctx context.Context) error {
	if e.Cache != nil && e.Cache.Verified(e.Path) {
		return nil
	}
	if err := Probe(ctx, e.Path); err != nil {
		return err
	}
	if e.Cache != nil {
		e.Cache.MarkVerified(e.Path)
	}
	e.Logger.Debug("container engine responded", "path", e.Path)
	return nil
}
