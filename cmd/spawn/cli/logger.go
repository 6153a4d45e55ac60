// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// DebugEnvVar switches logging to debug level when set to a non-empty
// value.
const DebugEnvVar = "SPAWN_DEBUG"

// NewLogLevel returns the starting log level: warn, or debug when
// SPAWN_DEBUG is set. Commands raise it to debug for --verbose.
func NewLogLevel(getenv func(string) string) *slog.LevelVar {
	level := new(slog.LevelVar)
	level.Set(slog.LevelWarn)
	if getenv(DebugEnvVar) != "" {
		level.Set(slog.LevelDebug)
	}
	return level
}

// NewCommandLogger creates a structured logger for CLI command operations.
// When stderr is a terminal, uses slog.TextHandler for human-readable output.
// When stderr is piped or redirected (CI, scripts, wrappers), uses
// slog.JSONHandler for machine-parseable output.
func NewCommandLogger(level *slog.LevelVar) *slog.Logger {
	var handler slog.Handler
	options := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}
