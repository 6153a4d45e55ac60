// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for spawn packages.
//
// [WriteTree] lays out a directory of files from a map, which is how
// most detection and staging tests describe their fixtures.
// [FakeEngine] writes a shell script standing in for the container
// engine binary. [RequireReceive] wraps the select-with-timeout pattern
// so tests never hang on a channel.
//
// All helpers call t.Fatalf on failure rather than returning errors.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// WriteTree creates files under root. Keys are slash-separated relative
// paths; parent directories are created as needed.
func WriteTree(t testing.TB, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("creating parent of %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
}

// TempTree creates a fresh temporary directory populated by WriteTree.
func TempTree(t testing.TB, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	WriteTree(t, root, files)
	return root
}

// FakeEngine writes an executable /bin/sh script named "container" into
// a new temporary directory and returns its absolute path. The body
// runs with the engine's arguments in "$@".
func FakeEngine(t testing.TB, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "container")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("writing fake engine: %v", err)
	}
	return path
}

// RequireReceive reads one value from ch within timeout, or fails the
// test.
//
//	code := testutil.RequireReceive(t, done, 5*time.Second, "waiting for child exit")
func RequireReceive[T any](t interface {
	Helper()
	Fatalf(format string, args ...any)
}, ch <-chan T, timeout time.Duration, msgAndArgs ...any) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed without sending a value: %s", formatMessage(msgAndArgs))
		}
		return v
	case <-time.After(timeout):
		t.Fatalf("timed out after %v: %s", timeout, formatMessage(msgAndArgs))
	}
	panic("unreachable")
}

func formatMessage(msgAndArgs []any) string {
	if len(msgAndArgs) == 0 {
		return "(no message)"
	}
	if format, ok := msgAndArgs[0].(string); ok {
		return fmt.Sprintf(format, msgAndArgs[1:]...)
	}
	return fmt.Sprint(msgAndArgs...)
}
