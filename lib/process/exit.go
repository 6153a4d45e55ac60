// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the exit conventions shared by spawn's entry
// point.
package process

import (
	"fmt"
	"io"
	"os"
)

// ExitPipelineFailure is the exit code used when spawn fails before a
// sandbox process produces a status of its own. It matches the
// convention container engines use for "the launcher itself failed",
// so callers can tell it apart from an agent's own exit codes.
const ExitPipelineFailure = 125

// Report writes "error: err" to w.
func Report(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %v\n", err)
}

// Fatal reports err to stderr and exits with ExitPipelineFailure.
func Fatal(err error) {
	Report(os.Stderr, err)
	os.Exit(ExitPipelineFailure)
}
