// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"errors"
	"testing"
)

func TestReport(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	Report(&out, errors.New("image spawn-go:latest not found"))
	if got, want := out.String(), "error: image spawn-go:latest not found\n"; got != want {
		t.Errorf("Report wrote %q, want %q", got, want)
	}
}

func TestExitPipelineFailureIsOutsideShellRange(t *testing.T) {
	t.Parallel()

	// 126 and 127 mean "not executable" and "not found" to shells, and
	// 128+N means "killed by signal N".
	if ExitPipelineFailure >= 126 || ExitPipelineFailure == 0 {
		t.Errorf("ExitPipelineFailure = %d collides with a shell convention", ExitPipelineFailure)
	}
}
