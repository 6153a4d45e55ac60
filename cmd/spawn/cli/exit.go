// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError carries an exit status that main passes straight to
// os.Exit without printing anything. Commands return it when a non-zero
// exit is an outcome rather than a failure: the sandbox's own status,
// an engine passthrough, or a doctor run with failed checks.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code. main checks for this interface on
// returned errors to distinguish "handled non-zero exit" from
// "unexpected error to display".
func (e *ExitError) ExitCode() int {
	return e.Code
}

// ExitWith returns nil for code 0 and an *ExitError otherwise.
func ExitWith(code int) error {
	if code == 0 {
		return nil
	}
	return &ExitError{Code: code}
}
