// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ErrorCategory classifies command errors by what the user has to fix.
type ErrorCategory string

const (
	// CategoryValidation indicates the caller provided invalid input:
	// wrong argument count, unknown names, unparseable values.
	CategoryValidation ErrorCategory = "validation"

	// CategoryEnvironment indicates the host is missing something the
	// command needs, such as the container engine.
	CategoryEnvironment ErrorCategory = "environment"

	// CategoryNotFound indicates a referenced resource does not exist.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryRuntime indicates an operation failed while running.
	CategoryRuntime ErrorCategory = "runtime"
)

// ToolError is a categorized error returned by CLI commands. It wraps
// an inner error, preserving the full chain for errors.Is and errors.As.
type ToolError struct {
	Category ErrorCategory
	Err      error
}

// Error returns the underlying error message. The category is not
// part of the text.
func (e *ToolError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error.
func (e *ToolError) Unwrap() error { return e.Err }

// Validation creates a validation error: the caller provided bad input.
func Validation(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// Environment creates an environment error: the host is not ready.
func Environment(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryEnvironment, Err: fmt.Errorf(format, args...)}
}

// NotFound creates a not-found error: a referenced resource does not exist.
func NotFound(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryNotFound, Err: fmt.Errorf(format, args...)}
}

// Runtime creates a runtime error: an operation failed.
func Runtime(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryRuntime, Err: fmt.Errorf(format, args...)}
}
