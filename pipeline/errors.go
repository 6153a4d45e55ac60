// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure by what the user has to do about
// it.
type Kind string

const (
	// KindValidation: the request itself is wrong. Raised before any
	// subprocess runs.
	KindValidation Kind = "validation"

	// KindEnvironment: the host is missing something, usually the
	// container engine.
	KindEnvironment Kind = "environment"

	// KindNotFound: the resolved image is not installed.
	KindNotFound Kind = "not_found"

	// KindRuntime: anything else that went wrong while resolving or
	// launching.
	KindRuntime Kind = "runtime"
)

// Error is a classified pipeline failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

func validationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Err: fmt.Errorf(format, args...)}
}

func classify(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the Kind of err, or KindRuntime when err is not a
// pipeline error.
func KindOf(err error) Kind {
	var pipelineErr *Error
	if errors.As(err, &pipelineErr) {
		return pipelineErr.Kind
	}
	return KindRuntime
}
