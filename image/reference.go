// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

// Package image resolves and inspects the container images sandboxes
// run from.
//
// [Resolver] maps a toolchain to its canonical image reference or
// validates a user-supplied override. [Store] answers read-only
// questions about what the engine has installed by reading its on-disk
// image index.
package image

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/distribution/reference"
	"github.com/opencontainers/go-digest"

	"github.com/spawn-dev/spawn/lib/config"
	"github.com/spawn-dev/spawn/toolchain"
)

// MaxReferenceLength bounds the whole reference string.
const MaxReferenceLength = 255

// InvalidReferenceError reports an image reference that does not obey
// the naming grammar. The message always includes the rejected string.
type InvalidReferenceError struct {
	Reference string
	Reason    string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("invalid image reference %q: %s", e.Reference, e.Reason)
}

var bareHexPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// ValidateReference checks ref against the OCI-style grammar
// [domain[:port]/]path[:tag][@sha256:<64 hex>]. Path components are
// lowercase; tags are at most 128 characters. A bare 64-character hex
// string is rejected because it is indistinguishable from an image ID.
func ValidateReference(ref string) error {
	if ref == "" {
		return &InvalidReferenceError{Reference: ref, Reason: "reference is empty"}
	}
	if len(ref) > MaxReferenceLength {
		return &InvalidReferenceError{Reference: ref, Reason: fmt.Sprintf("longer than %d characters", MaxReferenceLength)}
	}
	if bareHexPattern.MatchString(ref) {
		return &InvalidReferenceError{Reference: ref, Reason: "a bare 64-character hex string is ambiguous with an image digest"}
	}

	parsed, err := reference.Parse(ref)
	if err != nil {
		return &InvalidReferenceError{Reference: ref, Reason: describeParseError(err)}
	}
	if digested, ok := parsed.(reference.Digested); ok {
		if algorithm := digested.Digest().Algorithm(); algorithm != digest.SHA256 {
			return &InvalidReferenceError{Reference: ref, Reason: fmt.Sprintf("digest algorithm %q is not sha256", algorithm)}
		}
	}
	return nil
}

func describeParseError(err error) string {
	switch {
	case errors.Is(err, reference.ErrNameContainsUppercase):
		return "repository name must be lowercase"
	case errors.Is(err, reference.ErrNameTooLong):
		return fmt.Sprintf("repository name longer than %d characters", reference.NameTotalLengthMax)
	case errors.Is(err, reference.ErrDigestInvalidFormat), errors.Is(err, digest.ErrDigestInvalidFormat),
		errors.Is(err, digest.ErrDigestInvalidLength), errors.Is(err, digest.ErrDigestUnsupported):
		return "digest must be sha256: followed by 64 hex characters"
	default:
		return err.Error()
	}
}

// Resolver turns a toolchain, plus an optional override, into the image
// reference a sandbox runs.
type Resolver struct {
	// Prefix names the image family: <Prefix>-<toolchain>:latest.
	Prefix string
}

// NewResolver returns a Resolver using prefix, or the default prefix
// when empty.
func NewResolver(prefix string) Resolver {
	if prefix == "" {
		prefix = config.DefaultImagePrefix
	}
	return Resolver{Prefix: prefix}
}

// Canonical returns the reference spawn builds for tc.
func (r Resolver) Canonical(tc toolchain.Toolchain) string {
	return tc.ImageReference(r.Prefix)
}

// Base returns the canonical base image reference.
func (r Resolver) Base() string {
	return r.Canonical(toolchain.Base)
}

// Resolve returns override when non-empty and valid, otherwise the
// canonical reference for tc. It performs no I/O.
func (r Resolver) Resolve(tc toolchain.Toolchain, override string) (string, error) {
	if override == "" {
		return r.Canonical(tc), nil
	}
	if err := ValidateReference(override); err != nil {
		return "", err
	}
	return override, nil
}

var projectNameInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Project returns the reference for an image built from a project's own
// container build file: <prefix>-project-<name>:latest, where name is
// the directory basename folded to lowercase alphanumerics and dashes.
func (r Resolver) Project(dirName string) string {
	name := projectNameInvalid.ReplaceAllString(strings.ToLower(dirName), "-")
	name = strings.Trim(name, "-")
	if name == "" {
		name = "workspace"
	}
	return fmt.Sprintf("%s-project-%s:latest", r.Prefix, name)
}
