// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

// Package toolchain selects the prebuilt sandbox image family for a
// project.
//
// A toolchain is one of a closed set of presets (base, cpp, rust, go).
// [Detect] inspects a project directory and picks one, or reports that
// the project ships its own container build file. [Render] produces the
// Containerfile that builds each toolchain's image.
package toolchain

import (
	"fmt"
	"strings"
)

// Toolchain names an image preset.
type Toolchain string

const (
	Base Toolchain = "base"
	CPP  Toolchain = "cpp"
	Rust Toolchain = "rust"
	Go   Toolchain = "go"
)

// All returns every toolchain in build order. Base comes first because
// the others are built FROM it.
func All() []Toolchain {
	return []Toolchain{Base, CPP, Rust, Go}
}

// Names returns the toolchain names in build order.
func Names() []string {
	all := All()
	names := make([]string, len(all))
	for i, tc := range all {
		names[i] = string(tc)
	}
	return names
}

// UnknownError reports a toolchain name outside the closed set.
type UnknownError struct {
	Name string
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("unknown toolchain %q (valid: %s)", e.Name, strings.Join(Names(), ", "))
}

// Parse converts a name into a Toolchain.
func Parse(name string) (Toolchain, error) {
	for _, tc := range All() {
		if string(tc) == name {
			return tc, nil
		}
	}
	return "", &UnknownError{Name: name}
}

// ImageName returns "<prefix>-<toolchain>" without a tag.
func (tc Toolchain) ImageName(prefix string) string {
	return prefix + "-" + string(tc)
}

// ImageReference returns "<prefix>-<toolchain>:latest".
func (tc Toolchain) ImageReference(prefix string) string {
	return tc.ImageName(prefix) + ":latest"
}

// fromImageName maps a free-form image or feature name to a toolchain
// by substring. Anything unrecognized is base.
func fromImageName(name string) Toolchain {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "rust"):
		return Rust
	case strings.Contains(lower, "golang"), strings.Contains(lower, "go"):
		return Go
	case strings.Contains(lower, "cpp"), strings.Contains(lower, "c++"):
		return CPP
	default:
		return Base
	}
}
