// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

package toolchain

import (
	"os"
	"path/filepath"
)

// Source records which signal decided a Detection.
type Source string

const (
	SourceProjectConfig Source = "project-config"
	SourceDevcontainer  Source = "devcontainer"
	SourceBuildFile     Source = "build-file"
	SourceMarkers       Source = "markers"
	SourceDefault       Source = "default"
)

// Detection is the outcome of inspecting a project directory. Exactly
// one of Toolchain and BuildFile is set: a toolchain selects a prebuilt
// image, a build file means the project's own Containerfile should be
// built instead.
type Detection struct {
	Toolchain Toolchain

	// BuildFile is the absolute path of the project's container build
	// file and BuildContext the directory it builds from.
	BuildFile    string
	BuildContext string

	Source Source

	// ContainerEnv carries devcontainer containerEnv entries.
	ContainerEnv map[string]string
}

// UsesBuildFile reports whether the project should be built from its
// own container build file.
func (d Detection) UsesBuildFile() bool {
	return d.BuildFile != ""
}

// buildFiles are checked at the project root in order.
var buildFiles = []string{"Dockerfile", "Containerfile"}

// markers map language marker files to toolchains, first match wins.
var markers = []struct {
	files     []string
	toolchain Toolchain
}{
	{[]string{"Cargo.toml", "rust-toolchain.toml"}, Rust},
	{[]string{"go.mod", "go.sum"}, Go},
	{[]string{"CMakeLists.txt", "Makefile"}, CPP},
}

// Detect picks a toolchain for dir. Signals are consulted in priority
// order: .spawn.toml, devcontainer.json, a root Dockerfile or
// Containerfile, then language marker files. Unreadable or malformed
// signal files are treated as absent.
func Detect(dir string) Detection {
	if tc, ok := readProjectConfig(dir); ok {
		return Detection{Toolchain: tc, Source: SourceProjectConfig}
	}

	if descriptor, ok := readDevcontainer(dir); ok {
		return descriptor.resolve()
	}

	for _, name := range buildFiles {
		path := filepath.Join(dir, name)
		if isFile(path) {
			return Detection{BuildFile: path, BuildContext: dir, Source: SourceBuildFile}
		}
	}

	for _, marker := range markers {
		for _, name := range marker.files {
			if fileExists(filepath.Join(dir, name)) {
				return Detection{Toolchain: marker.toolchain, Source: SourceMarkers}
			}
		}
	}

	return Detection{Toolchain: Base, Source: SourceDefault}
}

// DetectToolchain reports the toolchain for dir. ok is false when the
// project's own build file should be used instead of a prebuilt image.
func DetectToolchain(dir string) (tc Toolchain, ok bool) {
	detection := Detect(dir)
	if detection.UsesBuildFile() {
		return "", false
	}
	return detection.Toolchain, true
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
