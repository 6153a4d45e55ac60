// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

package toolchain

import (
	"bytes"
	"embed"
	"fmt"
	"runtime"
	"text/template"
)

//go:embed containerfiles/*.Containerfile
var containerfiles embed.FS

// templateFiles maps each toolchain to its embedded Containerfile.
var templateFiles = map[Toolchain]string{
	Base: "containerfiles/base.Containerfile",
	CPP:  "containerfiles/cpp.Containerfile",
	Rust: "containerfiles/rust.Containerfile",
	Go:   "containerfiles/go.Containerfile",
}

// Pinned tool versions baked into the images.
const (
	GoVersion    = "1.24.0"
	ClangVersion = "21"
)

// TemplateParams are substituted into every Containerfile.
type TemplateParams struct {
	// BaseImage is the reference non-base toolchains build FROM.
	BaseImage string

	// User is the unprivileged account agents run as.
	User string

	GoVersion    string
	GoArch       string
	ClangVersion string
}

// DefaultParams returns the parameters for images named with prefix,
// targeting the host architecture.
func DefaultParams(prefix string) TemplateParams {
	return TemplateParams{
		BaseImage:    Base.ImageReference(prefix),
		User:         "coder",
		GoVersion:    GoVersion,
		GoArch:       goArch(runtime.GOARCH),
		ClangVersion: ClangVersion,
	}
}

// goArch maps GOARCH to the architecture names used in Go release
// tarballs that the images support.
func goArch(arch string) string {
	if arch == "arm64" {
		return "arm64"
	}
	return "amd64"
}

// Render returns the Containerfile for tc.
func Render(tc Toolchain, params TemplateParams) ([]byte, error) {
	name, ok := templateFiles[tc]
	if !ok {
		return nil, &UnknownError{Name: string(tc)}
	}
	source, err := containerfiles.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("reading embedded %s: %w", name, err)
	}
	parsed, err := template.New(name).Option("missingkey=error").Parse(string(source))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	var rendered bytes.Buffer
	if err := parsed.Execute(&rendered, params); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", name, err)
	}
	return rendered.Bytes(), nil
}
