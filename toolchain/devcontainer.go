// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

package toolchain

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/tidwall/jsonc"
)

// devcontainer is the subset of devcontainer.json spawn reads.
type devcontainer struct {
	Image        string
	Build        *devcontainerBuild
	Features     map[string]json.RawMessage
	ContainerEnv map[string]string

	// dir is the directory containing the descriptor; build paths are
	// relative to it.
	dir string
}

// devcontainerPaths lists descriptor locations in lookup order.
var devcontainerPaths = []string{
	filepath.Join(".devcontainer", "devcontainer.json"),
	".devcontainer.json",
}

// readDevcontainer loads the first descriptor found in dir. The file is
// JSON with comments, so it goes through jsonc before decoding.
func readDevcontainer(dir string) (*devcontainer, bool) {
	for _, relative := range devcontainerPaths {
		path := filepath.Join(dir, relative)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		descriptor, err := decodeDevcontainer(data)
		if err != nil {
			return nil, false
		}
		descriptor.dir = filepath.Dir(path)
		return &descriptor, true
	}
	return nil, false
}

type devcontainerBuild struct {
	Dockerfile string
	Context    string
}

// decodeDevcontainer reads the descriptor's properties by exact name.
// Struct decoding would also accept "IMAGE" or "Build", which
// devcontainer tooling treats as unknown properties.
func decodeDevcontainer(data []byte) (devcontainer, error) {
	var descriptor devcontainer
	var properties map[string]json.RawMessage
	if err := json.Unmarshal(jsonc.ToJSON(data), &properties); err != nil {
		return descriptor, err
	}
	if err := decodeProperty(properties, "image", &descriptor.Image); err != nil {
		return descriptor, err
	}
	if err := decodeProperty(properties, "features", &descriptor.Features); err != nil {
		return descriptor, err
	}
	if err := decodeProperty(properties, "containerEnv", &descriptor.ContainerEnv); err != nil {
		return descriptor, err
	}

	var build map[string]json.RawMessage
	if err := decodeProperty(properties, "build", &build); err != nil {
		return descriptor, err
	}
	if build != nil {
		descriptor.Build = &devcontainerBuild{}
		if err := decodeProperty(build, "dockerfile", &descriptor.Build.Dockerfile); err != nil {
			return descriptor, err
		}
		if err := decodeProperty(build, "context", &descriptor.Build.Context); err != nil {
			return descriptor, err
		}
	}
	return descriptor, nil
}

func decodeProperty(properties map[string]json.RawMessage, name string, target any) error {
	raw, ok := properties[name]
	if !ok {
		return nil
	}
	return json.Unmarshal(raw, target)
}

// resolve applies the devcontainer rules: image wins, then a build
// file, then features, then base.
func (d *devcontainer) resolve() Detection {
	detection := Detection{Source: SourceDevcontainer, ContainerEnv: d.ContainerEnv}

	if d.Image != "" {
		detection.Toolchain = fromImageName(d.Image)
		return detection
	}

	if d.Build != nil && d.Build.Dockerfile != "" {
		detection.BuildFile = filepath.Join(d.dir, d.Build.Dockerfile)
		detection.BuildContext = d.dir
		if d.Build.Context != "" {
			detection.BuildContext = filepath.Join(d.dir, d.Build.Context)
		}
		return detection
	}

	detection.Toolchain = Base
	features := make([]string, 0, len(d.Features))
	for name := range d.Features {
		features = append(features, name)
	}
	sort.Strings(features)
	for _, name := range features {
		if tc := fromImageName(name); tc != Base {
			detection.Toolchain = tc
			break
		}
	}
	return detection
}
