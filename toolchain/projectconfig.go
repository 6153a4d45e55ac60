// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

package toolchain

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ProjectConfigFile is the project-local config consulted first.
const ProjectConfigFile = ".spawn.toml"

// readProjectConfig returns the toolchain named by [toolchain] base in
// dir/.spawn.toml. A missing or unparsable file, a missing key, or an
// unknown toolchain name all report ok=false so detection falls through.
// Keys match exactly; go-toml folds case when decoding into structs, so
// the document is decoded into a map.
func readProjectConfig(dir string) (Toolchain, bool) {
	data, err := os.ReadFile(filepath.Join(dir, ProjectConfigFile))
	if err != nil {
		return "", false
	}
	var document map[string]any
	if err := toml.Unmarshal(data, &document); err != nil {
		return "", false
	}
	section, _ := document["toolchain"].(map[string]any)
	base, _ := section["base"].(string)
	if base == "" {
		return "", false
	}
	tc, err := Parse(base)
	if err != nil {
		return "", false
	}
	return tc, true
}
