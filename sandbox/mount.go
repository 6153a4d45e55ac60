// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"path"
	"path/filepath"
)

// Fixed locations inside every sandbox image.
const (
	// WorkspaceRoot is where derived mounts land.
	WorkspaceRoot = "/workspace"

	// SandboxHome is the home directory of the unprivileged user
	// agents run as.
	SandboxHome = "/home/coder"
)

// Mount binds one host path into the sandbox.
type Mount struct {
	HostPath    string `json:"host_path"`
	SandboxPath string `json:"sandbox_path"`
	ReadOnly    bool   `json:"read_only,omitempty"`
}

// WorkspaceMount derives a mount for hostPath at
// /workspace/<basename(hostPath)>.
func WorkspaceMount(hostPath string, readOnly bool) Mount {
	cleaned := filepath.Clean(hostPath)
	return Mount{
		HostPath:    cleaned,
		SandboxPath: path.Join(WorkspaceRoot, filepath.Base(cleaned)),
		ReadOnly:    readOnly,
	}
}

// VolumeSpec renders the mount as host:sandbox[:ro].
func (m Mount) VolumeSpec() string {
	spec := m.HostPath + ":" + m.SandboxPath
	if m.ReadOnly {
		spec += ":ro"
	}
	return spec
}
