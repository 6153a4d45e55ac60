// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
)

// MountRequest is the input to MountResolver.Resolve.
type MountRequest struct {
	// Target is the primary workspace. Its mount is always first and
	// determines the sandbox working directory.
	Target string

	// ReadWrite and ReadOnly are additional host directories mounted
	// under /workspace in the order given.
	ReadWrite []string
	ReadOnly  []string

	// IncludeGit stages VCS identity, SSH, and forge CLI credentials.
	IncludeGit bool

	// Agent selects the persistent state mounts. Unknown names get
	// none.
	Agent string
}

// MountResolution is the ordered mount list plus advisory failures.
type MountResolution struct {
	Mounts   []Mount
	Warnings []error
}

// MountResolver builds sandbox mount lists.
type MountResolver struct {
	// Home is the host user's home directory, the source of staged
	// credentials.
	Home string

	// StateDir is spawn's state root. Staged credentials and agent
	// state live beneath it.
	StateDir string
}

// Resolve returns mounts in a fixed order: the target, read-write
// extras, read-only extras, staged credentials, then agent state.
// Staging and directory creation failures are reported as warnings and
// the affected mount is omitted; they never fail the resolution.
func (r MountResolver) Resolve(req MountRequest) MountResolution {
	var resolution MountResolution

	resolution.Mounts = append(resolution.Mounts, WorkspaceMount(req.Target, false))
	for _, dir := range req.ReadWrite {
		resolution.Mounts = append(resolution.Mounts, WorkspaceMount(dir, false))
	}
	for _, dir := range req.ReadOnly {
		resolution.Mounts = append(resolution.Mounts, WorkspaceMount(dir, true))
	}

	if req.IncludeGit {
		for _, stage := range []func(home, stateDir string) (Mount, bool, error){
			stageGitConfig,
			stageSSH,
			stageForgeAuth,
		} {
			mount, ok, err := stage(r.Home, r.StateDir)
			if err != nil {
				resolution.Warnings = append(resolution.Warnings, err)
				continue
			}
			if ok {
				resolution.Mounts = append(resolution.Mounts, mount)
			}
		}
	}

	profile, ok := LookupAgent(req.Agent)
	if !ok {
		return resolution
	}
	agentDir := filepath.Join(r.StateDir, profile.Name)
	for _, state := range profile.StateMounts {
		hostPath := filepath.Join(agentDir, state.Subdir)
		if err := os.MkdirAll(hostPath, 0o700); err != nil {
			resolution.Warnings = append(resolution.Warnings,
				fmt.Errorf("creating agent state directory %s: %w", hostPath, err))
			continue
		}
		resolution.Mounts = append(resolution.Mounts, Mount{HostPath: hostPath, SandboxPath: state.SandboxPath})
	}
	return resolution
}

// SettingsDir returns the host directory holding the agent's settings
// document, or "" when the agent has none.
func (r MountResolver) SettingsDir(profile AgentProfile) string {
	if profile.SettingsDir == "" {
		return ""
	}
	return filepath.Join(r.StateDir, profile.Name, profile.SettingsDir)
}
