// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

// Package xdg resolves spawn's configuration and state roots following
// the XDG base directory convention. Both roots end in a "spawn"
// namespace segment and are created on resolution, so callers can write
// into them without checking for existence first.
package xdg

import (
	"fmt"
	"os"
	"path/filepath"
)

// Namespace is the directory segment appended to both roots.
const Namespace = "spawn"

// Paths holds the resolved roots for one invocation.
type Paths struct {
	// ConfigDir holds user-authored configuration: config.yaml, the
	// default env file, and an optional age identity.
	ConfigDir string

	// StateDir holds tool-managed state: staged credentials, per-agent
	// persistent state, and generated build contexts.
	StateDir string
}

// Resolve computes the config and state roots from getenv and home,
// creating both directories if absent. XDG_CONFIG_HOME and
// XDG_STATE_HOME override the defaults of ~/.config and
// ~/.local/state. An empty variable counts as unset.
func Resolve(getenv func(string) string, home string) (Paths, error) {
	configBase := getenv("XDG_CONFIG_HOME")
	if configBase == "" {
		if home == "" {
			return Paths{}, fmt.Errorf("cannot resolve config root: XDG_CONFIG_HOME and home directory are both empty")
		}
		configBase = filepath.Join(home, ".config")
	}
	stateBase := getenv("XDG_STATE_HOME")
	if stateBase == "" {
		if home == "" {
			return Paths{}, fmt.Errorf("cannot resolve state root: XDG_STATE_HOME and home directory are both empty")
		}
		stateBase = filepath.Join(home, ".local", "state")
	}

	paths := Paths{
		ConfigDir: filepath.Join(configBase, Namespace),
		StateDir:  filepath.Join(stateBase, Namespace),
	}
	for _, dir := range []string{paths.ConfigDir, paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Paths{}, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return paths, nil
}

// EnvFile is the default environment file consulted when no explicit
// env file is given.
func (p Paths) EnvFile() string {
	return filepath.Join(p.ConfigDir, "env")
}

// ConfigFile is the default location of config.yaml.
func (p Paths) ConfigFile() string {
	return filepath.Join(p.ConfigDir, "config.yaml")
}

// IdentityFile is the age identity used to open sealed env files.
func (p Paths) IdentityFile() string {
	return filepath.Join(p.ConfigDir, "identity.txt")
}

// AgentStateDir is the persistent state directory for one agent.
func (p Paths) AgentStateDir(agent string) string {
	return filepath.Join(p.StateDir, agent)
}

// BuildDir holds generated Containerfile build contexts.
func (p Paths) BuildDir() string {
	return filepath.Join(p.StateDir, "build")
}
