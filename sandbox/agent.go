// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"fmt"
	"path"
	"slices"
	"sort"
	"strings"
)

// StateMount binds a subdirectory of an agent's persistent state
// directory to a fixed path in the sandbox.
type StateMount struct {
	Subdir      string
	SandboxPath string
}

// AgentProfile describes how to launch one supported agent.
type AgentProfile struct {
	Name string

	// SafeEntrypoint runs the agent with interactive approval for
	// remote-mutating operations. UnrestrictedEntrypoint skips it.
	SafeEntrypoint         []string
	UnrestrictedEntrypoint []string

	// RequiredEnv lists keys the agent cannot work without. Missing
	// keys produce warnings, since the agent may authenticate another
	// way.
	RequiredEnv []string

	CPUs   int
	Memory string

	// StateMounts persist authentication and config across sandboxes.
	StateMounts []StateMount

	// SettingsDir is the state subdirectory holding the agent's
	// permission settings document. Empty means the agent has no
	// document spawn knows how to seed.
	SettingsDir string
}

// agentProfiles is the compiled-in registry of supported agents.
var agentProfiles = map[string]AgentProfile{
	"claude-code": {
		Name:                   "claude-code",
		SafeEntrypoint:         []string{"claude"},
		UnrestrictedEntrypoint: []string{"claude", "--dangerously-skip-permissions"},
		CPUs:                   4,
		Memory:                 "8g",
		StateMounts: []StateMount{
			{Subdir: "claude", SandboxPath: path.Join(SandboxHome, ".claude")},
			{Subdir: "claude-state", SandboxPath: path.Join(SandboxHome, ".claude-state")},
		},
		SettingsDir: "claude",
	},
	"codex": {
		Name:                   "codex",
		SafeEntrypoint:         []string{"codex", "--full-auto"},
		UnrestrictedEntrypoint: []string{"codex", "--full-auto"},
		CPUs:                   4,
		Memory:                 "8g",
		StateMounts: []StateMount{
			{Subdir: "codex", SandboxPath: path.Join(SandboxHome, ".codex")},
		},
	},
}

// UnknownAgentError reports an agent name with no profile.
type UnknownAgentError struct {
	Name string
}

func (e *UnknownAgentError) Error() string {
	return fmt.Sprintf("unknown agent %q (supported: %s)", e.Name, strings.Join(AgentNames(), ", "))
}

// AgentNames returns the supported agent names, sorted.
func AgentNames() []string {
	names := make([]string, 0, len(agentProfiles))
	for name := range agentProfiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupAgent returns a copy of the named profile.
func LookupAgent(name string) (AgentProfile, bool) {
	profile, ok := agentProfiles[name]
	if !ok {
		return AgentProfile{}, false
	}
	profile.SafeEntrypoint = slices.Clone(profile.SafeEntrypoint)
	profile.UnrestrictedEntrypoint = slices.Clone(profile.UnrestrictedEntrypoint)
	profile.RequiredEnv = slices.Clone(profile.RequiredEnv)
	profile.StateMounts = slices.Clone(profile.StateMounts)
	return profile, true
}

// Agent is LookupAgent with an error for unknown names.
func Agent(name string) (AgentProfile, error) {
	profile, ok := LookupAgent(name)
	if !ok {
		return AgentProfile{}, &UnknownAgentError{Name: name}
	}
	return profile, nil
}

// Entrypoint returns the agent command for the requested posture.
func (p AgentProfile) Entrypoint(unrestricted bool) []string {
	if unrestricted {
		return slices.Clone(p.UnrestrictedEntrypoint)
	}
	return slices.Clone(p.SafeEntrypoint)
}
