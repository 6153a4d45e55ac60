// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

// Package sandbox turns a resolved run request into a container engine
// invocation and runs it.
//
// [MountResolver] builds the ordered mount list: the workspace, extra
// read-write and read-only directories, staged credentials, and the
// agent's persistent state. Credentials are copied into spawn's state
// directory on every run rather than bind-mounted from their host
// locations, so the sandbox sees files it can read with modes the host
// chose, and never follows a symlink out of ~/.ssh.
//
// [AgentProfile] describes each supported agent: its entrypoints for
// safe and unrestricted mode, resource defaults, and which state
// directories it persists.
//
// [LaunchPlan] is the fully resolved invocation. [RunArgs] renders it as
// engine arguments and [RedactArgs] hides environment values for
// logging. [Launcher] runs it, either replacing the current process
// (interactive terminal) or supervising a child and forwarding signals.
package sandbox
