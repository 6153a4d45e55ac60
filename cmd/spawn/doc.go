// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

// Spawn runs AI coding agents in sandboxed containers.
//
// Usage:
//
//	spawn [path] [agent] [flags]
//	spawn <command> [flags]
//
// Run "spawn --help" for the command list.
package main
