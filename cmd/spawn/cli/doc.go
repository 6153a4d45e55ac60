// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework behind the spawn binary.
//
// A [Command] tree is built once and driven by [Command.Execute].
// Flags come from params structs whose fields carry flag, desc, and
// default struct tags ([BindFlags]). Unknown commands and flags get
// edit-distance suggestions. [ToolError] categorizes failures,
// [ExitError] carries an exit status that is an outcome rather than a
// failure, and [JSONOutput] adds --json to any command.
package cli
