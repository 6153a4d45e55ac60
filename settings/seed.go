// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

// Package settings seeds an agent's persisted settings document with the
// safe-mode permission policy.
//
// Seeding is a one-way gate: the default policy is written only when
// the document has no "permissions" key at all. Once anything, even an
// empty object, occupies that key the document belongs to the user and
// is never touched again. A document that cannot be parsed is also left
// alone.
package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// FileName is the settings document inside a settings directory.
const FileName = "settings.json"

// DefaultAllow lets the agent run local version control and build tools
// without prompting.
var DefaultAllow = []string{
	"Bash(git add:*)",
	"Bash(git commit:*)",
	"Bash(git diff:*)",
	"Bash(git status:*)",
	"Bash(git log:*)",
	"Bash(git branch:*)",
	"Bash(git checkout:*)",
	"Bash(git switch:*)",
	"Bash(git stash:*)",
	"Bash(git rebase:*)",
	"Bash(git reset:*)",
	"Bash(git restore:*)",
	"Bash(git show:*)",
	"Bash(git tag:*)",
	"Bash(git fetch:*)",
	"Bash(git pull:*)",
	"Bash(git merge:*)",
	"Bash(make:*)",
	"Bash(swift:*)",
	"Bash(cargo:*)",
	"Bash(go:*)",
	"Bash(cmake:*)",
	"Bash(ninja:*)",
	"Bash(npm:*)",
	"Bash(node:*)",
	"Bash(python:*)",
	"Bash(pip:*)",
}

// DefaultDeny blocks operations that mutate remote repositories or
// forge state.
var DefaultDeny = []string{
	"Bash(git push:*)",
	"Bash(git remote add:*)",
	"Bash(git remote set-url:*)",
	"Bash(gh pr create:*)",
	"Bash(gh pr merge:*)",
	"Bash(gh pr close:*)",
	"Bash(gh issue create:*)",
	"Bash(gh issue close:*)",
	"Bash(gh release:*)",
	"Bash(gh repo:*)",
}

// Action is what Seed did.
type Action string

const (
	Seeded            Action = "seeded"
	SkippedCustomized Action = "skipped-customized"
	SkippedMalformed  Action = "skipped-malformed"
	Failed            Action = "failed"
)

// Result reports the outcome of Seed. Err is set for SkippedMalformed
// and Failed.
type Result struct {
	Action Action
	Path   string
	Err    error
}

// Advisory reports whether the result deserves a warning.
func (r Result) Advisory() bool {
	return r.Action == SkippedMalformed || r.Action == Failed
}

// Seed merges the default permission policy into dir/settings.json when
// the document has no permissions key. It never returns an error:
// failures are reported in the Result so callers can log them and carry
// on.
func Seed(dir string) Result {
	path := filepath.Join(dir, FileName)

	document := map[string]any{}
	mode := fs.FileMode(0o644)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		parsed, parseErr := decodeObject(data)
		if parseErr != nil {
			return Result{Action: SkippedMalformed, Path: path, Err: parseErr}
		}
		document = parsed
		if info, statErr := os.Stat(path); statErr == nil {
			mode = info.Mode().Perm()
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return Result{Action: Failed, Path: path, Err: fmt.Errorf("reading %s: %w", path, err)}
	}

	if _, ok := document["permissions"]; ok {
		return Result{Action: SkippedCustomized, Path: path}
	}

	document["permissions"] = map[string]any{
		"allow": DefaultAllow,
		"deny":  DefaultDeny,
	}

	// encoding/json sorts map keys, so output is deterministic. User
	// strings such as shell commands keep their & < > characters.
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(document); err != nil {
		return Result{Action: Failed, Path: path, Err: fmt.Errorf("encoding settings: %w", err)}
	}
	encoded := buffer.Bytes()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{Action: Failed, Path: path, Err: fmt.Errorf("creating %s: %w", dir, err)}
	}
	if err := writeAtomic(path, encoded, mode); err != nil {
		return Result{Action: Failed, Path: path, Err: err}
	}
	return Result{Action: Seeded, Path: path}
}

// decodeObject parses data as a single JSON object, keeping numbers in
// their original textual form.
func decodeObject(data []byte) (map[string]any, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("parsing settings: %w", err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing settings: trailing data after JSON object")
	}
	object, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("parsing settings: top level is %T, not an object", value)
	}
	return object, nil
}

// writeAtomic replaces path with data via a temporary file in the same
// directory, so a crash never leaves a truncated document behind.
func writeAtomic(path string, data []byte, mode fs.FileMode) error {
	temp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temporary settings file: %w", err)
	}
	tempPath := temp.Name()
	defer os.Remove(tempPath)

	if _, err := temp.Write(data); err != nil {
		temp.Close()
		return fmt.Errorf("writing %s: %w", tempPath, err)
	}
	if err := temp.Chmod(mode); err != nil {
		temp.Close()
		return fmt.Errorf("setting mode on %s: %w", tempPath, err)
	}
	if err := temp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
