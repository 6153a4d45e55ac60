// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

// Package envfile parses KEY=VALUE environment files and assembles the
// environment injected into a sandbox.
//
// The file format is line oriented. Blank lines and lines whose trimmed
// form starts with '#' are skipped. Every other line is split on its
// first '=' so values may contain '='. Keys and values are trimmed, and
// a value wrapped in a matching pair of single or double quotes has the
// quotes removed. There is no escaping and no variable interpolation.
package envfile

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"filippo.io/age"

	"github.com/spawn-dev/spawn/lib/sealed"
)

// Parse returns the mapping described by text. Lines without '=' and
// lines with an empty key contribute nothing. Later lines override
// earlier ones.
func Parse(text string) map[string]string {
	result := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		key, value, ok := ParseKeyValue(trimmed)
		if !ok || key == "" {
			continue
		}
		result[key] = value
	}
	return result
}

// ParseKeyValue splits a single KEY=VALUE assignment on its first '='.
// ok is false only when line contains no '='; "FOO=" yields an empty
// value.
func ParseKeyValue(line string) (key, value string, ok bool) {
	key, value, ok = strings.Cut(line, "=")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(key), unquote(strings.TrimSpace(value)), true
}

func unquote(value string) string {
	if len(value) < 2 {
		return value
	}
	first, last := value[0], value[len(value)-1]
	if (first == '"' || first == '\'') && first == last {
		return value[1 : len(value)-1]
	}
	return value
}

// Load reads and parses the env file at path. Paths ending in ".age"
// are decrypted with identities first.
func Load(path string, identities ...age.Identity) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if sealed.IsSealed(path) {
		data, err = sealed.Open(data, identities...)
		if err != nil {
			return nil, fmt.Errorf("opening sealed env file %s: %w", path, err)
		}
	}
	return Parse(string(data)), nil
}

// Missing returns the required keys absent from env, sorted.
func Missing(required []string, env map[string]string) []string {
	var missing []string
	for _, key := range required {
		if _, ok := env[key]; !ok {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}

// InvalidError reports user input that cannot be turned into an
// environment: a malformed override or an unreadable explicit env file.
type InvalidError struct {
	Input  string
	Reason string
	Err    error
}

func (e *InvalidError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %q: %v", e.Reason, e.Input, e.Err)
	}
	return fmt.Sprintf("%s %q", e.Reason, e.Input)
}

func (e *InvalidError) Unwrap() error { return e.Err }

// Sources describes the layers that make up a sandbox environment,
// lowest precedence first.
type Sources struct {
	// Base seeds the environment before any file is read. The
	// devcontainer's containerEnv lands here.
	Base map[string]string

	// DefaultPath is read when ExplicitPath is empty. A missing
	// default file is not an error.
	DefaultPath string

	// ExplicitPath replaces DefaultPath entirely when set. It must
	// exist.
	ExplicitPath string

	// Overrides are KEY=VALUE assignments applied last, in order.
	Overrides []string

	// Identities decrypt sealed env files.
	Identities []age.Identity
}

// ParseOverrides validates KEY=VALUE assignments without applying them.
// It is used to reject malformed input before any other work happens.
func ParseOverrides(overrides []string) ([][2]string, error) {
	parsed := make([][2]string, 0, len(overrides))
	for _, override := range overrides {
		key, value, ok := ParseKeyValue(override)
		if !ok {
			return nil, &InvalidError{Input: override, Reason: "env override is not KEY=VALUE"}
		}
		if key == "" {
			return nil, &InvalidError{Input: override, Reason: "env override has an empty key"}
		}
		parsed = append(parsed, [2]string{key, value})
	}
	return parsed, nil
}

// Assemble layers the sources into a single mapping.
func Assemble(sources Sources) (map[string]string, error) {
	env := make(map[string]string, len(sources.Base))
	for key, value := range sources.Base {
		env[key] = value
	}

	var fileValues map[string]string
	switch {
	case sources.ExplicitPath != "":
		values, err := Load(sources.ExplicitPath, sources.Identities...)
		if err != nil {
			return nil, &InvalidError{Input: sources.ExplicitPath, Reason: "cannot read env file", Err: err}
		}
		fileValues = values
	case sources.DefaultPath != "":
		values, err := Load(sources.DefaultPath, sources.Identities...)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading default env file %s: %w", sources.DefaultPath, err)
		}
		fileValues = values
	}
	for key, value := range fileValues {
		env[key] = value
	}

	overrides, err := ParseOverrides(sources.Overrides)
	if err != nil {
		return nil, err
	}
	for _, pair := range overrides {
		env[pair[0]] = pair[1]
	}
	return env, nil
}
