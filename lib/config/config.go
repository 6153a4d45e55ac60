// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads spawn's optional YAML configuration.
//
// The file lives at <config root>/config.yaml unless SPAWN_CONFIG names
// another path. Every field has a default, so a missing file is
// equivalent to an empty one. String fields support ${VAR} and
// ${VAR:-default} expansion after loading.
//
// CLI flags always win over values from this file; the file only moves
// the defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config is the root of config.yaml.
type Config struct {
	Engine   EngineConfig   `yaml:"engine"`
	Images   ImagesConfig   `yaml:"images"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// EngineConfig locates the container engine and its metadata store.
type EngineConfig struct {
	// Path to the engine binary. Empty means search the standard
	// install locations, then $PATH. CONTAINER_PATH overrides this.
	Path string `yaml:"path"`

	// StoreRoot is the directory holding the engine's state.json image
	// index. Empty means the platform default.
	StoreRoot string `yaml:"store_root"`
}

// ImagesConfig controls image naming.
type ImagesConfig struct {
	// Prefix is prepended to toolchain names: <prefix>-<toolchain>:latest.
	// Default: spawn
	Prefix string `yaml:"prefix"`
}

// DefaultsConfig moves the defaults of `spawn run` flags.
type DefaultsConfig struct {
	// Agent run when none is named. Default: claude-code
	Agent string `yaml:"agent"`

	// CPUs overrides the agent profile's CPU count when positive.
	CPUs int `yaml:"cpus"`

	// Memory overrides the agent profile's memory limit when set.
	Memory string `yaml:"memory"`

	// Git controls whether credential staging happens by default.
	// Default: true
	Git bool `yaml:"git"`
}

// DefaultImagePrefix is the image name prefix used when none is
// configured.
const DefaultImagePrefix = "spawn"

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Images: ImagesConfig{
			Prefix: DefaultImagePrefix,
		},
		Defaults: DefaultsConfig{
			Agent: "claude-code",
			Git:   true,
		},
	}
}

// PathEnvVar names a config file to use instead of the default one.
const PathEnvVar = "SPAWN_CONFIG"

// Load reads the file named by getenv(PathEnvVar), or defaultPath when
// that is empty.
func Load(getenv func(string) string, defaultPath string) (*Config, error) {
	path := getenv(PathEnvVar)
	if path == "" {
		path = defaultPath
	}
	return LoadFile(path)
}

// LoadFile reads a config file over the defaults. A missing file yields
// Default() and no error; a file that exists but does not parse is an
// error.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) expandVariables() {
	c.Engine.Path = expandVars(c.Engine.Path)
	c.Engine.StoreRoot = expandVars(c.Engine.StoreRoot)
	c.Images.Prefix = expandVars(c.Images.Prefix)
	c.Defaults.Agent = expandVars(c.Defaults.Agent)
	c.Defaults.Memory = expandVars(c.Defaults.Memory)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars replaces ${VAR} and ${VAR:-default} from the environment.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

var prefixPattern = regexp.MustCompile(`^[a-z0-9]+(?:[._-][a-z0-9]+)*$`)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if !prefixPattern.MatchString(c.Images.Prefix) {
		errs = append(errs, fmt.Errorf("images.prefix %q must be lowercase alphanumerics separated by '.', '_' or '-'", c.Images.Prefix))
	}
	if c.Defaults.CPUs < 0 {
		errs = append(errs, fmt.Errorf("defaults.cpus must not be negative, got %d", c.Defaults.CPUs))
	}
	if c.Defaults.Agent == "" {
		errs = append(errs, fmt.Errorf("defaults.agent must not be empty"))
	}

	return errors.Join(errs...)
}
