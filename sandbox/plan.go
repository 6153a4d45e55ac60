// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"maps"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// LaunchPlan is a fully resolved sandbox invocation. Build one with
// NewLaunchPlan and treat it as read-only afterwards.
type LaunchPlan struct {
	Image      string            `json:"image"`
	Mounts     []Mount           `json:"mounts"`
	Env        map[string]string `json:"env"`
	WorkDir    string            `json:"workdir"`
	Entrypoint []string          `json:"entrypoint"`
	CPUs       int               `json:"cpus"`
	Memory     string            `json:"memory"`
}

// NewLaunchPlan copies every slice and map argument so later changes by
// the caller cannot leak into the plan.
func NewLaunchPlan(image string, mounts []Mount, env map[string]string, workDir string, entrypoint []string, cpus int, memory string) LaunchPlan {
	return LaunchPlan{
		Image:      image,
		Mounts:     slices.Clone(mounts),
		Env:        maps.Clone(env),
		WorkDir:    workDir,
		Entrypoint: slices.Clone(entrypoint),
		CPUs:       cpus,
		Memory:     memory,
	}
}

// Redacted returns a copy of the plan with every environment value
// replaced, for display.
func (p LaunchPlan) Redacted() LaunchPlan {
	redacted := NewLaunchPlan(p.Image, p.Mounts, nil, p.WorkDir, p.Entrypoint, p.CPUs, p.Memory)
	redacted.Env = make(map[string]string, len(p.Env))
	for key := range p.Env {
		redacted.Env[key] = redactedValue
	}
	return redacted
}

const redactedValue = "***"

// RunArgs returns the engine arguments for plan. The -t flag is added
// only when tty is set. Environment entries are emitted in sorted key
// order so the output is deterministic.
func RunArgs(plan LaunchPlan, tty bool) []string {
	args := []string{"run", "--rm", "-i"}
	if tty {
		args = append(args, "-t")
	}
	args = append(args,
		"--cpus", strconv.Itoa(plan.CPUs),
		"--memory", plan.Memory,
	)
	for _, mount := range plan.Mounts {
		args = append(args, "--volume", mount.VolumeSpec())
	}

	keys := make([]string, 0, len(plan.Env))
	for key := range plan.Env {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		args = append(args, "--env", key+"="+plan.Env[key])
	}

	args = append(args, "--workdir", plan.WorkDir, plan.Image)
	return append(args, plan.Entrypoint...)
}

// RedactArgs returns a copy of args with the value of every --env
// argument replaced by ***. Arguments without '=' are left alone.
func RedactArgs(args []string) []string {
	redacted := slices.Clone(args)
	for i := 0; i < len(redacted)-1; i++ {
		if redacted[i] != "--env" {
			continue
		}
		if key, _, ok := strings.Cut(redacted[i+1], "="); ok {
			redacted[i+1] = key + "=" + redactedValue
		}
		i++
	}
	return redacted
}
