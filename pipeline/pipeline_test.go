// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/spawn-dev/spawn/engine"
	"github.com/spawn-dev/spawn/image"
	"github.com/spawn-dev/spawn/lib/config"
	"github.com/spawn-dev/spawn/lib/testutil"
	"github.com/spawn-dev/spawn/lib/xdg"
	"github.com/spawn-dev/spawn/settings"
	"github.com/spawn-dev/spawn/toolchain"
)

type fixture struct {
	deps  Deps
	calls string
}

// newFixture wires Deps to a fake engine that records its invocations
// and an image store holding installed, keyed by reference with the
// creation timestamp as value.
func newFixture(t *testing.T, installed map[string]string) *fixture {
	t.Helper()
	calls := filepath.Join(t.TempDir(), "calls")
	enginePath := testutil.FakeEngine(t, `echo "$@" >> `+calls+`
exit 0`)

	var entries []string
	for ref, created := range installed {
		entries = append(entries, `"`+ref+`": {"mediaType": "application/vnd.oci.image.index.v1+json", "digest": "sha256:00", "size": 1, "annotations": {"org.opencontainers.image.created": "`+created+`"}}`)
	}
	storeRoot := testutil.TempTree(t, map[string]string{
		image.StateFile: "{" + strings.Join(entries, ",") + "}",
	})

	return &fixture{
		calls: calls,
		deps: Deps{
			Paths:  xdg.Paths{ConfigDir: t.TempDir(), StateDir: t.TempDir()},
			Home:   t.TempDir(),
			Config: config.Default(),
			Engine: engine.New(enginePath, nil, nil),
			Store:  image.NewStore(storeRoot),
		},
	}
}

func (f *fixture) engineCalls(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(f.calls)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

// project creates a directory named name containing files.
func project(t *testing.T, name string, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	testutil.WriteTree(t, dir, files)
	return dir
}

var standardImages = map[string]string{
	"spawn-base:latest": "2026-03-01T00:00:00Z",
	"spawn-go:latest":   "2026-03-02T00:00:00Z",
	"spawn-rust:latest": "2026-02-01T00:00:00Z",
}

func requireKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	var pipelineErr *Error
	if !errors.As(err, &pipelineErr) {
		t.Fatalf("error %v is %T, want *pipeline.Error", err, err)
	}
	if pipelineErr.Kind != want {
		t.Fatalf("error kind = %s, want %s (%v)", pipelineErr.Kind, want, err)
	}
}

func TestResolveGoProject(t *testing.T) {
	t.Parallel()

	f := newFixture(t, standardImages)
	target := project(t, "myproj", map[string]string{"go.mod": "module example.com/myproj\n"})

	result, err := Resolve(context.Background(), Request{Target: target}, f.deps)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.Toolchain != toolchain.Go {
		t.Errorf("Toolchain = %q, want go", result.Toolchain)
	}
	plan := result.Plan
	if plan.Image != "spawn-go:latest" {
		t.Errorf("Image = %q", plan.Image)
	}
	if plan.WorkDir != "/workspace/myproj" {
		t.Errorf("WorkDir = %q", plan.WorkDir)
	}
	if plan.Mounts[0].HostPath != target || plan.Mounts[0].ReadOnly {
		t.Errorf("first mount = %+v, want read-write %s", plan.Mounts[0], target)
	}
	if !slices.Equal(plan.Entrypoint, []string{"claude"}) {
		t.Errorf("Entrypoint = %v", plan.Entrypoint)
	}
	if plan.CPUs != 4 || plan.Memory != "8g" {
		t.Errorf("resources = %d/%s", plan.CPUs, plan.Memory)
	}
	if plan.Env[SafeModeEnv] != "1" {
		t.Errorf("safe mode not signalled: %v", plan.Env)
	}
	if result.NeedsBuild {
		t.Error("NeedsBuild set for an installed toolchain image")
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}

	seeded := filepath.Join(f.deps.Paths.StateDir, "claude-code", "claude", settings.FileName)
	if _, err := os.Stat(seeded); err != nil {
		t.Errorf("safe-mode settings not seeded: %v", err)
	}
	if calls := f.engineCalls(t); !slices.Equal(calls, []string{"--version"}) {
		t.Errorf("engine calls = %q, want only the preflight", calls)
	}
}

func TestResolveValidationRunsNoSubprocess(t *testing.T) {
	t.Parallel()

	existing := project(t, "app", nil)
	envFile := filepath.Join(t.TempDir(), "missing.env")

	tests := []struct {
		name string
		req  Request
	}{
		{"malformed env override", Request{Target: existing, Env: []string{"NOEQUALS"}}},
		{"empty env key", Request{Target: existing, Env: []string{"=value"}}},
		{"unknown agent", Request{Target: existing, Agent: "aider"}},
		{"missing target", Request{Target: filepath.Join(existing, "nope")}},
		{"target is a file", Request{Target: filepath.Join(project(t, "x", map[string]string{"f": ""}), "f")}},
		{"missing read-only dir", Request{Target: existing, ReadOnly: []string{"/nonexistent/spawn/dir"}}},
		{"missing read-write dir", Request{Target: existing, ReadWrite: []string{"/nonexistent/spawn/dir"}}},
		{"unknown toolchain", Request{Target: existing, Toolchain: "python"}},
		{"invalid image", Request{Target: existing, Image: "Bad Image"}},
		{"bare digest image", Request{Target: existing, Image: strings.Repeat("a", 64)}},
		{"negative cpus", Request{Target: existing, CPUs: -1}},
		{"bad memory", Request{Target: existing, Memory: "lots"}},
		{"missing env file", Request{Target: existing, EnvFile: envFile}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, standardImages)
			_, err := Resolve(context.Background(), test.req, f.deps)
			requireKind(t, err, KindValidation)
			if calls := f.engineCalls(t); len(calls) != 0 {
				t.Errorf("engine invoked during validation: %q", calls)
			}
		})
	}
}

func TestResolveEngineMissing(t *testing.T) {
	t.Parallel()

	f := newFixture(t, standardImages)
	f.deps.Engine = engine.New(filepath.Join(t.TempDir(), "absent", "container"), nil, nil)
	testutil.WriteTree(t, f.deps.Home, map[string]string{".gitconfig": "[user]\n"})

	_, err := Resolve(context.Background(), Request{Target: project(t, "app", nil), IncludeGit: true}, f.deps)
	requireKind(t, err, KindEnvironment)
	if !errors.Is(err, engine.ErrNotFound) {
		t.Errorf("error %v does not wrap engine.ErrNotFound", err)
	}
	if _, statErr := os.Stat(filepath.Join(f.deps.Paths.StateDir, "git")); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("credentials staged although the engine preflight failed")
	}
}

func TestResolveImageNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t, standardImages)
	target := project(t, "app", map[string]string{"CMakeLists.txt": ""})

	_, err := Resolve(context.Background(), Request{Target: target}, f.deps)
	requireKind(t, err, KindNotFound)
	if !strings.Contains(err.Error(), `spawn build cpp`) {
		t.Errorf("error %q lacks the build hint", err)
	}

	_, err = Resolve(context.Background(), Request{Target: target, Image: "ghcr.io/acme/dev:1.0"}, f.deps)
	requireKind(t, err, KindNotFound)
	if !strings.Contains(err.Error(), "pull or build ghcr.io/acme/dev:1.0 yourself") {
		t.Errorf("error %q lacks the override hint", err)
	}
	var notFound *image.NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("error %v does not wrap *image.NotFoundError", err)
	}
}

func TestResolveToolchainOverride(t *testing.T) {
	t.Parallel()

	f := newFixture(t, standardImages)
	target := project(t, "app", map[string]string{"go.mod": "", "Dockerfile": "FROM scratch\n"})

	result, err := Resolve(context.Background(), Request{Target: target, Toolchain: "rust"}, f.deps)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.Toolchain != toolchain.Rust || result.Plan.Image != "spawn-rust:latest" {
		t.Errorf("toolchain/image = %s/%s", result.Toolchain, result.Plan.Image)
	}
	if result.NeedsBuild || result.BuildFile != "" {
		t.Errorf("override did not bypass the build file: %+v", result)
	}
	// spawn-rust predates spawn-base.
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0].Error(), "spawn build rust") {
		t.Errorf("warnings = %v, want one staleness warning", result.Warnings)
	}
}

func TestResolveBuildFileProject(t *testing.T) {
	t.Parallel()

	f := newFixture(t, standardImages)
	target := project(t, "My App", map[string]string{"Containerfile": "FROM scratch\n"})

	result, err := Resolve(context.Background(), Request{Target: target}, f.deps)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.Plan.Image != "spawn-project-my-app:latest" {
		t.Errorf("Image = %q", result.Plan.Image)
	}
	if !result.NeedsBuild {
		t.Error("NeedsBuild not set for an absent project image")
	}
	if result.BuildFile != filepath.Join(target, "Containerfile") || result.BuildContext != target {
		t.Errorf("build file/context = %s / %s", result.BuildFile, result.BuildContext)
	}
	if result.Toolchain != "" {
		t.Errorf("Toolchain = %q, want empty", result.Toolchain)
	}

	installed := newFixture(t, map[string]string{"spawn-project-my-app:latest": "2026-01-01T00:00:00Z"})
	result, err = Resolve(context.Background(), Request{Target: target}, installed.deps)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.NeedsBuild {
		t.Error("NeedsBuild set for an installed project image")
	}
	result, err = Resolve(context.Background(), Request{Target: target, Rebuild: true}, installed.deps)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !result.NeedsBuild {
		t.Error("Rebuild did not force NeedsBuild")
	}
}

func TestResolveUnrestrictedAndShell(t *testing.T) {
	t.Parallel()

	f := newFixture(t, standardImages)
	target := project(t, "app", nil)

	result, err := Resolve(context.Background(), Request{
		Target:       target,
		Unrestricted: true,
		Env:          []string{SafeModeEnv + "=1"},
	}, f.deps)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, ok := result.Plan.Env[SafeModeEnv]; ok {
		t.Error("safe-mode key present in unrestricted mode")
	}
	if !slices.Equal(result.Plan.Entrypoint, []string{"claude", "--dangerously-skip-permissions"}) {
		t.Errorf("Entrypoint = %v", result.Plan.Entrypoint)
	}
	if _, err := os.Stat(filepath.Join(f.deps.Paths.StateDir, "claude-code", "claude", settings.FileName)); !errors.Is(err, os.ErrNotExist) {
		t.Error("settings seeded in unrestricted mode")
	}

	result, err = Resolve(context.Background(), Request{Target: target, Shell: true, Agent: "codex"}, f.deps)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !slices.Equal(result.Plan.Entrypoint, []string{"/bin/bash"}) {
		t.Errorf("shell Entrypoint = %v", result.Plan.Entrypoint)
	}
	if result.Plan.Env[SafeModeEnv] != "1" {
		t.Error("shell mode dropped the safe-mode key")
	}
}

func TestResolveEnvironmentLayers(t *testing.T) {
	t.Parallel()

	f := newFixture(t, standardImages)
	testutil.WriteTree(t, f.deps.Paths.ConfigDir, map[string]string{"env": "A=default\nB=default\n"})
	target := project(t, "app", map[string]string{
		".devcontainer/devcontainer.json": `{
  // comments are allowed
  "image": "mcr.microsoft.com/devcontainers/go:1",
  "containerEnv": {"B": "devcontainer", "C": "devcontainer"},
}`,
	})

	result, err := Resolve(context.Background(), Request{Target: target, Env: []string{"B=cli", "D=first", "D=last"}}, f.deps)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := map[string]string{"A": "default", "B": "cli", "C": "devcontainer", "D": "last", SafeModeEnv: "1"}
	for key, value := range want {
		if got := result.Plan.Env[key]; got != value {
			t.Errorf("env[%s] = %q, want %q", key, got, value)
		}
	}
	if result.Toolchain != toolchain.Go {
		t.Errorf("Toolchain = %q, want go from the devcontainer image", result.Toolchain)
	}

	explicit := testutil.TempTree(t, map[string]string{"team.env": "E=explicit\n"})
	result, err = Resolve(context.Background(), Request{Target: target, EnvFile: filepath.Join(explicit, "team.env")}, f.deps)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, ok := result.Plan.Env["A"]; ok {
		t.Error("explicit env file merged with the default instead of replacing it")
	}
	if result.Plan.Env["E"] != "explicit" {
		t.Errorf("env[E] = %q", result.Plan.Env["E"])
	}
}

func TestResolveResourcePrecedence(t *testing.T) {
	t.Parallel()

	f := newFixture(t, standardImages)
	f.deps.Config.Defaults.CPUs = 2
	f.deps.Config.Defaults.Memory = "4g"
	target := project(t, "app", nil)

	result, err := Resolve(context.Background(), Request{Target: target}, f.deps)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.Plan.CPUs != 2 || result.Plan.Memory != "4g" {
		t.Errorf("config defaults not applied: %d/%s", result.Plan.CPUs, result.Plan.Memory)
	}

	result, err = Resolve(context.Background(), Request{Target: target, CPUs: 6, Memory: "12g"}, f.deps)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result.Plan.CPUs != 6 || result.Plan.Memory != "12g" {
		t.Errorf("flags not applied: %d/%s", result.Plan.CPUs, result.Plan.Memory)
	}
}

func TestResolveSeedingWarning(t *testing.T) {
	t.Parallel()

	f := newFixture(t, standardImages)
	testutil.WriteTree(t, f.deps.Paths.StateDir, map[string]string{
		"claude-code/claude/settings.json": "{not json",
	})

	result, err := Resolve(context.Background(), Request{Target: project(t, "app", nil)}, f.deps)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0].Error(), string(settings.SkippedMalformed)) {
		t.Errorf("warnings = %v, want one malformed-settings warning", result.Warnings)
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	if got := KindOf(classify(KindNotFound, errors.New("x"))); got != KindNotFound {
		t.Errorf("KindOf(not found) = %s", got)
	}
	if got := KindOf(errors.New("plain")); got != KindRuntime {
		t.Errorf("KindOf(plain) = %s", got)
	}
}
