// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/spawn-dev/spawn/cmd/spawn/cli"
	"github.com/spawn-dev/spawn/cmd/spawn/cli/doctor"
	"github.com/spawn-dev/spawn/engine"
	"github.com/spawn-dev/spawn/image"
	"github.com/spawn-dev/spawn/lib/testutil"
	"github.com/spawn-dev/spawn/lib/version"
	"github.com/spawn-dev/spawn/pipeline"
	"github.com/spawn-dev/spawn/sandbox"
)

// harness runs the command tree against a fake engine, an image store
// in a temporary directory, and XDG roots under a temporary home.
type harness struct {
	app    *App
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	home   string
	store  string
	calls  string
}

// storedImage is one entry of the fake engine's image index.
type storedImage struct {
	Reference string
	Created   string
	Template  string
}

// newHarness writes a fake engine whose body runs after every
// invocation is recorded. "--version" always succeeds.
func newHarness(t *testing.T, body string, images ...storedImage) *harness {
	t.Helper()
	calls := filepath.Join(t.TempDir(), "calls")
	enginePath := testutil.FakeEngine(t, `if [ "$1" = "--version" ]; then exit 0; fi
echo "$@" >> `+calls+`
`+body)

	home := t.TempDir()
	store := t.TempDir()
	writeStore(t, store, images...)
	testutil.WriteTree(t, home, map[string]string{
		".config/spawn/config.yaml": "engine:\n  store_root: " + store + "\n",
	})

	vars := map[string]string{
		"XDG_CONFIG_HOME":  filepath.Join(home, ".config"),
		"XDG_STATE_HOME":   filepath.Join(home, ".local", "state"),
		engine.PathEnvVar: enginePath,
	}
	h := &harness{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		home:   home,
		store:  store,
		calls:  calls,
	}
	h.app = &App{
		Stdin:           strings.NewReader(""),
		Stdout:          h.stdout,
		Stderr:          h.stderr,
		Getenv:          func(key string) string { return vars[key] },
		Home:            home,
		Level:           new(slog.LevelVar),
		StdinIsTerminal: func() bool { return false },
		Preflight:       engine.NewPreflightCache(),
	}
	return h
}

func writeStore(t *testing.T, root string, images ...storedImage) {
	t.Helper()
	index := make(map[string]any, len(images))
	for _, stored := range images {
		annotations := map[string]string{"org.opencontainers.image.created": stored.Created}
		if stored.Template != "" {
			annotations[image.TemplateAnnotation] = stored.Template
		}
		index[stored.Reference] = map[string]any{
			"mediaType":   "application/vnd.oci.image.index.v1+json",
			"digest":      "sha256:0000000000000000000000000000000000000000000000000000000000000000",
			"size":        1,
			"annotations": annotations,
		}
	}
	data, err := json.Marshal(index)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, image.StateFile), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func (h *harness) execute(args ...string) error {
	root := Root(h.app)
	root.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	root.HelpOutput = h.stderr
	return root.Execute(context.Background(), args)
}

// invocations returns the engine command lines run so far, excluding
// preflight probes.
func (h *harness) invocations(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(h.calls)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func requireExitCode(t *testing.T, err error, want int) {
	t.Helper()
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error = %v, want exit code %d", err, want)
	}
	if exitErr.Code != want {
		t.Fatalf("exit code = %d, want %d", exitErr.Code, want)
	}
}

func requireValidation(t *testing.T, err error) {
	t.Helper()
	var toolErr *cli.ToolError
	if !errors.As(err, &toolErr) || toolErr.Category != cli.CategoryValidation {
		t.Fatalf("error = %v, want validation error", err)
	}
}

var installed = []storedImage{
	{Reference: "spawn-base:latest", Created: "2026-03-01T00:00:00Z"},
	{Reference: "spawn-go:latest", Created: "2026-03-02T00:00:00Z"},
}

// goWorkspace creates a Go project directory.
func goWorkspace(t *testing.T) string {
	t.Helper()
	return testutil.TempTree(t, map[string]string{"go.mod": "module example.com/app\n"})
}

func TestRunDryRun(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "exit 0", installed...)
	workspace := goWorkspace(t)

	err := h.execute(workspace, "codex", "--dry-run", "--env", "TOKEN=hunter2", "--no-git")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	output := h.stdout.String()
	for _, want := range []string{"run --rm -i", "spawn-go:latest", "codex --full-auto", "TOKEN=***", "SPAWN_SAFE_MODE=***"} {
		if !strings.Contains(output, want) {
			t.Errorf("dry run output missing %q:\n%s", want, output)
		}
	}
	if strings.Contains(output, "hunter2") {
		t.Errorf("dry run output leaks an env value:\n%s", output)
	}
	if calls := h.invocations(t); len(calls) != 0 {
		t.Errorf("dry run invoked the engine: %q", calls)
	}
}

func TestRunDryRunMatchesTerminalLaunch(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "exit 0", installed...)
	h.app.StdinIsTerminal = func() bool { return true }
	workspace := goWorkspace(t)

	if err := h.execute(workspace, "--dry-run", "--no-git"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if output := h.stdout.String(); !strings.Contains(output, "run --rm -i -t ") {
		t.Errorf("dry run on a terminal should show -t:\n%s", output)
	}
}

func TestNewAppDetectsTerminals(t *testing.T) {
	t.Parallel()

	app := NewApp(new(slog.LevelVar))
	if app.StdinIsTerminal == nil {
		t.Error("StdinIsTerminal is nil; dry runs would never show -t")
	}
	if app.StdoutIsTerminal == nil {
		t.Error("StdoutIsTerminal is nil")
	}
}

func TestRunDryRunJSON(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "exit 0", installed...)
	workspace := goWorkspace(t)

	if err := h.execute("run", workspace, "--dry-run", "--json", "--yolo", "--cpus", "2", "-e", "A=1"); err != nil {
		t.Fatalf("execute: %v", err)
	}

	var output struct {
		Plan      sandbox.LaunchPlan `json:"plan"`
		Command   []string           `json:"command"`
		Toolchain string             `json:"toolchain"`
		Warnings  []string           `json:"warnings"`
	}
	if err := json.Unmarshal(h.stdout.Bytes(), &output); err != nil {
		t.Fatalf("decoding %q: %v", h.stdout.String(), err)
	}
	if output.Plan.Image != "spawn-go:latest" || output.Toolchain != "go" {
		t.Errorf("image = %q toolchain = %q", output.Plan.Image, output.Toolchain)
	}
	if output.Plan.CPUs != 2 {
		t.Errorf("cpus = %d, want 2", output.Plan.CPUs)
	}
	if _, ok := output.Plan.Env[pipeline.SafeModeEnv]; ok {
		t.Errorf("unrestricted plan carries %s", pipeline.SafeModeEnv)
	}
	if output.Plan.Env["A"] != "***" {
		t.Errorf("env A = %q, want redacted", output.Plan.Env["A"])
	}
	want := []string{"claude", "--dangerously-skip-permissions"}
	if !slices.Equal(output.Plan.Entrypoint, want) {
		t.Errorf("entrypoint = %q, want %q", output.Plan.Entrypoint, want)
	}
	if output.Warnings == nil {
		t.Error("warnings encoded as null")
	}
}

func TestRunLaunchPropagatesExitCode(t *testing.T) {
	t.Parallel()
	h := newHarness(t, `if [ "$1" = run ]; then echo sandbox output; exit 3; fi`, installed...)
	workspace := goWorkspace(t)

	err := h.execute(workspace, "--no-git")
	requireExitCode(t, err, 3)

	calls := h.invocations(t)
	if len(calls) != 1 || !strings.HasPrefix(calls[0], "run --rm -i --cpus 4 --memory 8g") {
		t.Fatalf("engine calls = %q", calls)
	}
	if !strings.Contains(calls[0], "--workdir /workspace/"+filepath.Base(workspace)+" spawn-go:latest claude") {
		t.Errorf("run invocation = %q", calls[0])
	}
	if !strings.Contains(h.stdout.String(), "sandbox output") {
		t.Errorf("sandbox stdout not passed through: %q", h.stdout.String())
	}
}

func TestRunLaunchSuccess(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "exit 0", installed...)

	if err := h.execute(goWorkspace(t)); err != nil {
		t.Fatalf("execute: %v", err)
	}
}

func TestRunMissingImage(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "exit 0", installed...)
	workspace := testutil.TempTree(t, map[string]string{"Cargo.toml": "[package]\n"})

	err := h.execute(workspace)
	if pipeline.KindOf(err) != pipeline.KindNotFound {
		t.Fatalf("error = %v, want not-found", err)
	}
	if !strings.Contains(err.Error(), `spawn build rust`) {
		t.Errorf("error = %q, want build hint", err.Error())
	}
}

func TestRunBuildsProjectImage(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "exit 0", installed...)
	workspace := filepath.Join(t.TempDir(), "web")
	testutil.WriteTree(t, workspace, map[string]string{"Containerfile": "FROM scratch\n"})

	if err := h.execute(workspace, "--no-git"); err != nil {
		t.Fatalf("execute: %v", err)
	}

	calls := h.invocations(t)
	if len(calls) != 2 {
		t.Fatalf("engine calls = %q, want build then run", calls)
	}
	if !strings.HasPrefix(calls[0], "build -t spawn-project-web:latest -f "+filepath.Join(workspace, "Containerfile")) {
		t.Errorf("build invocation = %q", calls[0])
	}
	if !strings.HasSuffix(calls[0], " "+workspace) {
		t.Errorf("build context is not the workspace: %q", calls[0])
	}
	if !strings.HasPrefix(calls[1], "run ") {
		t.Errorf("second call = %q, want run", calls[1])
	}
}

func TestRunValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"too many arguments", []string{".", "codex", "extra"}, "at most a path and an agent"},
		{"command typo", []string{"biuld"}, `did you mean "spawn build"`},
		{"unknown flag", []string{".", "--toolchian", "go"}, "did you mean --toolchain"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t, "exit 0", installed...)

			err := h.execute(test.args...)
			requireValidation(t, err)
			if !strings.Contains(err.Error(), test.want) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), test.want)
			}
			if calls := h.invocations(t); len(calls) != 0 {
				t.Errorf("engine invoked: %q", calls)
			}
		})
	}
}

func TestRunUnknownAgent(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "exit 0", installed...)

	err := h.execute(goWorkspace(t), "cursor")
	if pipeline.KindOf(err) != pipeline.KindValidation {
		t.Fatalf("error = %v, want validation", err)
	}
}

func TestBuild(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		images []storedImage
		args   []string
		want   []string
	}{
		{
			name:   "base installed",
			images: installed,
			args:   []string{"build", "go"},
			want:   []string{"spawn-go:latest"},
		},
		{
			name: "base missing",
			args: []string{"build", "rust", "go"},
			want: []string{"spawn-base:latest", "spawn-rust:latest", "spawn-go:latest"},
		},
		{
			name:   "everything",
			images: installed,
			args:   []string{"build"},
			want:   []string{"spawn-base:latest", "spawn-cpp:latest", "spawn-rust:latest", "spawn-go:latest"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t, "exit 0", test.images...)

			if err := h.execute(test.args...); err != nil {
				t.Fatalf("execute: %v", err)
			}
			calls := h.invocations(t)
			if len(calls) != len(test.want) {
				t.Fatalf("engine calls = %q, want builds of %q", calls, test.want)
			}
			for i, reference := range test.want {
				if !strings.HasPrefix(calls[i], "build -t "+reference+" -f ") {
					t.Errorf("call %d = %q, want build of %s", i, calls[i], reference)
				}
				if !strings.Contains(calls[i], "--label dev.spawn.template=") {
					t.Errorf("call %d = %q, missing template label", i, calls[i])
				}
				if !strings.Contains(h.stdout.String(), "Built "+reference) {
					t.Errorf("stdout missing %q:\n%s", "Built "+reference, h.stdout.String())
				}
			}
		})
	}
}

func TestBuildNoCache(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "exit 0", installed...)

	if err := h.execute("build", "cpp", "--no-cache"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	calls := h.invocations(t)
	if len(calls) != 1 || !strings.Contains(calls[0], " --no-cache ") {
		t.Errorf("engine calls = %q", calls)
	}
}

func TestBuildUnknownToolchain(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "exit 0", installed...)

	err := h.execute("build", "go", "java")
	requireValidation(t, err)
	if !strings.Contains(err.Error(), `unknown toolchain "java"`) {
		t.Errorf("error = %q", err.Error())
	}
	if calls := h.invocations(t); len(calls) != 0 {
		t.Errorf("engine invoked: %q", calls)
	}
}

func TestBuildFailurePropagatesStatus(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "exit 2", installed...)

	err := h.execute("build", "go")
	requireExitCode(t, err, 2)
	if !strings.Contains(h.stderr.String(), "building spawn-go:latest") {
		t.Errorf("stderr = %q", h.stderr.String())
	}
}

func TestImageList(t *testing.T) {
	t.Parallel()
	listing := `if [ "$1" = image ]; then printf 'NAME TAG DIGEST\nspawn-go latest abc\nubuntu 24.04 def\nspawn-base latest 123\n'; fi`

	h := newHarness(t, listing, installed...)
	if err := h.execute("image", "list"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	want := "NAME TAG DIGEST\nspawn-go latest abc\nspawn-base latest 123\n"
	if h.stdout.String() != want {
		t.Errorf("filtered listing = %q, want %q", h.stdout.String(), want)
	}

	all := newHarness(t, listing, installed...)
	if err := all.execute("image", "list", "--all"); err != nil {
		t.Fatalf("execute --all: %v", err)
	}
	if !strings.Contains(all.stdout.String(), "ubuntu") {
		t.Errorf("--all listing = %q", all.stdout.String())
	}
}

func TestImageListEmpty(t *testing.T) {
	t.Parallel()
	h := newHarness(t, `printf 'NAME TAG DIGEST\nubuntu 24.04 def\n'`)

	if err := h.execute("image", "list"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(h.stdout.String(), "No spawn-* images found") {
		t.Errorf("listing = %q", h.stdout.String())
	}
}

func TestImageRemove(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		args  []string
		calls []string
		err   string
	}{
		{
			name:  "removes each",
			args:  []string{"spawn-go:latest", "spawn-rust"},
			calls: []string{"image delete spawn-go:latest", "image delete spawn-rust"},
		},
		{
			name: "foreign image rejected before any delete",
			args: []string{"spawn-go:latest", "ubuntu:24.04"},
			err:  "only spawn-* images",
		},
		{
			name: "base refused",
			args: []string{"spawn-base:latest"},
			err:  "built from it",
		},
		{
			name: "bare base refused",
			args: []string{"spawn-base"},
			err:  "built from it",
		},
		{
			name: "no names",
			err:  "at least one image name",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t, "exit 0", installed...)

			err := h.execute(append([]string{"image", "rm"}, test.args...)...)
			if test.err != "" {
				requireValidation(t, err)
				if !strings.Contains(err.Error(), test.err) {
					t.Errorf("error = %q, want %q", err.Error(), test.err)
				}
			} else if err != nil {
				t.Fatalf("execute: %v", err)
			}
			if calls := h.invocations(t); !slices.Equal(calls, test.calls) {
				t.Errorf("engine calls = %q, want %q", calls, test.calls)
			}
		})
	}
}

func TestPassthroughCommands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		call string
	}{
		{"list", []string{"list"}, "list"},
		{"list all", []string{"list", "--all"}, "list --all"},
		{"stop", []string{"stop", "abc", "def"}, "stop abc def"},
		{"exec", []string{"exec", "abc", "ls", "-la", "--color"}, "exec abc ls -la --color"},
		{"exec interactive", []string{"exec", "-i", "-t", "abc", "bash"}, "exec -i -t abc bash"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t, "exit 4")

			err := h.execute(test.args...)
			requireExitCode(t, err, 4)
			if calls := h.invocations(t); !slices.Equal(calls, []string{test.call}) {
				t.Errorf("engine calls = %q, want %q", calls, test.call)
			}
		})
	}
}

func TestPassthroughValidation(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "exit 0")

	requireValidation(t, h.execute("stop"))
	requireValidation(t, h.execute("exec", "abc"))
	requireValidation(t, h.execute("list", "extra"))
	if calls := h.invocations(t); len(calls) != 0 {
		t.Errorf("engine invoked: %q", calls)
	}
}

func TestEngineMissing(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "exit 0")
	missing := filepath.Join(t.TempDir(), "container")
	h.app.Getenv = func(key string) string {
		switch key {
		case "XDG_CONFIG_HOME":
			return filepath.Join(h.home, ".config")
		case "XDG_STATE_HOME":
			return filepath.Join(h.home, ".local", "state")
		case engine.PathEnvVar:
			return missing
		}
		return ""
	}

	err := h.execute("list")
	var toolErr *cli.ToolError
	if !errors.As(err, &toolErr) || toolErr.Category != cli.CategoryEnvironment {
		t.Fatalf("error = %v, want environment error", err)
	}
	if !errors.Is(err, engine.ErrNotFound) {
		t.Errorf("error = %v, want it to wrap engine.ErrNotFound", err)
	}
}

func decodeDoctor(t *testing.T, data []byte) doctor.JSONOutput {
	t.Helper()
	var output doctor.JSONOutput
	if err := json.Unmarshal(data, &output); err != nil {
		t.Fatalf("decoding %q: %v", data, err)
	}
	return output
}

func checkStatus(t *testing.T, output doctor.JSONOutput, name string) doctor.Status {
	t.Helper()
	for _, check := range output.Checks {
		if check.Name == name {
			return check.Status
		}
	}
	t.Fatalf("no check named %q in %+v", name, output.Checks)
	return ""
}

func TestDoctorHealthy(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "exit 0", installed...)

	if err := h.execute("doctor", "--json"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	output := decodeDoctor(t, h.stdout.Bytes())
	if !output.OK {
		t.Errorf("doctor not OK: %+v", output.Checks)
	}
	for name, want := range map[string]doctor.Status{
		"config root":                 doctor.StatusPass,
		"engine located":              doctor.StatusPass,
		"engine responds":             doctor.StatusPass,
		"image spawn-base:latest":     doctor.StatusPass,
		"image spawn-go:latest":       doctor.StatusPass,
		"image spawn-rust:latest":     doctor.StatusWarn,
		"credentials for claude-code": doctor.StatusPass,
	} {
		if got := checkStatus(t, output, name); got != want {
			t.Errorf("%s = %s, want %s", name, got, want)
		}
	}
}

func TestDoctorFailures(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "exit 0",
		storedImage{Reference: "spawn-base:latest", Created: "2026-03-01T00:00:00Z"},
		storedImage{Reference: "spawn-rust:latest", Created: "2026-02-01T00:00:00Z"},
		storedImage{Reference: "spawn-go:latest", Created: "2026-03-02T00:00:00Z", Template: "stale-digest"},
	)

	err := h.execute("doctor", "--json")
	requireExitCode(t, err, 1)
	output := decodeDoctor(t, h.stdout.Bytes())
	if output.OK {
		t.Error("doctor OK with a stale image")
	}
	if got := checkStatus(t, output, "image spawn-rust:latest"); got != doctor.StatusFail {
		t.Errorf("stale rust image = %s, want fail", got)
	}
	if got := checkStatus(t, output, "image spawn-go:latest"); got != doctor.StatusFail {
		t.Errorf("drifted go image = %s, want fail", got)
	}
	if calls := h.invocations(t); len(calls) != 0 {
		t.Errorf("doctor without --fix invoked the engine: %q", calls)
	}
}

func TestDoctorFix(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "exit 0")

	if err := h.execute("doctor", "--fix"); err != nil {
		t.Fatalf("execute: %v\n%s", err, h.stdout.String())
	}
	calls := h.invocations(t)
	if len(calls) != 1 || !strings.HasPrefix(calls[0], "build -t spawn-base:latest") {
		t.Errorf("engine calls = %q, want a base build", calls)
	}
	if !strings.Contains(h.stdout.String(), "[FIXED]") {
		t.Errorf("checklist = %q", h.stdout.String())
	}
}

func TestDoctorEngineMissing(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "exit 0", installed...)
	h.app.Getenv = func(key string) string {
		switch key {
		case "XDG_CONFIG_HOME":
			return filepath.Join(h.home, ".config")
		case "XDG_STATE_HOME":
			return filepath.Join(h.home, ".local", "state")
		case engine.PathEnvVar:
			return filepath.Join(h.home, "no-such-engine")
		}
		return ""
	}

	err := h.execute("doctor")
	requireExitCode(t, err, 1)
	for _, want := range []string{"engine located", engine.PathEnvVar, "[SKIP ]  image spawn-go:latest"} {
		if !strings.Contains(h.stdout.String(), want) {
			t.Errorf("checklist missing %q:\n%s", want, h.stdout.String())
		}
	}
}

func TestVersion(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "exit 0")

	if err := h.execute("version", "--json"); err != nil {
		t.Fatal(err)
	}
	var build version.Build
	if err := json.Unmarshal(h.stdout.Bytes(), &build); err != nil {
		t.Fatalf("decoding %q: %v", h.stdout.String(), err)
	}
	if build.Version != version.Version {
		t.Errorf("version = %q, want %q", build.Version, version.Version)
	}

	text := newHarness(t, "exit 0")
	if err := text.execute("version"); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(text.stdout.String(), "spawn "+version.Version) {
		t.Errorf("version output = %q", text.stdout.String())
	}
}

func TestHelp(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "exit 0")

	if err := h.execute("--help"); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"spawn [path] [agent] [flags]", "build", "doctor", "--yolo", "spawn . codex"} {
		if !strings.Contains(h.stderr.String(), want) {
			t.Errorf("help missing %q:\n%s", want, h.stderr.String())
		}
	}
}
