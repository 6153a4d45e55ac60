// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

// Package pipeline resolves a run request into a [sandbox.LaunchPlan].
//
// Resolution is a fixed sequence of stages. Everything that can be
// checked without running a subprocess (agent name, paths, overrides)
// is checked first, so malformed input never reaches the container
// engine. Engine preflight runs before any credential is staged.
// Advisory problems such as a stale image, a credential that could not
// be staged, or a settings file that could not be seeded are collected
// as warnings on the Result; they never fail resolution.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"filippo.io/age"

	"github.com/spawn-dev/spawn/engine"
	"github.com/spawn-dev/spawn/image"
	"github.com/spawn-dev/spawn/lib/config"
	"github.com/spawn-dev/spawn/lib/envfile"
	"github.com/spawn-dev/spawn/lib/sealed"
	"github.com/spawn-dev/spawn/lib/xdg"
	"github.com/spawn-dev/spawn/sandbox"
	"github.com/spawn-dev/spawn/settings"
	"github.com/spawn-dev/spawn/toolchain"
)

// SafeModeEnv is set to "1" inside the sandbox when safe mode is on,
// and is never present otherwise.
const SafeModeEnv = "SPAWN_SAFE_MODE"

// ShellEntrypoint replaces the agent entrypoint in shell mode.
var ShellEntrypoint = []string{"/bin/bash"}

// Request is everything the user asked for on the command line.
type Request struct {
	// Target is the workspace directory. Empty means the current
	// directory.
	Target string

	// Agent names the agent profile. Empty means the configured
	// default.
	Agent string

	ReadWrite []string
	ReadOnly  []string

	// Toolchain and Image override detection and resolution.
	Toolchain string
	Image     string

	EnvFile string
	Env     []string

	// Unrestricted disables safe mode.
	Unrestricted bool

	// Shell runs /bin/bash instead of the agent.
	Shell bool

	// IncludeGit stages VCS identity and credentials.
	IncludeGit bool

	// Rebuild forces a rebuild of a project image built from the
	// project's own container build file.
	Rebuild bool

	// CPUs and Memory override the configured and profile defaults
	// when set.
	CPUs   int
	Memory string
}

// Deps are the collaborators Resolve needs. Tests substitute fakes for
// the engine binary and the image store.
type Deps struct {
	Paths  xdg.Paths
	Home   string
	Config *config.Config
	Engine *engine.Engine
	Store  *image.Store

	// Identities decrypt sealed env files. Nil means load them from
	// Paths.IdentityFile when a sealed file is actually used.
	Identities []age.Identity

	Logger *slog.Logger
}

// Result is a resolved run.
type Result struct {
	Plan sandbox.LaunchPlan

	// Toolchain is the toolchain the image was chosen for. It is empty
	// when the image comes from the project's own build file.
	Toolchain toolchain.Toolchain
	Detection toolchain.Detection

	// NeedsBuild is set when Plan.Image must be built from BuildFile
	// before launch.
	NeedsBuild   bool
	BuildFile    string
	BuildContext string

	Warnings []error
}

// Resolve runs every resolution stage for req. It returns *Error on
// failure.
func Resolve(ctx context.Context, req Request, deps Deps) (*Result, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default()
	}

	// Validation: nothing below runs a subprocess until this passes.
	input, err := validate(req, cfg)
	if err != nil {
		return nil, err
	}
	result := &Result{}

	// Toolchain.
	result.Detection = toolchain.Detect(input.target)
	useBuildFile := false
	switch {
	case input.toolchain != "":
		result.Toolchain = input.toolchain
	case result.Detection.UsesBuildFile():
		useBuildFile = true
		result.BuildFile = result.Detection.BuildFile
		result.BuildContext = result.Detection.BuildContext
	default:
		result.Toolchain = result.Detection.Toolchain
	}
	logger.Debug("toolchain resolved",
		"toolchain", result.Toolchain,
		"source", result.Detection.Source,
		"build_file", result.BuildFile,
	)

	// Image.
	resolver := image.NewResolver(cfg.Images.Prefix)
	var imageRef string
	if useBuildFile && req.Image == "" {
		imageRef = resolver.Project(filepath.Base(input.target))
	} else {
		useBuildFile = false
		if imageRef, err = resolver.Resolve(result.Toolchain, req.Image); err != nil {
			return nil, classify(KindValidation, err)
		}
	}

	// Environment.
	if err := deps.Engine.Preflight(ctx); err != nil {
		return nil, classify(KindEnvironment, err)
	}

	// Existence.
	store := deps.Store
	if store == nil {
		store = image.NewStore(cfg.Engine.StoreRoot)
	}
	if useBuildFile {
		result.NeedsBuild = req.Rebuild || !store.Exists(imageRef)
	} else {
		result.BuildFile, result.BuildContext = "", ""
		if !store.Exists(imageRef) {
			hint := fmt.Sprintf("run \"spawn build %s\"", result.Toolchain)
			if req.Image != "" {
				hint = fmt.Sprintf("pull or build %s yourself", imageRef)
			}
			return nil, classify(KindNotFound, &image.NotFoundError{Reference: imageRef, Hint: hint})
		}
	}

	// Staleness.
	if req.Image == "" && !useBuildFile && result.Toolchain != toolchain.Base {
		if store.IsStale(imageRef, resolver.Base()) {
			result.Warnings = append(result.Warnings, fmt.Errorf(
				"image %s predates %s; run \"spawn build %s\" to rebuild it on the current base",
				imageRef, resolver.Base(), result.Toolchain))
		}
	}

	// Mounts.
	mountResolver := sandbox.MountResolver{Home: deps.Home, StateDir: deps.Paths.StateDir}
	mounts := mountResolver.Resolve(sandbox.MountRequest{
		Target:     input.target,
		ReadWrite:  input.readWrite,
		ReadOnly:   input.readOnly,
		IncludeGit: req.IncludeGit,
		Agent:      input.profile.Name,
	})
	result.Warnings = append(result.Warnings, mounts.Warnings...)

	// Seeding.
	safeMode := !req.Unrestricted
	if settingsDir := mountResolver.SettingsDir(input.profile); safeMode && settingsDir != "" {
		seeded := settings.Seed(settingsDir)
		logger.Debug("permission settings", "path", seeded.Path, "action", seeded.Action)
		if seeded.Advisory() {
			result.Warnings = append(result.Warnings, fmt.Errorf(
				"safe-mode permissions not applied to %s (%s): %w", seeded.Path, seeded.Action, seeded.Err))
		}
	}

	// Environment assembly.
	env, err := assembleEnv(req, deps, result.Detection)
	if err != nil {
		return nil, err
	}
	if safeMode {
		env[SafeModeEnv] = "1"
	} else {
		delete(env, SafeModeEnv)
	}
	for _, key := range envfile.Missing(input.profile.RequiredEnv, env) {
		result.Warnings = append(result.Warnings, fmt.Errorf(
			"%s is not set; %s may fail to authenticate", key, input.profile.Name))
	}

	// Plan.
	entrypoint := input.profile.Entrypoint(req.Unrestricted)
	if req.Shell {
		entrypoint = ShellEntrypoint
	}
	cpus := firstPositive(req.CPUs, cfg.Defaults.CPUs, input.profile.CPUs)
	memory := firstNonEmpty(req.Memory, cfg.Defaults.Memory, input.profile.Memory)

	result.Plan = sandbox.NewLaunchPlan(
		imageRef,
		mounts.Mounts,
		env,
		mounts.Mounts[0].SandboxPath,
		entrypoint,
		cpus,
		memory,
	)
	return result, nil
}

// validatedInput is the normalized form of a Request that passed
// validation.
type validatedInput struct {
	profile   sandbox.AgentProfile
	target    string
	readWrite []string
	readOnly  []string
	toolchain toolchain.Toolchain
}

func validate(req Request, cfg *config.Config) (validatedInput, error) {
	var input validatedInput

	agentName := req.Agent
	if agentName == "" {
		agentName = cfg.Defaults.Agent
	}
	profile, err := sandbox.Agent(agentName)
	if err != nil {
		return input, classify(KindValidation, err)
	}
	input.profile = profile

	target := req.Target
	if target == "" {
		target = "."
	}
	if input.target, err = existingDirectory(target); err != nil {
		return input, classify(KindValidation, err)
	}
	for _, dir := range req.ReadWrite {
		resolved, err := existingDirectory(dir)
		if err != nil {
			return input, classify(KindValidation, err)
		}
		input.readWrite = append(input.readWrite, resolved)
	}
	for _, dir := range req.ReadOnly {
		resolved, err := existingDirectory(dir)
		if err != nil {
			return input, classify(KindValidation, err)
		}
		input.readOnly = append(input.readOnly, resolved)
	}

	if req.Toolchain != "" {
		if input.toolchain, err = toolchain.Parse(req.Toolchain); err != nil {
			return input, classify(KindValidation, err)
		}
	}
	if req.Image != "" {
		if err := image.ValidateReference(req.Image); err != nil {
			return input, classify(KindValidation, err)
		}
	}
	if _, err := envfile.ParseOverrides(req.Env); err != nil {
		return input, classify(KindValidation, err)
	}
	if req.EnvFile != "" {
		if info, err := os.Stat(req.EnvFile); err != nil || info.IsDir() {
			return input, validationError("env file %s is not a readable file", req.EnvFile)
		}
	}

	if req.CPUs != 0 {
		if err := sandbox.ValidateCPUs(req.CPUs); err != nil {
			return input, classify(KindValidation, err)
		}
	}
	for _, memory := range []string{req.Memory, cfg.Defaults.Memory} {
		if memory == "" {
			continue
		}
		if _, err := sandbox.ParseMemory(memory); err != nil {
			return input, classify(KindValidation, err)
		}
	}
	return input, nil
}

// existingDirectory returns the absolute, cleaned form of path, which
// must name a directory.
func existingDirectory(path string) (string, error) {
	absolute, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	info, err := os.Stat(absolute)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("directory %s does not exist", absolute)
		}
		return "", fmt.Errorf("checking %s: %w", absolute, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", absolute)
	}
	return absolute, nil
}

func assembleEnv(req Request, deps Deps, detection toolchain.Detection) (map[string]string, error) {
	sources := envfile.Sources{
		DefaultPath:  deps.Paths.EnvFile(),
		ExplicitPath: req.EnvFile,
		Overrides:    req.Env,
		Identities:   deps.Identities,
	}
	if detection.Source == toolchain.SourceDevcontainer {
		sources.Base = detection.ContainerEnv
	}

	envPath := sources.DefaultPath
	if sources.ExplicitPath != "" {
		envPath = sources.ExplicitPath
	}
	if sources.Identities == nil && sealed.IsSealed(envPath) {
		identities, err := sealed.LoadIdentities(deps.Paths.IdentityFile())
		if err != nil {
			return nil, classify(KindEnvironment, err)
		}
		sources.Identities = identities
	}

	env, err := envfile.Assemble(sources)
	if err != nil {
		var invalid *envfile.InvalidError
		if errors.As(err, &invalid) {
			return nil, classify(KindValidation, err)
		}
		return nil, classify(KindRuntime, err)
	}
	return env, nil
}

func firstPositive(values ...int) int {
	for _, value := range values {
		if value > 0 {
			return value
		}
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
