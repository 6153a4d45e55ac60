// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

package image

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	v1 "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/spawn-dev/spawn/engine"
	"github.com/spawn-dev/spawn/lib/binhash"
	"github.com/spawn-dev/spawn/toolchain"
)

// BuildError reports an engine build that exited non-zero.
type BuildError struct {
	Reference string
	ExitCode  int
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("building %s: container engine exited with status %d", e.Reference, e.ExitCode)
}

// Builder produces spawn's toolchain images and project images through
// the container engine.
type Builder struct {
	Engine   *engine.Engine
	Resolver Resolver

	// BuildDir holds one generated build context per template digest.
	BuildDir string

	// Output receives build progress. Nil discards it.
	Output io.Writer

	NoCache bool

	// Now stamps the creation annotation. Nil uses time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

// Template is a rendered Containerfile and its BLAKE3 digest.
type Template struct {
	Toolchain toolchain.Toolchain
	Content   []byte
	Digest    [32]byte
}

// Template renders the Containerfile for tc with this builder's image
// prefix.
func (b *Builder) Template(tc toolchain.Toolchain) (Template, error) {
	content, err := toolchain.Render(tc, toolchain.DefaultParams(b.Resolver.Prefix))
	if err != nil {
		return Template{}, err
	}
	return Template{Toolchain: tc, Content: content, Digest: binhash.HashBytes(content)}, nil
}

// TemplateDrift reports whether the installed image for tc was built
// from a different Containerfile than the current one. ok is false when
// the image is missing or carries no template annotation.
func (b *Builder) TemplateDrift(store *Store, tc toolchain.Toolchain) (drifted bool, ok bool, err error) {
	descriptor, found := store.Lookup(b.Resolver.Canonical(tc))
	if !found {
		return false, false, nil
	}
	recorded, found := descriptor.Annotations[TemplateAnnotation]
	if !found {
		return false, false, nil
	}
	current, err := b.Template(tc)
	if err != nil {
		return false, false, err
	}
	digest, err := binhash.ParseDigest(recorded)
	if err != nil {
		// An unreadable annotation cannot match any template.
		return true, true, nil
	}
	return digest != current.Digest, true, nil
}

// BuildToolchain renders tc's Containerfile into its own build context
// directory and builds <prefix>-<tc>:latest from it.
func (b *Builder) BuildToolchain(ctx context.Context, tc toolchain.Toolchain) error {
	template, err := b.Template(tc)
	if err != nil {
		return err
	}

	contextDir := filepath.Join(b.BuildDir, string(tc)+"-"+binhash.ShortDigest(template.Digest))
	if err := os.MkdirAll(contextDir, 0o755); err != nil {
		return fmt.Errorf("creating build context: %w", err)
	}
	file := filepath.Join(contextDir, "Containerfile")
	if existing, err := binhash.HashFile(file); err != nil || existing != template.Digest {
		if err := os.WriteFile(file, template.Content, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", file, err)
		}
	}

	return b.build(ctx, b.Resolver.Canonical(tc), file, contextDir, map[string]string{
		TemplateAnnotation: binhash.FormatDigest(template.Digest),
	})
}

// BuildProject builds reference from a project's own container build
// file.
func (b *Builder) BuildProject(ctx context.Context, reference, file, contextDir string) error {
	return b.build(ctx, reference, file, contextDir, nil)
}

func (b *Builder) build(ctx context.Context, reference, file, contextDir string, labels map[string]string) error {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	allLabels := map[string]string{v1.AnnotationCreated: now().UTC().Format(time.RFC3339)}
	for key, value := range labels {
		allLabels[key] = value
	}

	if b.Logger != nil {
		b.Logger.Info("building image", "reference", reference, "file", file)
	}
	code, err := b.Engine.Build(ctx, engine.BuildRequest{
		Tag:     reference,
		File:    file,
		Context: contextDir,
		Labels:  allLabels,
		NoCache: b.NoCache,
		Output:  b.Output,
	})
	if err != nil {
		return err
	}
	if code != 0 {
		return &BuildError{Reference: reference, ExitCode: code}
	}
	return nil
}
