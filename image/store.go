// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

package image

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	v1 "github.com/opencontainers/image-spec/specs-go/v1"
)

// StateFile is the engine's image index inside its store root.
const StateFile = "state.json"

// TemplateAnnotation records the BLAKE3 digest of the Containerfile an
// image was built from.
const TemplateAnnotation = "dev.spawn.template"

// Store reads the container engine's local image index: a JSON object
// mapping image references to OCI descriptors. Every query is
// best-effort; an unreadable or malformed index behaves as empty.
type Store struct {
	Root string
}

// DefaultStoreRoot returns the engine's application data directory,
// e.g. ~/Library/Application Support/com.apple.container on macOS.
func DefaultStoreRoot() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "com.apple.container")
}

// NewStore returns a Store rooted at root, or at DefaultStoreRoot when
// root is empty.
func NewStore(root string) *Store {
	if root == "" {
		root = DefaultStoreRoot()
	}
	return &Store{Root: root}
}

// Index reads the whole image index.
func (s *Store) Index() (map[string]v1.Descriptor, error) {
	if s == nil || s.Root == "" {
		return nil, fmt.Errorf("image store root is not configured")
	}
	path := filepath.Join(s.Root, StateFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var index map[string]v1.Descriptor
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return index, nil
}

// Lookup returns the descriptor recorded for ref.
func (s *Store) Lookup(ref string) (v1.Descriptor, bool) {
	index, err := s.Index()
	if err != nil {
		return v1.Descriptor{}, false
	}
	descriptor, ok := index[ref]
	return descriptor, ok
}

// Exists reports whether ref is installed. Any failure reading the
// index yields false.
func (s *Store) Exists(ref string) bool {
	_, ok := s.Lookup(ref)
	return ok
}

// IsStale reports whether ref was created strictly before baseRef, so
// that it was built FROM an older base image than the one installed
// now. It is false whenever either creation time is missing or
// unparsable, and always false when ref is baseRef.
func (s *Store) IsStale(ref, baseRef string) bool {
	if ref == baseRef {
		return false
	}
	index, err := s.Index()
	if err != nil {
		return false
	}
	created, ok := creationTime(index[ref])
	if !ok {
		return false
	}
	baseCreated, ok := creationTime(index[baseRef])
	if !ok {
		return false
	}
	return created.Before(baseCreated)
}

// creationTime parses the org.opencontainers.image.created annotation,
// with fractional seconds first and then without.
func creationTime(descriptor v1.Descriptor) (time.Time, bool) {
	value, ok := descriptor.Annotations[v1.AnnotationCreated]
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// NotFoundError reports an image missing from the local store. Hint
// tells the user how to get it.
type NotFoundError struct {
	Reference string
	Hint      string
}

func (e *NotFoundError) Error() string {
	if e.Hint == "" {
		return fmt.Sprintf("image %s not found", e.Reference)
	}
	return fmt.Sprintf("image %s not found; %s", e.Reference, e.Hint)
}
