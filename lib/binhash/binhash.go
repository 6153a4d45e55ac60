// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

// Package binhash computes BLAKE3 content digests. Spawn digests the
// Containerfile generated for each toolchain so that a build context
// directory is addressed by its content, and so that an installed image
// can be compared against the template the current binary would build.
package binhash

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// HashBytes returns the BLAKE3-256 digest of data.
func HashBytes(data []byte) [32]byte {
	return blake3.Sum256(data)
}

// HashFile computes the BLAKE3-256 digest of the file at path, streaming
// the contents so memory use is independent of file size.
func HashFile(path string) ([32]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return [32]byte{}, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return [32]byte{}, fmt.Errorf("hashing %s: %w", path, err)
	}

	var digest [32]byte
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

// FormatDigest returns the lowercase hex form of digest.
func FormatDigest(digest [32]byte) string {
	return hex.EncodeToString(digest[:])
}

// ShortDigest returns the first 12 hex characters of digest, used in
// directory names.
func ShortDigest(digest [32]byte) string {
	return FormatDigest(digest)[:12]
}

// ParseDigest parses a 64-character hex digest.
func ParseDigest(hexString string) ([32]byte, error) {
	var digest [32]byte
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return digest, fmt.Errorf("parsing hash digest: %w", err)
	}
	if len(decoded) != 32 {
		return digest, fmt.Errorf("hash digest is %d bytes, want 32", len(decoded))
	}
	copy(digest[:], decoded)
	return digest, nil
}
