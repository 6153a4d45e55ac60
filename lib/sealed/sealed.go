// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed opens age-encrypted files with identities loaded from
// disk. Spawn uses it for env files that hold API keys: a file whose
// name ends in ".age" is decrypted in memory with the user's identity
// file and never written back to disk in plaintext.
package sealed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"filippo.io/age"
)

// Extension marks a file as age-encrypted.
const Extension = ".age"

// ErrNoIdentities is returned by Open when a sealed file is encountered
// but no identity was supplied to decrypt it.
var ErrNoIdentities = errors.New("sealed file requires an age identity")

// IsSealed reports whether path names an age-encrypted file.
func IsSealed(path string) bool {
	return strings.HasSuffix(path, Extension)
}

// LoadIdentities parses an age identity file (one AGE-SECRET-KEY-1...
// per line, '#' comments allowed). A missing file yields no identities
// and no error.
func LoadIdentities(path string) ([]age.Identity, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening identity file: %w", err)
	}
	defer file.Close()

	identities, err := age.ParseIdentities(file)
	if err != nil {
		return nil, fmt.Errorf("parsing identity file %s: %w", path, err)
	}
	return identities, nil
}

// Open decrypts ciphertext with any of the given identities.
func Open(ciphertext []byte, identities ...age.Identity) ([]byte, error) {
	if len(identities) == 0 {
		return nil, ErrNoIdentities
	}
	reader, err := age.Decrypt(bytes.NewReader(ciphertext), identities...)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted plaintext: %w", err)
	}
	return plaintext, nil
}

// Seal encrypts plaintext to the given age recipient public keys
// (age1... strings).
func Seal(plaintext []byte, recipientKeys ...string) ([]byte, error) {
	if len(recipientKeys) == 0 {
		return nil, fmt.Errorf("at least one recipient is required")
	}
	recipients := make([]age.Recipient, 0, len(recipientKeys))
	for _, key := range recipientKeys {
		recipient, err := age.ParseX25519Recipient(key)
		if err != nil {
			return nil, fmt.Errorf("parsing recipient %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}

	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, recipients...)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return nil, fmt.Errorf("encrypting: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}
	return ciphertext.Bytes(), nil
}
