// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Credential material is copied into the state directory rather than
// bind-mounted directly: passthrough mounts keep host ownership and
// modes, which makes 0600 files unreadable to the sandbox user. Every
// run restages from scratch so rotated credentials are picked up.

// Sandbox locations of staged credentials. The base image symlinks
// ~/.gitconfig into the gitconfig directory.
var (
	GitConfigSandboxDir = path.Join(SandboxHome, ".gitconfig-dir")
	SSHSandboxDir       = path.Join(SandboxHome, ".ssh")
	ForgeSandboxDir     = path.Join(SandboxHome, ".config", "gh")
)

// forgeFiles are the only code-forge CLI files staged; everything else
// in ~/.config/gh stays on the host.
var forgeFiles = []string{"hosts.yml", "config.yml"}

// publicSSHFiles keep their source mode; every other staged SSH file is
// forced to 0600.
var publicSSHFiles = map[string]bool{
	"known_hosts":     true,
	"known_hosts.old": true,
	"config":          true,
}

// StagingError describes one credential source that could not be
// staged.
type StagingError struct {
	Source string
	Err    error
}

func (e *StagingError) Error() string {
	return fmt.Sprintf("staging %s: %v", e.Source, e.Err)
}

func (e *StagingError) Unwrap() error { return e.Err }

// stageGitConfig copies ~/.gitconfig into stateDir/git. ok is false when
// the user has no gitconfig.
func stageGitConfig(home, stateDir string) (Mount, bool, error) {
	source := filepath.Join(home, ".gitconfig")
	if _, err := os.Stat(source); err != nil {
		return Mount{}, false, nil
	}
	staging := filepath.Join(stateDir, "git")
	if err := resetDir(staging); err != nil {
		return Mount{}, false, &StagingError{Source: source, Err: err}
	}
	if err := copyFile(source, filepath.Join(staging, ".gitconfig"), 0o644); err != nil {
		return Mount{}, false, &StagingError{Source: source, Err: err}
	}
	return Mount{HostPath: staging, SandboxPath: GitConfigSandboxDir, ReadOnly: true}, true, nil
}

// stageSSH copies the regular files of ~/.ssh into stateDir/ssh.
// Directories, sockets, and symlinks are skipped; a symlink could
// otherwise pull in files from anywhere on the host.
func stageSSH(home, stateDir string) (Mount, bool, error) {
	source := filepath.Join(home, ".ssh")
	if _, err := os.Stat(source); err != nil {
		return Mount{}, false, nil
	}
	staging := filepath.Join(stateDir, "ssh")
	if err := resetDir(staging); err != nil {
		return Mount{}, false, &StagingError{Source: source, Err: err}
	}
	entries, err := os.ReadDir(source)
	if err != nil {
		return Mount{}, false, &StagingError{Source: source, Err: err}
	}

	var errs []error
	for _, entry := range entries {
		// ReadDir reports the Lstat type, so symlinks are not followed.
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		info, err := entry.Info()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		mode := info.Mode().Perm()
		if !isPublicSSHFile(name) {
			mode = 0o600
		}
		if err := copyFile(filepath.Join(source, name), filepath.Join(staging, name), mode); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return Mount{}, false, &StagingError{Source: source, Err: err}
	}
	return Mount{HostPath: staging, SandboxPath: SSHSandboxDir, ReadOnly: true}, true, nil
}

func isPublicSSHFile(name string) bool {
	return strings.HasSuffix(name, ".pub") || publicSSHFiles[name]
}

// stageForgeAuth copies the gh CLI auth and config files into
// stateDir/gh.
func stageForgeAuth(home, stateDir string) (Mount, bool, error) {
	source := filepath.Join(home, ".config", "gh")
	if _, err := os.Stat(source); err != nil {
		return Mount{}, false, nil
	}
	staging := filepath.Join(stateDir, "gh")
	if err := resetDir(staging); err != nil {
		return Mount{}, false, &StagingError{Source: source, Err: err}
	}
	for _, name := range forgeFiles {
		from := filepath.Join(source, name)
		info, err := os.Lstat(from)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if err := copyFile(from, filepath.Join(staging, name), 0o600); err != nil {
			return Mount{}, false, &StagingError{Source: source, Err: err}
		}
	}
	return Mount{HostPath: staging, SandboxPath: ForgeSandboxDir, ReadOnly: true}, true, nil
}

// resetDir removes dir and recreates it empty.
func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o700)
}

// copyFile copies a regular file, creating destination with mode. The
// mode is applied explicitly so the umask cannot loosen or tighten it.
func copyFile(source, destination string, mode fs.FileMode) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(destination, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", source, err)
	}
	if err := out.Chmod(mode); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
