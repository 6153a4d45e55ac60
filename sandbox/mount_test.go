// Copyright 2026 The Spawn Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import "testing"

func TestWorkspaceMount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		hostPath string
		readOnly bool
		want     Mount
		spec     string
	}{
		{
			name:     "plain",
			hostPath: "/Users/dev/project",
			want:     Mount{HostPath: "/Users/dev/project", SandboxPath: "/workspace/project"},
			spec:     "/Users/dev/project:/workspace/project",
		},
		{
			name:     "trailing slash",
			hostPath: "/Users/dev/project/",
			want:     Mount{HostPath: "/Users/dev/project", SandboxPath: "/workspace/project"},
			spec:     "/Users/dev/project:/workspace/project",
		},
		{
			name:     "read only",
			hostPath: "/data/reference",
			readOnly: true,
			want:     Mount{HostPath: "/data/reference", SandboxPath: "/workspace/reference", ReadOnly: true},
			spec:     "/data/reference:/workspace/reference:ro",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			got := WorkspaceMount(test.hostPath, test.readOnly)
			if got != test.want {
				t.Errorf("WorkspaceMount(%q) = %+v, want %+v", test.hostPath, got, test.want)
			}
			if spec := got.VolumeSpec(); spec != test.spec {
				t.Errorf("VolumeSpec() = %q, want %q", spec, test.spec)
			}
		})
	}
}
