// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

package xdg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadboard/threadboard/pkg/errutil"
)

func TestDirs(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		fn   func() (string, error)
		want string
	}{
		{
			name: "config from XDG_CONFIG_HOME",
			env:  map[string]string{"XDG_CONFIG_HOME": "/custom/config"},
			fn:   ConfigDir,
			want: "/custom/config/threadboard",
		},
		{
			name: "config from HOME",
			env:  map[string]string{"XDG_CONFIG_HOME": "", "HOME": "/home/testuser"},
			fn:   ConfigDir,
			want: "/home/testuser/.config/threadboard",
		},
		{
			name: "data from XDG_DATA_HOME",
			env:  map[string]string{"XDG_DATA_HOME": "/custom/data"},
			fn:   DataDir,
			want: "/custom/data/threadboard",
		},
		{
			name: "data from HOME",
			env:  map[string]string{"XDG_DATA_HOME": "", "HOME": "/home/testuser"},
			fn:   DataDir,
			want: "/home/testuser/.local/share/threadboard",
		},
		{
			name: "config file",
			env:  map[string]string{"XDG_CONFIG_HOME": "/custom/config"},
			fn:   ConfigFile,
			want: "/custom/config/threadboard/config.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			got, err := tt.fn()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDataDir_NoHome(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("HOME", "")
	_, err := DataDir()
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "XDG_NO_HOME")
}

func TestEnsureDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
}
