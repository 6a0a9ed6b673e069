// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "config"} {
		assert.True(t, names[want], "missing %s subcommand", want)
	}

	for _, flag := range []string{"config", "log-format", "log-level", "metrics-addr", "session-sweep-interval", "database-connect-timeout"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "missing --%s", flag)
	}
}

func TestRootCmd_Help(t *testing.T) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "threadboard")
	assert.Contains(t, out.String(), "migrate")
}

func TestConfigShow(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("DATABASE_URL", "postgres://tb:hunter2@db:5432/threadboard")
	t.Setenv("SESSION_STORE_URL", "memory://")
	t.Setenv("SESSION_SECRET", "keyboard cat")
	t.Setenv("PORT", "4000")

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "show", "--log-format=text"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "log_format: text")
	assert.Contains(t, out.String(), "port: 4000")
	assert.NotContains(t, out.String(), "hunter2")
	assert.NotContains(t, out.String(), "keyboard cat")
}

func TestConfigShow_MissingEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"config", "show"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestConfigShow_DefaultFileFromXDG(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)
	t.Setenv("DATABASE_URL", "postgres://tb@db:5432/threadboard")
	t.Setenv("SESSION_STORE_URL", "memory://")
	t.Setenv("SESSION_SECRET", "keyboard cat")
	t.Setenv("PORT", "4000")

	dir := filepath.Join(base, "threadboard")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log_level: debug\n"), 0o600))

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "show"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "log_level: debug")
}

func TestDefaultConfigFile_Missing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	assert.Empty(t, defaultConfigFile())
}
