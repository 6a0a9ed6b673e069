// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/threadboard/threadboard/internal/config"
	"github.com/threadboard/threadboard/internal/xdg"
)

// NewRootCmd creates the root command for the Threadboard CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threadboard",
		Short: "Threadboard - forum backend",
		Long: `Threadboard serves a GraphQL API for forum accounts with
cookie-based sessions backed by PostgreSQL, Badger or memory.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "YAML config file path (default $XDG_CONFIG_HOME/threadboard/config.yaml if present)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewConfigCmd())

	return cmd
}

// loadConfig resolves the full configuration for cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err //nolint:wrapcheck // flag is always registered
	}
	if file == "" {
		file = defaultConfigFile()
	}
	return config.Load(config.Options{File: file, Flags: cmd.Flags()})
}

// defaultConfigFile returns the XDG config file when it exists, else "".
func defaultConfigFile() string {
	path, err := xdg.ConfigFile()
	if err != nil {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
