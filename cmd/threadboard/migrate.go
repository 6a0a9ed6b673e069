// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/threadboard/threadboard/internal/store"
)

// migrator is the part of *store.Migrator the migrate commands use.
type migrator interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
	Force(version int) error
	PendingMigrations() ([]uint, error)
	AppliedMigrations() ([]uint, error)
	Close() error
}

// newMigrator is swapped in tests.
var newMigrator = func(databaseURL string) (migrator, error) {
	return store.NewMigrator(databaseURL)
}

// NewMigrateCmd creates the migrate command group.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long:  `Apply, roll back, or inspect the schema migrations of DATABASE_URL.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m migrator, _ []string) error {
			pending, err := m.PendingMigrations()
			if err != nil {
				return err //nolint:wrapcheck // already coded
			}
			if len(pending) == 0 {
				cmd.Println("Database is up to date")
				return nil
			}
			cmd.Printf("Applying %d migration(s)...\n", len(pending))
			if err := m.Up(); err != nil {
				return err //nolint:wrapcheck // already coded
			}
			cmd.Println("Migrations completed successfully")
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every migration (drops all data)",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m migrator, _ []string) error {
			cmd.Println("Rolling back all migrations...")
			if err := m.Down(); err != nil {
				return err //nolint:wrapcheck // already coded
			}
			cmd.Println("Rollback completed")
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE:  withMigrator(printStatus),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force <version>",
		Short: "Mark a version as applied without running it",
		Long: `Record <version> as the current schema version and clear the dirty flag.
Use only after repairing a failed migration by hand.`,
		Args: cobra.ExactArgs(1),
		RunE: withMigrator(func(cmd *cobra.Command, m migrator, args []string) error {
			version, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			if err := m.Force(version); err != nil {
				return err //nolint:wrapcheck // already coded
			}
			cmd.Printf("Forced schema version to %d\n", version)
			return nil
		}),
	})

	return cmd
}

func withMigrator(run func(*cobra.Command, migrator, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		databaseURL, err := getDatabaseURL()
		if err != nil {
			return err
		}
		m, err := newMigrator(databaseURL)
		if err != nil {
			return err //nolint:wrapcheck // already coded
		}
		defer func() {
			if closeErr := m.Close(); closeErr != nil {
				cmd.PrintErrf("warning: closing migrator: %v\n", closeErr)
			}
		}()
		return run(cmd, m, args)
	}
}

func printStatus(cmd *cobra.Command, m migrator, _ []string) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err //nolint:wrapcheck // already coded
	}
	applied, err := m.AppliedMigrations()
	if err != nil {
		return err //nolint:wrapcheck // already coded
	}
	pending, err := m.PendingMigrations()
	if err != nil {
		return err //nolint:wrapcheck // already coded
	}

	state := "clean"
	if dirty {
		state = "DIRTY (repair, then run 'migrate force')"
	}
	cmd.Printf("Current version: %d (%s)\n", version, state)
	cmd.Printf("Applied: %s\n", describe(applied))
	cmd.Printf("Pending: %s\n", describe(pending))
	return nil
}

func describe(versions []uint) string {
	if len(versions) == 0 {
		return "none"
	}
	names := make([]string, 0, len(versions))
	for _, v := range versions {
		name, err := store.MigrationName(v)
		if err != nil || name == "" {
			name = fmt.Sprintf("%06d", v)
		}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}

// parseForceVersion parses the leading integer of s.
func parseForceVersion(s string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &version); err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Wrap(err)
	}
	return version, nil
}

type databaseEnv struct {
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
}

// getDatabaseURL reads DATABASE_URL. Migrations need nothing else from the
// environment.
func getDatabaseURL() (string, error) {
	var e databaseEnv
	if err := env.Parse(&e); err != nil {
		return "", oops.Code("CONFIG_INVALID").With("key", "DATABASE_URL").Wrap(err)
	}
	return e.DatabaseURL, nil
}
