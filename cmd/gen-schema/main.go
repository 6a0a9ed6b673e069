// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

// Command gen-schema writes the config file JSON Schema.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/threadboard/threadboard/internal/config"
)

const defaultOut = "schemas/config.schema.json"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("gen-schema", pflag.ContinueOnError)
	out := fs.StringP("out", "o", filepath.FromSlash(defaultOut), "output path")
	if err := fs.Parse(args); err != nil {
		return err //nolint:wrapcheck // pflag already names the bad flag
	}

	schema, err := config.GenerateSchema()
	if err != nil {
		return fmt.Errorf("generating schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o750); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(*out, append(schema, '\n'), 0o600); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	_, _ = fmt.Fprintf(stdout, "Generated %s\n", *out)
	return nil
}
