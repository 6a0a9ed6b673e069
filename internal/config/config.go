// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

// Package config assembles process configuration.
//
// Connection settings and secrets come only from the environment and are
// required. Operational knobs come from an optional YAML file, validated
// against a generated JSON Schema, with command-line flags layered on top.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/threadboard/threadboard/internal/logging"
	"github.com/threadboard/threadboard/internal/session"
	"github.com/threadboard/threadboard/internal/store"
)

// Defaults for the file and flag settings.
const (
	DefaultLogFormat     = logging.FormatJSON
	DefaultLogLevel      = "info"
	DefaultSweepInterval = session.DefaultSweepInterval
	DefaultConnect       = store.DefaultConnectTimeout
)

// Env is the required process environment.
type Env struct {
	DatabaseURL     string `env:"DATABASE_URL,required,notEmpty"`
	SessionStoreURL string `env:"SESSION_STORE_URL,required,notEmpty"`
	SessionSecret   string `env:"SESSION_SECRET,required,notEmpty"`
	Port            int    `env:"PORT,required,notEmpty"`
	AppEnv          string `env:"APP_ENV" envDefault:"development"`
}

// Settings are the knobs accepted from the config file and flags.
type Settings struct {
	LogFormat              string `koanf:"log_format" json:"log_format,omitempty" jsonschema:"enum=json,enum=text,description=Log output format"`
	LogLevel               string `koanf:"log_level" json:"log_level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,description=Minimum log level"`
	MetricsAddr            string `koanf:"metrics_addr" json:"metrics_addr,omitempty" jsonschema:"description=Metrics and health listen address; empty disables"`
	SessionSweepInterval   string `koanf:"session_sweep_interval" json:"session_sweep_interval,omitempty" jsonschema:"description=How often expired sessions are purged (Go duration)"`
	DatabaseConnectTimeout string `koanf:"database_connect_timeout" json:"database_connect_timeout,omitempty" jsonschema:"description=How long startup waits for PostgreSQL (Go duration)"`
}

// Config is the resolved configuration.
type Config struct {
	Env
	Settings

	SweepInterval  time.Duration
	ConnectTimeout time.Duration
}

// Production reports whether APP_ENV selects production behavior.
func (c *Config) Production() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// ListenAddr is the GraphQL listen address.
func (c *Config) ListenAddr() string {
	return ":" + strconv.Itoa(c.Port)
}

// RegisterFlags adds the setting flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("log-format", DefaultLogFormat, "log format (json or text)")
	fs.String("log-level", DefaultLogLevel, "minimum log level (debug, info, warn, error)")
	fs.String("metrics-addr", "", "metrics/health HTTP address (empty = disabled)")
	fs.Duration("session-sweep-interval", DefaultSweepInterval, "interval between expired-session sweeps")
	fs.Duration("database-connect-timeout", DefaultConnect, "how long to wait for the database at startup")
}

// Options controls Load.
type Options struct {
	// File is an optional YAML config file.
	File string
	// Flags, when set, override the file. Unchanged flags only fill keys
	// the file left unset.
	Flags *pflag.FlagSet
	// Environment replaces os.Environ when non-nil.
	Environment map[string]string
}

// Load reads settings and environment into a validated Config.
func Load(opts Options) (*Config, error) {
	k := koanf.New(".")

	if opts.File != "" {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return nil, oops.Code("CONFIG_READ_FAILED").With("file", opts.File).Wrap(err)
		}
		if err := ValidateYAML(data); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("file", opts.File).Wrap(err)
		}
		if err := k.Load(file.Provider(opts.File), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_READ_FAILED").With("file", opts.File).Wrap(err)
		}
	}

	if opts.Flags != nil {
		fs := opts.Flags
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if f.Value.Type() == "duration" {
				return key, f.Value.String()
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", &cfg.Settings); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "decode settings").Wrap(err)
	}

	if err := env.ParseWithOptions(&cfg.Env, env.Options{Environment: opts.Environment}); err != nil {
		return nil, oops.Code("CONFIG_ENV_INVALID").Wrap(err)
	}

	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) resolve() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}

	var err error
	if c.SweepInterval, err = parseDuration("session_sweep_interval", c.SessionSweepInterval, DefaultSweepInterval); err != nil {
		return err
	}
	if c.ConnectTimeout, err = parseDuration("database_connect_timeout", c.DatabaseConnectTimeout, DefaultConnect); err != nil {
		return err
	}
	c.SessionSweepInterval = c.SweepInterval.String()
	c.DatabaseConnectTimeout = c.ConnectTimeout.String()

	if c.Port < 1 || c.Port > 65535 {
		return oops.Code("CONFIG_INVALID").With("key", "PORT").With("value", c.Port).Errorf("PORT must be between 1 and 65535")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return oops.Code("CONFIG_INVALID").With("key", "log_level").Wrap(err)
	}
	switch c.LogFormat {
	case logging.FormatJSON, logging.FormatText:
	default:
		return oops.Code("CONFIG_INVALID").With("key", "log_format").With("value", c.LogFormat).
			Errorf("log_format must be json or text")
	}
	return nil
}

func parseDuration(key, raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, oops.Code("CONFIG_INVALID").With("key", key).With("value", raw).Wrap(err)
	}
	if d <= 0 {
		return 0, oops.Code("CONFIG_INVALID").With("key", key).With("value", raw).Errorf("%s must be positive", key)
	}
	return d, nil
}
