// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

package config

import (
	"io"
	"net/url"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

const redacted = "[redacted]"

type view struct {
	DatabaseURL            string `yaml:"database_url"`
	SessionStoreURL        string `yaml:"session_store_url"`
	SessionSecret          string `yaml:"session_secret"`
	Port                   int    `yaml:"port"`
	AppEnv                 string `yaml:"app_env"`
	LogFormat              string `yaml:"log_format"`
	LogLevel               string `yaml:"log_level"`
	MetricsAddr            string `yaml:"metrics_addr"`
	SessionSweepInterval   string `yaml:"session_sweep_interval"`
	DatabaseConnectTimeout string `yaml:"database_connect_timeout"`
}

// WriteYAML writes the effective configuration with secrets masked.
func (c *Config) WriteYAML(w io.Writer) error {
	v := view{
		DatabaseURL:            redactURL(c.DatabaseURL),
		SessionStoreURL:        redactURL(c.SessionStoreURL),
		SessionSecret:          redacted,
		Port:                   c.Port,
		AppEnv:                 c.AppEnv,
		LogFormat:              c.LogFormat,
		LogLevel:               c.LogLevel,
		MetricsAddr:            c.MetricsAddr,
		SessionSweepInterval:   c.SweepInterval.String(),
		DatabaseConnectTimeout: c.ConnectTimeout.String(),
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return oops.Code("CONFIG_SHOW_FAILED").Wrap(err)
	}
	if err := enc.Close(); err != nil {
		return oops.Code("CONFIG_SHOW_FAILED").Wrap(err)
	}
	return nil
}

// redactURL masks the password in a connection URL. Unparseable values
// are masked entirely.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return redacted
	}
	return u.Redacted()
}
