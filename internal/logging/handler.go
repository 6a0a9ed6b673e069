// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

// Package logging builds the process logger. Records logged with a context
// carrying an OpenTelemetry span are stamped with its trace and span IDs.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel/trace"
)

// Formats accepted by Options.Format.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Options configures New.
type Options struct {
	Service string
	Version string
	Format  string     // FormatJSON (default) or FormatText
	Level   slog.Level // minimum level; zero means Info
	Writer  io.Writer  // defaults to os.Stderr
}

type traceHandler struct {
	slog.Handler
}

func (h traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	//nolint:wrapcheck // Handler interface requires unwrapped error passthrough
	return h.Handler.Handle(ctx, r)
}

func (h traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return traceHandler{h.Handler.WithAttrs(attrs)}
}

func (h traceHandler) WithGroup(name string) slog.Handler {
	return traceHandler{h.Handler.WithGroup(name)}
}

// New creates a logger from opts. Every record carries service and version.
func New(opts Options) (*slog.Logger, error) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	ho := &slog.HandlerOptions{Level: opts.Level}

	var base slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", FormatJSON:
		base = slog.NewJSONHandler(w, ho)
	case FormatText:
		base = slog.NewTextHandler(w, ho)
	default:
		return nil, oops.Code("LOG_FORMAT_INVALID").
			With("format", opts.Format).
			Errorf("log format must be %q or %q", FormatJSON, FormatText)
	}

	base = base.WithAttrs([]slog.Attr{
		slog.String("service", opts.Service),
		slog.String("version", opts.Version),
	})
	return slog.New(traceHandler{base}), nil
}

// ParseLevel maps debug, info, warn and error to a slog.Level.
// An empty string is Info.
func ParseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, oops.Code("LOG_LEVEL_INVALID").With("level", s).Wrap(err)
	}
	return level, nil
}
