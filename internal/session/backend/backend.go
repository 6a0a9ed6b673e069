// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

// Package backend opens the session store named by SESSION_STORE_URL.
//
// Supported schemes:
//
//	postgres://, postgresql://   sessions table in PostgreSQL
//	badger://<dir>               embedded Badger on disk (empty dir: XDG data dir)
//	memory://                    in-memory Badger, lost on restart
package backend

import (
	"context"
	"log/slog"
	"net/url"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"

	"github.com/threadboard/threadboard/internal/session"
	"github.com/threadboard/threadboard/internal/session/badger"
	"github.com/threadboard/threadboard/internal/session/postgres"
	"github.com/threadboard/threadboard/internal/store"
	"github.com/threadboard/threadboard/internal/xdg"
)

// Options carries what Open may reuse from the main database.
type Options struct {
	// DatabaseURL and Pool let a postgres session URL equal to the main
	// database share its pool instead of opening a second one.
	DatabaseURL    string
	Pool           *pgxpool.Pool
	ConnectTimeout time.Duration
	Logger         *slog.Logger
}

// Open returns the session store for storeURL.
func Open(ctx context.Context, storeURL string, opts Options) (session.Store, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	u, err := url.Parse(storeURL)
	if err != nil {
		return nil, oops.Code("SESSION_STORE_INVALID_URL").Wrap(err)
	}

	switch u.Scheme {
	case "postgres", "postgresql":
		return openPostgres(ctx, storeURL, opts)
	case "badger":
		dir := u.Host + u.Path
		if dir == "" {
			dataDir, err := xdg.DataDir()
			if err != nil {
				return nil, oops.Code("SESSION_STORE_OPEN_FAILED").With("backend", "badger").Wrap(err)
			}
			dir = filepath.Join(dataDir, "sessions")
		}
		if err := xdg.EnsureDir(dir); err != nil {
			return nil, oops.Code("SESSION_STORE_OPEN_FAILED").With("backend", "badger").Wrap(err)
		}
		opts.Logger.InfoContext(ctx, "opening session store", "backend", "badger", "dir", dir)
		return badger.Open(dir, opts.Logger)
	case "memory":
		opts.Logger.InfoContext(ctx, "opening session store", "backend", "memory")
		return badger.Open("", opts.Logger)
	default:
		return nil, oops.Code("SESSION_STORE_UNSUPPORTED").
			With("scheme", u.Scheme).
			Errorf("unsupported session store scheme %q", u.Scheme)
	}
}

func openPostgres(ctx context.Context, storeURL string, opts Options) (session.Store, error) {
	if opts.Pool != nil && storeURL == opts.DatabaseURL {
		opts.Logger.InfoContext(ctx, "opening session store", "backend", "postgres", "shared_pool", true)
		return postgres.NewStore(opts.Pool), nil
	}

	// A separate database needs its own schema before use.
	migrator, err := store.NewMigrator(storeURL)
	if err != nil {
		return nil, oops.Code("SESSION_STORE_OPEN_FAILED").With("backend", "postgres").Wrap(err)
	}
	upErr := migrator.Up()
	closeErr := migrator.Close()
	if upErr != nil {
		return nil, oops.Code("SESSION_STORE_OPEN_FAILED").With("backend", "postgres").Wrap(upErr)
	}
	if closeErr != nil {
		opts.Logger.WarnContext(ctx, "failed to close session store migrator", "error", closeErr)
	}

	pool, err := store.Connect(ctx, storeURL, opts.ConnectTimeout)
	if err != nil {
		return nil, oops.Code("SESSION_STORE_OPEN_FAILED").With("backend", "postgres").Wrap(err)
	}
	opts.Logger.InfoContext(ctx, "opening session store", "backend", "postgres", "shared_pool", false)
	return postgres.NewOwningStore(pool), nil
}
