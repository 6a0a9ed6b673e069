// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

// Package store owns the PostgreSQL connection pool and the embedded schema
// migrations shared by the user repository and the SQL session store.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// DefaultConnectTimeout bounds how long Connect waits for the database.
const DefaultConnectTimeout = 30 * time.Second

// Querier is the subset of *pgxpool.Pool used by repositories.
// pgxmock.PgxPoolIface satisfies it in unit tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Connect opens a connection pool for dsn and pings it with exponential
// backoff until the database answers or timeout elapses.
func Connect(ctx context.Context, dsn string, timeout time.Duration) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, oops.Code("DB_INVALID_URL").With("operation", "parse database url").Wrap(err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	if err := waitForDatabase(ctx, pool, timeout); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func waitForDatabase(ctx context.Context, db Pinger, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	backoff := retry.WithCappedDuration(2*time.Second, retry.NewExponential(100*time.Millisecond))

	attempts := 0
	var lastErr error
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		if err := db.Ping(ctx); err != nil {
			lastErr = err
			slog.DebugContext(ctx, "database not ready", "attempt", attempts, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return oops.Code("DB_CONNECT_FAILED").
			With("operation", "ping database").
			With("attempts", attempts).
			Wrap(lastErr)
	}
	return nil
}
