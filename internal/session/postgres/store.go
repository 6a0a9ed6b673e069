// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

// Package postgres stores sessions in the PostgreSQL sessions table.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/threadboard/threadboard/internal/session"
	"github.com/threadboard/threadboard/internal/store"
)

// Store implements session.Store using PostgreSQL.
type Store struct {
	pool    store.Querier
	onClose func()
	clock   func() time.Time
}

// NewStore creates a Store on a pool owned by the caller.
func NewStore(pool store.Querier) *Store {
	return &Store{pool: pool, clock: time.Now}
}

// NewOwningStore creates a Store that closes pool on Close.
func NewOwningStore(pool interface {
	store.Querier
	Close()
},
) *Store {
	s := NewStore(pool)
	s.onClose = pool.Close
	return s
}

// Get returns a live session by ID.
func (s *Store) Get(ctx context.Context, id string) (*session.Session, error) {
	var (
		sess      session.Session
		userIDStr string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, expires_at, created_at
		FROM sessions
		WHERE id = $1 AND expires_at > $2
	`, id, s.clock()).Scan(&sess.ID, &userIDStr, &sess.ExpiresAt, &sess.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(session.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_FAILED").
			With("operation", "get session").
			Wrap(err)
	}

	sess.UserID, err = ulid.Parse(userIDStr)
	if err != nil {
		return nil, oops.Code("SESSION_INVALID_USER_ID").
			With("operation", "parse user id").
			With("user_id", userIDStr).
			Wrap(err)
	}
	return &sess, nil
}

// Save upserts the session.
func (s *Store) Save(ctx context.Context, sess *session.Session) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (id, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET user_id = EXCLUDED.user_id, expires_at = EXCLUDED.expires_at
	`, sess.ID, sess.UserID.String(), sess.ExpiresAt, sess.CreatedAt)
	if err != nil {
		return oops.Code("SESSION_SAVE_FAILED").
			With("operation", "upsert session").
			With("user_id", sess.UserID.String()).
			Wrap(err)
	}
	return nil
}

// Destroy deletes the session. Zero affected rows is not an error.
func (s *Store) Destroy(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return oops.Code("SESSION_DESTROY_FAILED").
			With("operation", "delete session").
			Wrap(err)
	}
	return nil
}

// DeleteExpired removes every expired session.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, s.clock())
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired sessions").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// Close closes the pool when the Store owns it.
func (s *Store) Close() error {
	if s.onClose != nil {
		s.onClose()
	}
	return nil
}

var _ session.Store = (*Store)(nil)
