// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

// Package postgres implements auth.UserRepository on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/threadboard/threadboard/internal/auth"
	"github.com/threadboard/threadboard/internal/store"
)

// Unique constraint names from migration 000001_create_users.
const (
	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"
)

const userColumns = `id, username, email, password_hash, created_at, updated_at`

// UserRepository implements auth.UserRepository using PostgreSQL.
type UserRepository struct {
	pool store.Querier
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool store.Querier) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create assigns the user an ID and timestamps, then inserts it.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := ulid.Make()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, username, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id.String(), user.Username, user.Email, user.PasswordHash, now, now)
	if err != nil {
		if dup := duplicateError(err); dup != nil {
			return oops.Code("USER_DUPLICATE").
				With("username", user.Username).
				Wrap(dup)
		}
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("username", user.Username).
			Wrap(err)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// duplicateError maps a unique violation on users to the matching sentinel.
func duplicateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return nil
	}
	switch pgErr.ConstraintName {
	case usernameConstraint:
		return auth.ErrDuplicateUsername
	case emailConstraint:
		return auth.ErrDuplicateEmail
	default:
		return nil
	}
}

// GetByUsername retrieves a user by exact username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return r.getOne(row, "username", username)
}

// GetByEmail retrieves a user by exact email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return r.getOne(row, "email", email)
}

// FindByUsernameOrEmail returns the user matching either identifier,
// preferring the username match when both exist.
func (r *UserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE username = $1 OR email = $2
		ORDER BY (username = $1) DESC
		LIMIT 1
	`, username, email)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("username", username).
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_LOOKUP_FAILED").
			With("operation", "find user by username or email").
			Wrap(err)
	}
	return user, nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = $3
		WHERE id = $1
	`, id.String(), passwordHash, time.Now().UTC())
	if err != nil {
		return oops.Code("USER_UPDATE_PASSWORD_FAILED").
			With("operation", "update password").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

func (r *UserRepository) getOne(row pgx.Row, key, value string) (*auth.User, error) {
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With(key, value).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_LOOKUP_FAILED").
			With("operation", "get user by "+key).
			With(key, value).
			Wrap(err)
	}
	return user, nil
}

// scanUser leaves pgx.ErrNoRows unwrapped for the caller.
func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		idStr string
		user  auth.User
	)
	err := row.Scan(&idStr, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // callers attach lookup context
		}
		return nil, oops.Code("USER_SCAN_FAILED").With("operation", "scan user").Wrap(err)
	}

	user.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("USER_INVALID_ID").
			With("operation", "parse user id").
			With("id", idStr).
			Wrap(err)
	}
	return &user, nil
}

var _ auth.UserRepository = (*UserRepository)(nil)
