// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// User represents a forum account.
type User struct {
	ID           ulid.ULID
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser creates a User that has not been persisted yet.
// The ID and timestamps are assigned by the repository on Create.
func NewUser(username, email, passwordHash string) (*User, error) {
	if username == "" {
		return nil, oops.Code("USER_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if email == "" {
		return nil, oops.Code("USER_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if passwordHash == "" {
		return nil, oops.Code("USER_INVALID_HASH").Errorf("password hash cannot be empty")
	}
	return &User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	}, nil
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user, assigning its ID and timestamps.
	// Returns ErrDuplicateUsername or ErrDuplicateEmail when a unique
	// constraint rejects the insert.
	Create(ctx context.Context, user *User) error

	// GetByUsername retrieves a user by exact username.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByEmail retrieves a user by exact email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// FindByUsernameOrEmail returns a user whose username or email matches.
	// A username match is preferred over an email match.
	// Returns ErrNotFound when neither matches.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*User, error)

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error
}
