// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Uniqueness failures reported by a UserRepository when an insert collides
// with an existing account.
var (
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
)
