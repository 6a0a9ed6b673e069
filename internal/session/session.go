// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

// Package session implements cookie-backed server-side sessions.
//
// The client holds a random token in a signed cookie. The store only ever
// sees the SHA-256 of that token, so a leaked store does not yield usable
// cookies.
package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

const (
	// CookieName is the session cookie name.
	CookieName = "qid"

	// TTL is how long a bound session lives.
	TTL = time.Hour

	// TokenBytes is the entropy of a session token.
	TokenBytes = 32
)

// ErrNotFound is returned by a Store when the session is absent or expired.
var ErrNotFound = errors.New("session not found")

// Session maps a hashed token to the authenticated user.
type Session struct {
	ID        string // hex SHA-256 of the cookie token
	UserID    ulid.ULID
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpiredAt reports whether the session has expired at t.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return !t.Before(s.ExpiresAt)
}

// Store persists sessions keyed by Session.ID.
type Store interface {
	// Get returns ErrNotFound when the session is missing or expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Save inserts or replaces the session.
	Save(ctx context.Context, s *Session) error

	// Destroy removes the session. Removing an absent session is not an error.
	Destroy(ctx context.Context, id string) error

	// DeleteExpired removes expired sessions and returns how many were removed.
	DeleteExpired(ctx context.Context) (int64, error)

	// Close releases the store's resources.
	Close() error
}

// GenerateToken creates a random token and the session ID derived from it.
func GenerateToken() (token, id string, err error) {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", TokenBytes).
			Wrap(err)
	}
	token = hex.EncodeToString(buf)
	return token, HashToken(token), nil
}

// HashToken derives the session ID stored server-side.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
