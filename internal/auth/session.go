// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

package auth

import (
	"context"

	"github.com/oklog/ulid/v2"
)

// SessionContext is the caller's session for a single request: read/write
// access to its server-side record plus the client cookie.
// Implementations are not shared between requests.
type SessionContext interface {
	// Bind associates userID with the session, creating the session and
	// setting the client cookie when none exists yet.
	Bind(ctx context.Context, userID ulid.ULID) error

	// ClearCookie expires the client-facing session cookie.
	ClearCookie()

	// Destroy removes the server-side session record.
	// Destroying an absent session is not an error.
	Destroy(ctx context.Context) error
}
