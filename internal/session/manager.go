// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/threadboard/threadboard/internal/auth"
	"github.com/threadboard/threadboard/pkg/errutil"
)

type contextKey struct{}

// Manager attaches a per-request session handle to incoming requests.
type Manager struct {
	store  Store
	codec  *CookieCodec
	ttl    time.Duration
	logger *slog.Logger
	clock  func() time.Time
}

// NewManager creates a Manager with the default TTL.
func NewManager(store Store, codec *CookieCodec, logger *slog.Logger) (*Manager, error) {
	if store == nil {
		return nil, oops.Code("SESSION_INVALID_DEPENDENCY").Errorf("session store is required")
	}
	if codec == nil {
		return nil, oops.Code("SESSION_INVALID_DEPENDENCY").Errorf("cookie codec is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:  store,
		codec:  codec,
		ttl:    TTL,
		logger: logger,
		clock:  time.Now,
	}, nil
}

// Middleware loads the caller's session, if any, and makes it available
// to downstream handlers through FromContext.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := m.load(r.Context(), w, r)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, req)))
	})
}

// FromContext returns the session handle attached by Middleware.
func FromContext(ctx context.Context) (*Request, bool) {
	req, ok := ctx.Value(contextKey{}).(*Request)
	return req, ok && req != nil
}

func (m *Manager) load(ctx context.Context, w http.ResponseWriter, r *http.Request) *Request {
	req := &Request{m: m, w: w}

	token, ok := m.codec.Read(r)
	if !ok {
		return req
	}

	sess, err := m.store.Get(ctx, HashToken(token))
	switch {
	case err == nil:
		req.token = token
		req.session = sess
	case errors.Is(err, ErrNotFound):
	default:
		// Treat an unreachable store as anonymous rather than failing the request.
		errutil.LogErrorContext(ctx, m.logger, "session lookup failed", err)
	}
	return req
}

// Request is the session handle for a single HTTP request.
// It implements auth.SessionContext.
type Request struct {
	m       *Manager
	w       http.ResponseWriter
	token   string
	session *Session
}

// Bind associates userID with this request's session, issuing a new token
// when the caller has no live session, and refreshes the cookie.
func (r *Request) Bind(ctx context.Context, userID ulid.ULID) error {
	now := r.m.clock().UTC()

	token := r.token
	createdAt := now
	if token == "" {
		var err error
		token, _, err = GenerateToken()
		if err != nil {
			return err
		}
	} else if r.session != nil {
		createdAt = r.session.CreatedAt
	}

	sess := &Session{
		ID:        HashToken(token),
		UserID:    userID,
		CreatedAt: createdAt,
		ExpiresAt: now.Add(r.m.ttl),
	}
	if err := r.m.store.Save(ctx, sess); err != nil {
		return oops.With("operation", "bind session").With("user_id", userID.String()).Wrap(err)
	}

	r.token = token
	r.session = sess
	r.m.codec.Write(r.w, token, r.m.ttl)
	return nil
}

// ClearCookie expires the session cookie on the client.
func (r *Request) ClearCookie() {
	r.m.codec.Clear(r.w)
}

// Destroy removes the server-side session. Without a session it is a no-op.
func (r *Request) Destroy(ctx context.Context) error {
	if r.token == "" {
		return nil
	}
	if err := r.m.store.Destroy(ctx, HashToken(r.token)); err != nil {
		return oops.With("operation", "destroy session").Wrap(err)
	}
	r.token = ""
	r.session = nil
	return nil
}

var _ auth.SessionContext = (*Request)(nil)
