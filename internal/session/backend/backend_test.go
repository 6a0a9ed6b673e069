// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

package backend_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadboard/threadboard/internal/session"
	"github.com/threadboard/threadboard/internal/session/backend"
	"github.com/threadboard/threadboard/pkg/errutil"
)

func roundTrip(t *testing.T, store session.Store) {
	t.Helper()
	ctx := context.Background()
	_, id, err := session.GenerateToken()
	require.NoError(t, err)

	userID := ulid.Make()
	now := time.Now().UTC()
	require.NoError(t, store.Save(ctx, &session.Session{ID: id, UserID: userID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}))

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID)
}

func TestOpen_Memory(t *testing.T) {
	store, err := backend.Open(context.Background(), "memory://", backend.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	roundTrip(t, store)
}

func TestOpen_BadgerDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sessions")
	store, err := backend.Open(context.Background(), "badger://"+dir, backend.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	roundTrip(t, store)

	_, err = os.Stat(dir)
	assert.NoError(t, err, "badger directory is created")
}

func TestOpen_BadgerDefaultsToDataDir(t *testing.T) {
	dataHome := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataHome)

	store, err := backend.Open(context.Background(), "badger://", backend.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = os.Stat(filepath.Join(dataHome, "threadboard", "sessions"))
	assert.NoError(t, err)
}

func TestOpen_UnsupportedScheme(t *testing.T) {
	_, err := backend.Open(context.Background(), "redis://localhost:6379", backend.Options{})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "SESSION_STORE_UNSUPPORTED")
}
