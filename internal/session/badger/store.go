// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

// Package badger stores sessions in an embedded Badger key-value store.
// Entries carry a Badger TTL, so expired sessions vanish without a sweep;
// DeleteExpired only catches entries whose TTL has not yet elapsed in
// Badger's second-granularity clock.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/threadboard/threadboard/internal/session"
)

var keyPrefix = []byte("session/")

type record struct {
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Store implements session.Store on Badger.
type Store struct {
	db    *badgerdb.DB
	clock func() time.Time
}

// Open opens a Badger store in dir. An empty dir keeps everything in memory.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := badgerdb.DefaultOptions(dir).WithLogger(slogLogger{logger.With("component", "badger")})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, oops.Code("SESSION_STORE_OPEN_FAILED").
			With("backend", "badger").
			With("dir", dir).
			Wrap(err)
	}
	return &Store{db: db, clock: time.Now}, nil
}

func key(id string) []byte {
	return append(append([]byte{}, keyPrefix...), id...)
}

// Get returns a live session by ID.
func (s *Store) Get(ctx context.Context, id string) (*session.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, oops.Code("SESSION_GET_FAILED").Wrap(err)
	}

	var rec record
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(session.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_FAILED").With("backend", "badger").Wrap(err)
	}

	if !s.clock().Before(rec.ExpiresAt) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(session.ErrNotFound)
	}

	userID, err := ulid.Parse(rec.UserID)
	if err != nil {
		return nil, oops.Code("SESSION_INVALID_USER_ID").With("user_id", rec.UserID).Wrap(err)
	}
	return &session.Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: rec.ExpiresAt,
		CreatedAt: rec.CreatedAt,
	}, nil
}

// Save writes the session with a TTL matching its expiry.
func (s *Store) Save(ctx context.Context, sess *session.Session) error {
	if err := ctx.Err(); err != nil {
		return oops.Code("SESSION_SAVE_FAILED").Wrap(err)
	}

	ttl := sess.ExpiresAt.Sub(s.clock())
	if ttl <= 0 {
		return s.Destroy(ctx, sess.ID)
	}

	val, err := json.Marshal(record{
		UserID:    sess.UserID.String(),
		ExpiresAt: sess.ExpiresAt,
		CreatedAt: sess.CreatedAt,
	})
	if err != nil {
		return oops.Code("SESSION_SAVE_FAILED").With("operation", "encode session").Wrap(err)
	}

	err = s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.SetEntry(badgerdb.NewEntry(key(sess.ID), val).WithTTL(ttl))
	})
	if err != nil {
		return oops.Code("SESSION_SAVE_FAILED").
			With("backend", "badger").
			With("user_id", sess.UserID.String()).
			Wrap(err)
	}
	return nil
}

// Destroy deletes the session; deleting a missing key succeeds.
func (s *Store) Destroy(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return oops.Code("SESSION_DESTROY_FAILED").Wrap(err)
	}
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(key(id))
	})
	if err != nil {
		return oops.Code("SESSION_DESTROY_FAILED").With("backend", "badger").Wrap(err)
	}
	return nil
}

// DeleteExpired removes sessions past their expiry that Badger still holds.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, oops.Code("SESSION_DELETE_EXPIRED_FAILED").Wrap(err)
	}

	now := s.clock()
	var expired [][]byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		it := txn.NewIterator(badgerdb.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(keyPrefix); it.ValidForPrefix(keyPrefix); it.Next() {
			item := it.Item()
			var rec record
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &rec) }); err != nil {
				return err
			}
			if !now.Before(rec.ExpiresAt) {
				expired = append(expired, item.KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_EXPIRED_FAILED").With("operation", "scan sessions").Wrap(err)
	}
	if len(expired) == 0 {
		return 0, nil
	}

	wb := s.db.NewWriteBatch()
	for _, k := range expired {
		if err := wb.Delete(k); err != nil {
			wb.Cancel()
			return 0, oops.Code("SESSION_DELETE_EXPIRED_FAILED").With("operation", "delete sessions").Wrap(err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, oops.Code("SESSION_DELETE_EXPIRED_FAILED").With("operation", "flush deletes").Wrap(err)
	}
	return int64(len(expired)), nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return oops.Code("SESSION_STORE_CLOSE_FAILED").With("backend", "badger").Wrap(err)
	}
	return nil
}

// slogLogger adapts slog to badger.Logger. Badger's info output is chatty,
// so it is demoted to debug.
type slogLogger struct {
	l *slog.Logger
}

func (s slogLogger) Errorf(format string, args ...any)   { s.l.Error(sprintf(format, args...)) }
func (s slogLogger) Warningf(format string, args ...any) { s.l.Warn(sprintf(format, args...)) }
func (s slogLogger) Infof(format string, args ...any)    { s.l.Debug(sprintf(format, args...)) }
func (s slogLogger) Debugf(format string, args ...any)   { s.l.Debug(sprintf(format, args...)) }

func sprintf(format string, args ...any) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}

var _ session.Store = (*Store)(nil)
