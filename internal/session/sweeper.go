// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/threadboard/threadboard/pkg/errutil"
)

// DefaultSweepInterval is how often expired sessions are purged.
const DefaultSweepInterval = 10 * time.Minute

// Sweeper periodically deletes expired sessions from a Store.
type Sweeper struct {
	store    Store
	interval time.Duration
	logger   *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSweeper creates a Sweeper. A non-positive interval uses DefaultSweepInterval.
func NewSweeper(store Store, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{store: store, interval: interval, logger: logger}
}

// RunOnce performs a single sweep.
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	removed, err := s.store.DeleteExpired(ctx)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.InfoContext(ctx, "removed expired sessions", "count", removed)
	}
	return removed, nil
}

// Start begins sweeping in the background until Stop or ctx cancellation.
func (s *Sweeper) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run(ctx)
}

// Stop cancels the sweep loop and waits for it to exit.
func (s *Sweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
				errutil.LogErrorContext(ctx, s.logger, "session sweep failed", err)
			}
		}
	}
}
