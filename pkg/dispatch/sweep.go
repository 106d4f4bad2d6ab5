package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/bloodconnect/dispatch/pkg/logger"
)

// Dispatcher schedules a notification id for processing without waiting for it.
// It returns false once the worker is shutting down.
type Dispatcher interface {
	Dispatch(id string) bool
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(id string) bool

// Dispatch implements Dispatcher.
func (f DispatcherFunc) Dispatch(id string) bool { return f(id) }

// Sweeper replays notifications that are still pending after a grace period,
// covering events missed while no listener was connected.
type Sweeper struct {
	store      Store
	dispatcher Dispatcher
	grace      time.Duration
	batchSize  int
	now        func() time.Time
	logger     *slog.Logger
	metrics    *Metrics
}

// NewSweeper creates a sweeper that hands ids to d.
func NewSweeper(store Store, d Dispatcher, cfg Config, l *slog.Logger, metrics *Metrics) *Sweeper {
	if l == nil {
		l = slog.Default()
	}
	return &Sweeper{
		store:      store,
		dispatcher: d,
		grace:      cfg.SweepGrace,
		batchSize:  cfg.SweepBatchSize,
		now:        time.Now,
		logger:     l,
		metrics:    metrics,
	}
}

// Sweep dispatches one batch of unleased pending notifications older than the
// grace period, oldest first, and returns how many were dispatched.
// Rows beyond the batch are left for the next sweep.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	ids, err := s.store.ListPending(ctx, s.now().Add(-s.grace), s.batchSize)
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "recovery sweep failed", logger.Error(err))
		return 0, err
	}

	n := 0
	for _, id := range ids {
		if !s.dispatcher.Dispatch(id) {
			break
		}
		n++
	}
	s.metrics.sweepResumed(n)

	if n > 0 {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "recovery sweep resumed pending notifications",
			slog.Int("count", n))
	}
	return n, nil
}
