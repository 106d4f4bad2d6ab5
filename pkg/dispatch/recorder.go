package dispatch

import (
	"context"
	"log/slog"

	"github.com/bloodconnect/dispatch/pkg/logger"
)

// Recorder persists terminal delivery outcomes.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

// NewRecorder creates a recorder on top of store.
func NewRecorder(store Store, l *slog.Logger) *Recorder {
	if l == nil {
		l = slog.Default()
	}
	return &Recorder{store: store, logger: l}
}

// Record writes outcome for id if the notification is still pending and
// reports whether the row was updated. A row that already left the pending
// state is a no-op, not an error.
func (r *Recorder) Record(ctx context.Context, id string, outcome Outcome) (bool, error) {
	ctx = ContextWithNotificationID(ctx, id)

	updated, err := r.store.Record(ctx, id, outcome)
	if err != nil {
		return false, err
	}

	if !updated {
		r.logger.LogAttrs(ctx, slog.LevelInfo, "notification already recorded, skipping",
			logger.State(string(outcome.State())),
		)
		return false, nil
	}

	r.logger.LogAttrs(ctx, slog.LevelInfo, "delivery outcome recorded",
		logger.State(string(outcome.State())),
		slog.Int("attempts", outcome.Attempts),
	)
	return true, nil
}
