package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bloodconnect/dispatch/pkg/logger"
)

// Mailer sends a composed message and reports its terminal outcome.
type Mailer interface {
	Send(ctx context.Context, msg Message) (Outcome, error)
}

// Processor handles one notification end to end: claim, compose, send, record.
type Processor struct {
	store         Store
	mailer        Mailer
	recorder      *Recorder
	lease         time.Duration
	recordTimeout time.Duration
	dashboardURL  string
	logger        *slog.Logger
	metrics       *Metrics
}

// NewProcessor wires a processor. A nil logger uses slog.Default.
func NewProcessor(store Store, mailer Mailer, cfg Config, l *slog.Logger, metrics *Metrics) *Processor {
	if l == nil {
		l = slog.Default()
	}
	return &Processor{
		store:         store,
		mailer:        mailer,
		recorder:      NewRecorder(store, l),
		lease:         cfg.ClaimLease,
		recordTimeout: cfg.RecordTimeout,
		dashboardURL:  cfg.DashboardURL,
		logger:        l,
		metrics:       metrics,
	}
}

// Process delivers notification id. A notification that is not pending, or
// that another processor recorded first, is skipped with a nil error. Errors
// leave the row pending for the sweep.
func (p *Processor) Process(ctx context.Context, id string) (Result, error) {
	ctx = ContextWithNotificationID(ctx, id)
	start := time.Now()

	d, err := p.store.Claim(ctx, id, p.lease)
	if err != nil {
		if errors.Is(err, ErrNotPending) {
			p.logger.DebugContext(ctx, "notification not pending, skipping")
			p.metrics.delivered(ResultSkipped, 0)
			return ResultSkipped, nil
		}
		p.logger.LogAttrs(ctx, slog.LevelError, "failed to claim notification", logger.Error(err))
		return ResultSkipped, err
	}

	msg, err := ComposeMessage(ctx, d, p.dashboardURL)
	if err != nil {
		return ResultSkipped, fmt.Errorf("notification %s: %w", id, err)
	}

	p.logger.LogAttrs(ctx, slog.LevelInfo, "sending notification",
		logger.RecipientID(d.Recipient.ID),
		slog.String("urgency", d.Notification.Urgency.String()),
	)

	outcome, err := p.mailer.Send(ctx, msg)
	if err != nil {
		p.logger.LogAttrs(ctx, slog.LevelWarn, "delivery interrupted, leaving notification pending",
			logger.Error(err))
		return ResultSkipped, err
	}

	// The email is out, so the outcome is written even when ctx is cancelled.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.recordTimeout)
	defer cancel()

	recorded, err := p.recorder.Record(recordCtx, id, outcome)
	if err != nil {
		p.logger.LogAttrs(ctx, slog.LevelError, "failed to record delivery outcome", logger.Error(err))
		return ResultSkipped, err
	}
	if !recorded {
		p.metrics.delivered(ResultSkipped, time.Since(start))
		return ResultSkipped, nil
	}

	result := ResultSent
	if !outcome.Success {
		result = ResultFailed
	}
	p.metrics.delivered(result, time.Since(start))

	p.logger.LogAttrs(ctx, slog.LevelInfo, "notification processed",
		slog.String("result", result.String()),
		logger.Duration(time.Since(start)),
	)
	return result, nil
}
