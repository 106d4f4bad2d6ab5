package dispatch

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bloodconnect/dispatch/pkg/logger"
)

// Subscriber is a channel subscription. *pg.Listener implements it.
// Wait is only ever called from one goroutine.
type Subscriber interface {
	Listen(ctx context.Context, channel string) error
	Wait(ctx context.Context) (string, error)
	Close(ctx context.Context) error
}

// Listener turns channel payloads into dispatched notification ids.
type Listener struct {
	sub        Subscriber
	dispatcher Dispatcher
	logger     *slog.Logger
	metrics    *Metrics
}

// NewListener creates a listener that reads from an already subscribed sub.
func NewListener(sub Subscriber, d Dispatcher, l *slog.Logger, metrics *Metrics) *Listener {
	if l == nil {
		l = slog.Default()
	}
	return &Listener{sub: sub, dispatcher: d, logger: l, metrics: metrics}
}

// Run receives payloads until ctx is done and returns nil in that case.
// Malformed payloads are logged and dropped. Any other receive error is
// returned wrapped in ErrSubscriptionLost.
func (l *Listener) Run(ctx context.Context) error {
	for {
		payload, err := l.sub.Wait(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			l.logger.LogAttrs(ctx, slog.LevelError, "notification channel receive failed", logger.Error(err))
			return errors.Join(ErrSubscriptionLost, err)
		}
		l.metrics.eventReceived()

		ev, err := ParseEvent(payload)
		if err != nil {
			l.metrics.eventMalformed()
			l.logger.LogAttrs(ctx, slog.LevelWarn, "dropping malformed delivery event",
				slog.String("payload", payload), logger.Error(err))
			continue
		}

		l.logger.LogAttrs(ctx, slog.LevelDebug, "delivery event received", logger.NotificationID(ev.ID))
		if !l.dispatcher.Dispatch(ev.ID) {
			return nil
		}
	}
}
