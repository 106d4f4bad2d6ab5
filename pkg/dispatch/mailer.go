package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bloodconnect/dispatch/pkg/email"
	"github.com/bloodconnect/dispatch/pkg/logger"
)

// WaitFunc blocks for d or until ctx is done, returning ctx.Err() in the latter case.
type WaitFunc func(ctx context.Context, d time.Duration) error

// RetryMailer sends a message with bounded retry and exponential backoff.
// Every transport error is treated as transient.
type RetryMailer struct {
	sender      email.EmailSender
	maxRetries  int
	unit        time.Duration
	sendTimeout time.Duration
	wait        WaitFunc
	logger      *slog.Logger
	metrics     *Metrics
}

// MailerOption configures a RetryMailer.
type MailerOption func(*RetryMailer)

// WithWaitFunc replaces the backoff timer.
func WithWaitFunc(fn WaitFunc) MailerOption {
	return func(m *RetryMailer) {
		if fn != nil {
			m.wait = fn
		}
	}
}

// WithMailerLogger sets the mailer logger.
func WithMailerLogger(l *slog.Logger) MailerOption {
	return func(m *RetryMailer) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMailerMetrics sets the collectors for send attempts.
func WithMailerMetrics(metrics *Metrics) MailerOption {
	return func(m *RetryMailer) {
		m.metrics = metrics
	}
}

// NewRetryMailer creates a mailer that makes up to cfg.MaxRetries+1 attempts.
func NewRetryMailer(sender email.EmailSender, cfg Config, opts ...MailerOption) *RetryMailer {
	m := &RetryMailer{
		sender:      sender,
		maxRetries:  cfg.MaxRetries,
		unit:        cfg.BackoffUnit,
		sendTimeout: cfg.SendTimeout,
		wait:        sleepContext,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Backoff returns the wait after failed attempt n (zero-based): unit, 2*unit, 4*unit...
func (m *RetryMailer) Backoff(attempt int) time.Duration {
	return m.unit << attempt
}

// Send delivers msg. Exhausted retries are a failed Outcome with a nil error.
// If ctx is cancelled before an outcome is reached, Send returns
// ErrInterrupted and the partial Outcome must not be recorded.
func (m *RetryMailer) Send(ctx context.Context, msg Message) (Outcome, error) {
	ctx = ContextWithNotificationID(ctx, msg.NotificationID)
	params := msg.Params()

	var lastErr error
	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		token, err := m.sendOnce(ctx, params)
		m.metrics.sendAttempt(err)
		if err == nil {
			return Outcome{Success: true, Detail: token, Attempts: attempt + 1}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Outcome{Attempts: attempt + 1}, errors.Join(ErrInterrupted, ctxErr)
		}
		lastErr = err

		if attempt == m.maxRetries {
			break
		}

		delay := m.Backoff(attempt)
		m.logger.LogAttrs(ctx, slog.LevelWarn, "email send failed, retrying",
			logger.Attempt(attempt),
			slog.Duration("backoff", delay),
			logger.Error(err),
		)

		if err := m.wait(ctx, delay); err != nil {
			return Outcome{Attempts: attempt + 1}, errors.Join(ErrInterrupted, err)
		}
	}

	m.logger.LogAttrs(ctx, slog.LevelError, "email send failed, retries exhausted",
		slog.Int("attempts", m.maxRetries+1),
		logger.Error(lastErr),
	)
	return Outcome{Success: false, Detail: lastErr.Error(), Attempts: m.maxRetries + 1}, nil
}

func (m *RetryMailer) sendOnce(ctx context.Context, params email.SendEmailParams) (string, error) {
	if m.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.sendTimeout)
		defer cancel()
	}
	return m.sender.SendEmail(ctx, params)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
