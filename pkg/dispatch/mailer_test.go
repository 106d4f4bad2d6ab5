package dispatch_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloodconnect/dispatch/pkg/dispatch"
	"github.com/bloodconnect/dispatch/pkg/email"
)

var testMessage = dispatch.Message{
	NotificationID: "n1",
	To:             "a@x.com",
	Subject:        "Request Accepted",
	Text:           "Hello Ann",
}

func TestRetryMailer_Backoff(t *testing.T) {
	t.Parallel()

	cfg := dispatch.DefaultConfig()
	m := dispatch.NewRetryMailer(&fakeSender{}, cfg)
	assert.Equal(t, time.Second, m.Backoff(0))
	assert.Equal(t, 2*time.Second, m.Backoff(1))
	assert.Equal(t, 4*time.Second, m.Backoff(2))
}

func TestRetryMailer_Send(t *testing.T) {
	t.Parallel()

	cfg := dispatch.DefaultConfig()

	t.Run("first attempt succeeds", func(t *testing.T) {
		t.Parallel()
		sender := &fakeSender{}
		waits := &noWait{}
		m := dispatch.NewRetryMailer(sender, cfg, dispatch.WithWaitFunc(waits.wait), dispatch.WithMailerLogger(discardLogger()))

		out, err := m.Send(context.Background(), testMessage)
		require.NoError(t, err)
		assert.Equal(t, dispatch.Outcome{Success: true, Detail: "token-0", Attempts: 1}, out)
		assert.Empty(t, waits.recorded())
	})

	t.Run("succeeds on last attempt after 1x 2x 4x backoff", func(t *testing.T) {
		t.Parallel()
		sender := &fakeSender{fn: func(_ context.Context, n int, _ email.SendEmailParams) (string, error) {
			if n < 3 {
				return "", fmt.Errorf("attempt %d: 421 try again later", n)
			}
			return "<ok@gmail.com>", nil
		}}
		waits := &noWait{}
		m := dispatch.NewRetryMailer(sender, cfg, dispatch.WithWaitFunc(waits.wait), dispatch.WithMailerLogger(discardLogger()))

		out, err := m.Send(context.Background(), testMessage)
		require.NoError(t, err)
		assert.True(t, out.Success)
		assert.Equal(t, "<ok@gmail.com>", out.Detail)
		assert.Equal(t, 4, out.Attempts)
		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, waits.recorded())
	})

	t.Run("exhausted after four failures", func(t *testing.T) {
		t.Parallel()
		sender := &fakeSender{fn: func(_ context.Context, n int, _ email.SendEmailParams) (string, error) {
			return "", fmt.Errorf("attempt %d failed", n)
		}}
		waits := &noWait{}
		m := dispatch.NewRetryMailer(sender, cfg, dispatch.WithWaitFunc(waits.wait), dispatch.WithMailerLogger(discardLogger()))

		out, err := m.Send(context.Background(), testMessage)
		require.NoError(t, err)
		assert.Equal(t, dispatch.Outcome{Success: false, Detail: "attempt 3 failed", Attempts: 4}, out)
		assert.Equal(t, 4, sender.count())
		assert.Len(t, waits.recorded(), 3, "no wait after the final attempt")
	})

	t.Run("zero retries makes a single attempt", func(t *testing.T) {
		t.Parallel()
		c := cfg
		c.MaxRetries = 0
		sender := &fakeSender{fn: func(context.Context, int, email.SendEmailParams) (string, error) {
			return "", errors.New("refused")
		}}
		m := dispatch.NewRetryMailer(sender, c, dispatch.WithWaitFunc((&noWait{}).wait), dispatch.WithMailerLogger(discardLogger()))

		out, err := m.Send(context.Background(), testMessage)
		require.NoError(t, err)
		assert.False(t, out.Success)
		assert.Equal(t, 1, sender.count())
	})

	t.Run("cancelled during backoff is interrupted", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sender := &fakeSender{fn: func(context.Context, int, email.SendEmailParams) (string, error) {
			return "", errors.New("refused")
		}}
		wait := func(ctx context.Context, d time.Duration) error {
			cancel()
			<-ctx.Done()
			return ctx.Err()
		}
		m := dispatch.NewRetryMailer(sender, cfg, dispatch.WithWaitFunc(wait), dispatch.WithMailerLogger(discardLogger()))

		out, err := m.Send(ctx, testMessage)
		assert.ErrorIs(t, err, dispatch.ErrInterrupted)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, out.Attempts)
		assert.Equal(t, 1, sender.count())
	})

	t.Run("real timer waits between attempts", func(t *testing.T) {
		t.Parallel()
		c := cfg
		c.BackoffUnit = 10 * time.Millisecond
		sender := &fakeSender{fn: func(_ context.Context, n int, _ email.SendEmailParams) (string, error) {
			if n < 2 {
				return "", errors.New("busy")
			}
			return "tok", nil
		}}
		m := dispatch.NewRetryMailer(sender, c, dispatch.WithMailerLogger(discardLogger()))

		start := time.Now()
		out, err := m.Send(context.Background(), testMessage)
		require.NoError(t, err)
		assert.True(t, out.Success)
		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	})
}

func TestRetryMailer_SendTimeout(t *testing.T) {
	t.Parallel()

	cfg := dispatch.DefaultConfig()
	cfg.MaxRetries = 1
	cfg.SendTimeout = 20 * time.Millisecond

	sender := &fakeSender{fn: func(ctx context.Context, n int, _ email.SendEmailParams) (string, error) {
		if n == 0 {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "tok", nil
	}}
	m := dispatch.NewRetryMailer(sender, cfg, dispatch.WithWaitFunc((&noWait{}).wait), dispatch.WithMailerLogger(discardLogger()))

	out, err := m.Send(context.Background(), testMessage)
	require.NoError(t, err, "a timed out attempt is an ordinary failure")
	assert.True(t, out.Success)
	assert.Equal(t, 2, out.Attempts)
}

func TestRetryMailer_Metrics(t *testing.T) {
	t.Parallel()

	metrics := dispatch.NewMetrics(prometheus.NewRegistry())
	sender := &fakeSender{fn: func(_ context.Context, n int, _ email.SendEmailParams) (string, error) {
		if n == 0 {
			return "", errors.New("busy")
		}
		return "tok", nil
	}}
	m := dispatch.NewRetryMailer(sender, dispatch.DefaultConfig(),
		dispatch.WithWaitFunc((&noWait{}).wait),
		dispatch.WithMailerLogger(discardLogger()),
		dispatch.WithMailerMetrics(metrics),
	)

	_, err := m.Send(context.Background(), testMessage)
	require.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.SendAttempts.WithLabelValues("error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.SendAttempts.WithLabelValues("ok")))
}
