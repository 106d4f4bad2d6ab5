package dispatch_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bloodconnect/dispatch/pkg/dispatch"
	"github.com/bloodconnect/dispatch/pkg/email"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSender records every call. fn decides the result of call n (zero-based).
type fakeSender struct {
	mu    sync.Mutex
	calls []email.SendEmailParams
	fn    func(ctx context.Context, n int, p email.SendEmailParams) (string, error)
}

func (s *fakeSender) SendEmail(ctx context.Context, p email.SendEmailParams) (string, error) {
	s.mu.Lock()
	n := len(s.calls)
	s.calls = append(s.calls, p)
	fn := s.fn
	s.mu.Unlock()

	if fn == nil {
		return fmt.Sprintf("token-%d", n), nil
	}
	return fn(ctx, n, p)
}

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *fakeSender) sentTo() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	to := make([]string, len(s.calls))
	for i, c := range s.calls {
		to[i] = c.SendTo
	}
	return to
}

// fakeSubscriber feeds payloads and errors to the listener.
type fakeSubscriber struct {
	payloads  chan string
	errs      chan error
	listenErr error
	channel   atomic.Value
	closed    atomic.Int32
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{
		payloads: make(chan string, 16),
		errs:     make(chan error, 1),
	}
}

func (s *fakeSubscriber) Listen(ctx context.Context, channel string) error {
	s.channel.Store(channel)
	return s.listenErr
}

func (s *fakeSubscriber) Wait(ctx context.Context) (string, error) {
	select {
	case p := <-s.payloads:
		return p, nil
	case err := <-s.errs:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *fakeSubscriber) Close(ctx context.Context) error {
	s.closed.Add(1)
	return nil
}

func (s *fakeSubscriber) publish(id string) {
	s.payloads <- fmt.Sprintf(`{"id":%q}`, id)
}

// MockStore is a mock implementation of dispatch.Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Claim(ctx context.Context, id string, lease time.Duration) (dispatch.Delivery, error) {
	args := m.Called(ctx, id, lease)
	return args.Get(0).(dispatch.Delivery), args.Error(1)
}

func (m *MockStore) ListPending(ctx context.Context, olderThan time.Time, limit int) ([]string, error) {
	args := m.Called(ctx, olderThan, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStore) Record(ctx context.Context, id string, outcome dispatch.Outcome) (bool, error) {
	args := m.Called(ctx, id, outcome)
	return args.Bool(0), args.Error(1)
}

// seedStore returns a store with recipient u1 <a@x.com>.
func seedStore(t *testing.T) *dispatch.MemoryStore {
	t.Helper()
	store := dispatch.NewMemoryStore()
	store.AddRecipient(dispatch.Recipient{ID: "u1", Email: "a@x.com", DisplayName: "Ann"})
	return store
}

func insertPending(t *testing.T, store *dispatch.MemoryStore, id, title string, createdAt time.Time) string {
	t.Helper()
	id, err := store.Insert(context.Background(), dispatch.Notification{
		ID:          id,
		RecipientID: "u1",
		Title:       title,
		Body:        "Your blood request was accepted by a donor.",
		Urgency:     dispatch.UrgencyHigh,
		CreatedAt:   createdAt,
	})
	require.NoError(t, err)
	return id
}

func testConfig() dispatch.Config {
	cfg := dispatch.DefaultConfig()
	cfg.BackoffUnit = time.Millisecond
	cfg.SendTimeout = time.Second
	cfg.SweepInterval = 0
	cfg.ShutdownTimeout = 2 * time.Second
	return cfg
}

// noWait records backoff delays without sleeping.
type noWait struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (w *noWait) wait(ctx context.Context, d time.Duration) error {
	w.mu.Lock()
	w.delays = append(w.delays, d)
	w.mu.Unlock()
	return ctx.Err()
}

func (w *noWait) recorded() []time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]time.Duration(nil), w.delays...)
}
