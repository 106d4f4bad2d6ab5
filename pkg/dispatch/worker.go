package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bloodconnect/dispatch/pkg/email"
	"github.com/bloodconnect/dispatch/pkg/logger"
)

const closeTimeout = 5 * time.Second

// Worker runs the dispatch pipeline: one channel listener, a periodic
// recovery sweep and a bounded pool of processing goroutines.
type Worker struct {
	cfg       Config
	sub       Subscriber
	processor *Processor
	sweeper   *Sweeper
	listener  *Listener
	workerID  string
	sem       chan struct{}
	wg        sync.WaitGroup
	stopMu    sync.Mutex // Protects stopping state and WaitGroup operations
	logger    *slog.Logger
	metrics   *Metrics

	started  atomic.Bool
	stopping atomic.Bool
	taskCtx  context.Context
	cancel   context.CancelFunc
}

// NewWorker creates a worker. sender may be nil when WithMailer is used.
func NewWorker(store Store, sender email.EmailSender, sub Subscriber, opts ...WorkerOption) (*Worker, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	if sub == nil {
		return nil, ErrSubscriberNil
	}

	options := &workerOptions{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if err := options.config.Validate(); err != nil {
		return nil, err
	}

	mailer := options.mailer
	if mailer == nil {
		if sender == nil {
			return nil, ErrSenderNil
		}
		mopts := append([]MailerOption{
			WithMailerLogger(options.logger.With(logger.Component("mailer"))),
			WithMailerMetrics(options.metrics),
		}, options.mailerOpts...)
		mailer = NewRetryMailer(sender, options.config, mopts...)
	}

	w := &Worker{
		cfg:      options.config,
		sub:      sub,
		workerID: uuid.NewString(),
		sem:      make(chan struct{}, options.config.MaxConcurrent),
		logger:   options.logger,
		metrics:  options.metrics,
	}
	w.logger = w.logger.With(logger.WorkerID(w.workerID))
	w.processor = NewProcessor(store, mailer, w.cfg, w.logger.With(logger.Component("processor")), w.metrics)
	w.sweeper = NewSweeper(store, w, w.cfg, w.logger.With(logger.Component("sweeper")), w.metrics)
	w.listener = NewListener(sub, w, w.logger.With(logger.Component("listener")), w.metrics)

	return w, nil
}

// ID returns the worker instance identifier.
func (w *Worker) ID() string {
	return w.workerID
}

// Run subscribes to the channel, performs the startup sweep and processes
// events until ctx is cancelled. It then stops receiving, waits up to
// Config.ShutdownTimeout for in-flight deliveries, cancels the rest and
// closes the subscription.
//
// A nil error means a clean shutdown. A failure of the live subscription is
// returned wrapped in ErrSubscriptionLost.
func (w *Worker) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrWorkerStarted
	}

	// Deliveries outlive ctx so that shutdown can drain them.
	w.stopMu.Lock()
	w.taskCtx, w.cancel = context.WithCancel(context.WithoutCancel(ctx))
	w.stopMu.Unlock()
	defer w.cancel()

	if err := w.sub.Listen(ctx, w.cfg.Channel); err != nil {
		w.closeSubscription()
		return fmt.Errorf("failed to subscribe to %q: %w", w.cfg.Channel, err)
	}

	w.logger.LogAttrs(ctx, slog.LevelInfo, "worker started",
		logger.Channel(w.cfg.Channel),
		slog.Int("max_concurrent", cap(w.sem)),
		slog.Duration("sweep_interval", w.cfg.SweepInterval),
	)

	// The subscription is live, so anything older is only reachable by the sweep.
	_, _ = w.sweeper.Sweep(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.listener.Run(gctx)
	})
	if w.cfg.SweepInterval > 0 {
		g.Go(func() error {
			w.sweepLoop(gctx)
			return nil
		})
	}
	runErr := g.Wait()

	w.shutdown()

	if runErr != nil {
		w.logger.LogAttrs(ctx, slog.LevelError, "worker stopped", logger.Error(runErr))
		return runErr
	}
	w.logger.LogAttrs(ctx, slog.LevelInfo, "worker stopped")
	return nil
}

// Sweep runs one recovery sweep immediately.
func (w *Worker) Sweep(ctx context.Context) (int, error) {
	return w.sweeper.Sweep(ctx)
}

// Dispatch schedules id for processing and returns immediately. The slot in
// the concurrency pool is acquired by the spawned goroutine, so callers never
// block. It returns false when the worker is not running.
func (w *Worker) Dispatch(id string) bool {
	w.stopMu.Lock()
	if w.taskCtx == nil || w.stopping.Load() {
		w.stopMu.Unlock()
		return false
	}
	w.wg.Add(1)
	ctx := w.taskCtx
	w.stopMu.Unlock()

	go func() {
		defer w.wg.Done()

		select {
		case w.sem <- struct{}{}:
		case <-ctx.Done():
			return
		}
		defer func() { <-w.sem }()

		// Queued work that never started is left pending for the next sweep.
		if w.stopping.Load() {
			return
		}

		w.process(ctx, id)
	}()
	return true
}

func (w *Worker) process(ctx context.Context, id string) {
	ctx = ContextWithNotificationID(ctx, id)
	w.metrics.inFlight(1)
	defer w.metrics.inFlight(-1)

	defer func() {
		if r := recover(); r != nil {
			w.logger.LogAttrs(ctx, slog.LevelError, "processor panicked", slog.Any("panic", r))
		}
	}()

	if _, err := w.processor.Process(ctx, id); err != nil && !errors.Is(err, ErrInterrupted) {
		w.logger.LogAttrs(ctx, slog.LevelError, "failed to process notification", logger.Error(err))
	}
}

func (w *Worker) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = w.sweeper.Sweep(ctx)
		}
	}
}

func (w *Worker) shutdown() {
	w.stopMu.Lock()
	w.stopping.Store(true)
	w.stopMu.Unlock()

	w.logger.Info("worker stopping, waiting for in-flight deliveries",
		slog.Duration("timeout", w.cfg.ShutdownTimeout))

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(w.cfg.ShutdownTimeout)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		w.logger.Warn("shutdown timeout reached, cancelling in-flight deliveries")
		w.cancel()
		<-done
	}

	w.closeSubscription()
}

func (w *Worker) closeSubscription() {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	if err := w.sub.Close(ctx); err != nil {
		w.logger.LogAttrs(ctx, slog.LevelWarn, "failed to close subscription", logger.Error(err))
	}
}
