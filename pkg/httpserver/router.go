package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bloodconnect/dispatch/pkg/logger"
)

type routerOptions struct {
	checks       []Check
	checkTimeout time.Duration
	gatherer     prometheus.Gatherer
}

// RouterOption configures NewRouter.
type RouterOption func(*routerOptions)

// WithReadinessCheck adds a dependency to /readyz.
func WithReadinessCheck(name string, fn func(context.Context) error) RouterOption {
	return func(o *routerOptions) {
		if fn != nil {
			o.checks = append(o.checks, Check{Name: name, Fn: fn})
		}
	}
}

// WithCheckTimeout bounds each readiness check.
func WithCheckTimeout(d time.Duration) RouterOption {
	return func(o *routerOptions) {
		if d > 0 {
			o.checkTimeout = d
		}
	}
}

// WithGatherer sets the registry served on /metrics.
// Defaults to prometheus.DefaultGatherer.
func WithGatherer(g prometheus.Gatherer) RouterOption {
	return func(o *routerOptions) {
		if g != nil {
			o.gatherer = g
		}
	}
}

// NewRouter builds the ops router with /healthz, /readyz and /metrics.
func NewRouter(log *slog.Logger, opts ...RouterOption) http.Handler {
	if log == nil {
		log = logger.Discard()
	}
	o := &routerOptions{
		checkTimeout: 2 * time.Second,
		gatherer:     prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(o)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", HealthCheckHandler(log, 0))
	r.Get("/readyz", HealthCheckHandler(log, o.checkTimeout, o.checks...))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{}))

	return r
}
