package dispatch

import "log/slog"

// WorkerOption is a functional option for configuring a worker.
type WorkerOption func(*workerOptions)

type workerOptions struct {
	config     Config
	logger     *slog.Logger
	metrics    *Metrics
	mailer     Mailer
	mailerOpts []MailerOption
}

// WithConfig sets the dispatch configuration.
func WithConfig(cfg Config) WorkerOption {
	return func(o *workerOptions) {
		o.config = cfg
	}
}

// WithLogger sets the logger for the worker and its components.
func WithLogger(logger *slog.Logger) WorkerOption {
	return func(o *workerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics enables Prometheus collectors.
func WithMetrics(m *Metrics) WorkerOption {
	return func(o *workerOptions) {
		o.metrics = m
	}
}

// WithMailer replaces the RetryMailer built from the sender.
func WithMailer(m Mailer) WorkerOption {
	return func(o *workerOptions) {
		if m != nil {
			o.mailer = m
		}
	}
}

// WithMailerOptions passes options to the default RetryMailer.
func WithMailerOptions(opts ...MailerOption) WorkerOption {
	return func(o *workerOptions) {
		o.mailerOpts = append(o.mailerOpts, opts...)
	}
}
