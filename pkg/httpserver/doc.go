// Package httpserver runs the worker's operational HTTP endpoint.
//
// NewRouter mounts liveness (/healthz), readiness (/readyz) and Prometheus
// (/metrics) handlers on a chi router. Server serves a handler until its
// context is cancelled and then shuts down within a configurable deadline.
// Signal handling is left to the caller.
//
// # Usage
//
//	r := httpserver.NewRouter(log,
//	    httpserver.WithReadinessCheck("postgres", func(ctx context.Context) error { return pool.Ping(ctx) }),
//	    httpserver.WithGatherer(registry),
//	)
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	return srv.Run(ctx, r)
//
// Run wraps listen errors with ErrStart and Shutdown wraps shutdown errors
// with ErrShutdown.
package httpserver
