package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/bloodconnect/dispatch/pkg/config"
	"github.com/bloodconnect/dispatch/pkg/dispatch"
	"github.com/bloodconnect/dispatch/pkg/email"
	"github.com/bloodconnect/dispatch/pkg/httpserver"
	"github.com/bloodconnect/dispatch/pkg/logger"
	"github.com/bloodconnect/dispatch/pkg/pg"
)

const poolStatsInterval = 15 * time.Second

func runWorker(ctx context.Context, log *slog.Logger) error {
	var cfg workerConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.PG.AutoMigrate {
		if err := pg.Migrate(ctx, pool, cfg.PG, log.With(logger.Component("migrate"))); err != nil {
			return err
		}
	}

	sender, err := email.New(cfg.Email)
	if err != nil {
		return err
	}

	listener, err := pg.NewListener(ctx, cfg.PG)
	if err != nil {
		return fmt.Errorf("failed to open listener connection: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := dispatch.NewMetrics(reg)

	worker, err := dispatch.NewWorker(dispatch.NewPostgresStore(pool), sender, listener,
		dispatch.WithConfig(cfg.Dispatch),
		dispatch.WithLogger(log),
		dispatch.WithMetrics(metrics),
	)
	if err != nil {
		_ = listener.Close(context.Background())
		return err
	}

	log.Info("starting notification worker",
		slog.String("worker_id", worker.ID()),
		slog.String("email_provider", cfg.Email.Provider),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		recordPoolStats(gctx, pool, metrics)
		return nil
	})

	if cfg.HTTP.Enabled() {
		router := httpserver.NewRouter(log.With(logger.Component("ops")),
			httpserver.WithReadinessCheck("postgres", pg.Healthcheck(pool)),
			httpserver.WithCheckTimeout(cfg.HTTP.CheckTimeout),
			httpserver.WithGatherer(reg),
		)
		srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log.With(logger.Component("ops"))))
		g.Go(func() error {
			return srv.Run(gctx, router)
		})
	}

	return g.Wait()
}

func recordPoolStats(ctx context.Context, pool *pgxpool.Pool, metrics *dispatch.Metrics) {
	ticker := time.NewTicker(poolStatsInterval)
	defer ticker.Stop()

	for {
		st := pool.Stat()
		metrics.RecordDBPoolStats(st.TotalConns(), st.AcquiredConns(), st.IdleConns(), st.AcquireCount(), st.AcquireDuration())

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
