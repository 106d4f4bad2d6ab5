// Package pg holds the PostgreSQL plumbing used by the dispatch worker, built
// on `github.com/jackc/pgx/v5` and `github.com/pressly/goose/v3`.
//
//   - Config is populated from environment variables (DATABASE_URL and
//     PG_* tuning knobs) via github.com/caarlos0/env.
//   - Connect opens a *pgxpool.Pool, retrying with a growing interval until
//     the database accepts connections or the attempts run out.
//   - Migrate applies the goose migrations in Config.MigrationsPath.
//   - Healthcheck returns a readiness probe closure.
//   - Listener owns one dedicated *pgx.Conn subscribed with LISTEN. It is never
//     taken from the pool and never used for writes, so a broken subscription
//     cannot affect queries and vice versa.
//
// # Usage
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	ln, err := pg.NewListener(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer ln.Close(context.Background())
//
//	if err := ln.Listen(ctx, "notification_channel"); err != nil {
//	    return err
//	}
//	payload, err := ln.Wait(ctx)
package pg
