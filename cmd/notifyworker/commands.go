package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/bloodconnect/dispatch/pkg/config"
	"github.com/bloodconnect/dispatch/pkg/dispatch"
	"github.com/bloodconnect/dispatch/pkg/email"
	"github.com/bloodconnect/dispatch/pkg/logger"
	"github.com/bloodconnect/dispatch/pkg/pg"
)

const verifyTimeout = 30 * time.Second

func runMigrate(ctx context.Context, log *slog.Logger) error {
	var cfg pg.Config
	if err := config.Load(&cfg); err != nil {
		return err
	}

	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg, log.With(logger.Component("migrate"))); err != nil {
		return err
	}
	log.Info("migrations applied", slog.String("path", cfg.MigrationsPath))
	return nil
}

func runVerifyEmail(ctx context.Context, log *slog.Logger) error {
	var cfg email.Config
	if err := config.Load(&cfg); err != nil {
		return err
	}
	if cfg.Provider != email.ProviderSMTP {
		log.Info("nothing to verify for provider", slog.String("email_provider", cfg.Provider))
		return nil
	}

	client, err := email.NewSMTPClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	log.Info("verifying SMTP connection",
		slog.String("host", cfg.SMTPHost),
		slog.Int("port", cfg.SMTPPort),
		slog.String("user", cfg.SMTPUser),
	)
	if err := client.Verify(ctx); err != nil {
		return fmt.Errorf("smtp verification failed: %w", err)
	}
	log.Info("SMTP connection verified")
	return nil
}

type sendTestArgs struct {
	userID  string
	title   string
	body    string
	urgency dispatch.Urgency
}

var errMissingUser = errors.New("-user is required")

func parseSendTestArgs(args []string, output io.Writer) (sendTestArgs, error) {
	fs := flag.NewFlagSet("send-test", flag.ContinueOnError)
	fs.SetOutput(output)

	var (
		a       sendTestArgs
		urgency string
	)
	fs.StringVar(&a.userID, "user", "", "recipient user id (required)")
	fs.StringVar(&a.title, "title", "Test Notification", "notification title")
	fs.StringVar(&a.body, "body", "This is a test notification from BloodConnect.", "notification body")
	fs.StringVar(&urgency, "urgency", dispatch.UrgencyLow.String(), "Low, Medium, High or Critical")

	if err := fs.Parse(args); err != nil {
		return sendTestArgs{}, err
	}
	if a.userID == "" {
		return sendTestArgs{}, errMissingUser
	}

	u, err := dispatch.ParseUrgency(urgency)
	if err != nil {
		return sendTestArgs{}, err
	}
	a.urgency = u
	return a, nil
}

func runSendTest(ctx context.Context, log *slog.Logger, args []string, output io.Writer) error {
	a, err := parseSendTestArgs(args, output)
	if err != nil {
		return err
	}

	var cfg pg.Config
	if err := config.Load(&cfg); err != nil {
		return err
	}

	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	id, err := dispatch.NewPostgresStore(pool).Insert(ctx, dispatch.Notification{
		RecipientID: a.userID,
		Title:       a.title,
		Body:        a.body,
		Urgency:     a.urgency,
	})
	if err != nil {
		return err
	}

	log.Info("test notification inserted", logger.NotificationID(id), logger.RecipientID(a.userID))
	return nil
}
