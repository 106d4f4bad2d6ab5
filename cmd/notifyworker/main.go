// Command notifyworker delivers BloodConnect notifications by email.
//
// Usage:
//
//	notifyworker [run]                 listen for notifications and deliver them
//	notifyworker migrate               apply database migrations and exit
//	notifyworker verify-email          check the SMTP credentials and exit
//	notifyworker send-test -user <id>  insert a test notification for a user
//
// Configuration is read from the environment and an optional .env file.
// The process exits 0 on clean shutdown, 1 on a configuration or startup
// error and 2 when the notification channel subscription is lost.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bloodconnect/dispatch/pkg/config"
	"github.com/bloodconnect/dispatch/pkg/dispatch"
	"github.com/bloodconnect/dispatch/pkg/logger"
)

const (
	exitOK               = 0
	exitStartup          = 1
	exitSubscriptionLost = 2
)

var errUnknownCommand = errors.New("unknown command")

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var logCfg logger.Config
	if err := config.Load(&logCfg); err != nil {
		fmt.Fprintf(stderr, "notifyworker: %v\n", err)
		return exitStartup
	}
	log := logger.New(append(logCfg.Options(),
		logger.WithOutput(stderr),
		logger.WithContextExtractors(dispatch.LogNotificationID),
	)...)
	logger.SetAsDefault(log)

	cmd, rest := parseCommand(args)

	var err error
	switch cmd {
	case "run":
		err = runWorker(ctx, log)
	case "migrate":
		err = runMigrate(ctx, log)
	case "verify-email":
		err = runVerifyEmail(ctx, log)
	case "send-test":
		err = runSendTest(ctx, log, rest, stderr)
	case "help":
		fmt.Fprint(stderr, usage)
		return exitOK
	default:
		err = fmt.Errorf("%w %q", errUnknownCommand, cmd)
		fmt.Fprint(stderr, usage)
	}

	code := exitCode(ctx, err)
	if code != exitOK {
		log.Error("notifyworker exited", slog.String("command", cmd), slog.Int("exit_code", code), logger.Error(err))
	}
	return code
}

const usage = `Usage: notifyworker <command> [flags]

Commands:
  run           listen for notifications and deliver them (default)
  migrate       apply database migrations and exit
  verify-email  dial and authenticate against the SMTP server
  send-test     insert a pending notification for an existing user
  help          show this message
`

// parseCommand splits the subcommand from its flags. No arguments, or a
// leading flag, selects "run".
func parseCommand(args []string) (string, []string) {
	switch {
	case len(args) == 0:
		return "run", nil
	case args[0] == "-h" || args[0] == "--help":
		return "help", nil
	case strings.HasPrefix(args[0], "-"):
		return "run", args
	default:
		return args[0], args[1:]
	}
}

// exitCode maps a command error to the process exit status. A cancellation
// caused by a shutdown signal is a clean exit.
func exitCode(ctx context.Context, err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, dispatch.ErrSubscriptionLost):
		return exitSubscriptionLost
	case ctx.Err() != nil && errors.Is(err, context.Canceled):
		return exitOK
	default:
		return exitStartup
	}
}
