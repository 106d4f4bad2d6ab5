// Package logger builds *slog.Logger instances for the dispatch worker.
//
// New creates a logger from functional options. The output format (text or
// json), minimum level, static attributes and context extractors are all
// configurable. Every handler is wrapped with LogHandlerDecorator so attributes
// stored in a context.Context (for example the id of the notification being
// processed) are attached to each record logged with that context.
//
// Helper constructors in attr.go keep attribute keys consistent across
// packages:
//
//	log.LogAttrs(ctx, slog.LevelWarn, "email attempt failed",
//	    logger.NotificationID(id),
//	    logger.Attempt(attempt),
//	    logger.Error(err),
//	)
//
// Error and Errors return an empty attribute for nil errors so they can be
// passed unconditionally.
//
// # Configuration
//
// Config maps APP_ENV, LOG_LEVEL and LOG_FORMAT onto options. WithEnvironment
// selects text/debug output for development and json/info for staging and
// production.
package logger
