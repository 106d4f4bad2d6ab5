package dispatch

import (
	"context"
	"log/slog"

	"github.com/bloodconnect/dispatch/pkg/logger"
)

type notificationIDKey struct{}

// ContextWithNotificationID returns a copy of ctx carrying the notification id.
func ContextWithNotificationID(ctx context.Context, id string) context.Context {
	if current, ok := NotificationIDFromContext(ctx); ok && current == id {
		return ctx
	}
	return context.WithValue(ctx, notificationIDKey{}, id)
}

// NotificationIDFromContext returns the notification id set by ContextWithNotificationID.
func NotificationIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(notificationIDKey{}).(string)
	return id, ok && id != ""
}

// LogNotificationID is a logger.ContextExtractor that adds the notification id
// carried by ctx to every record. Register it with logger.WithContextExtractors.
func LogNotificationID(ctx context.Context) (slog.Attr, bool) {
	id, ok := NotificationIDFromContext(ctx)
	if !ok {
		return slog.Attr{}, false
	}
	return logger.NotificationID(id), true
}

var _ logger.ContextExtractor = LogNotificationID
