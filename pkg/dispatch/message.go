package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/bloodconnect/dispatch/pkg/email"
	"github.com/bloodconnect/dispatch/pkg/email/templates"
)

// Message is a composed email ready for the mailer.
type Message struct {
	NotificationID string
	To             string
	Subject        string
	Text           string
	HTML           string
}

// Params converts m into email transport parameters.
func (m Message) Params() email.SendEmailParams {
	return email.SendEmailParams{
		SendTo:   m.To,
		Subject:  m.Subject,
		BodyText: m.Text,
		BodyHTML: m.HTML,
		Tag:      "notification",
	}
}

// TextBody is the plain-text greeting, content and sign-off sent for every notification.
func TextBody(displayName, body string) string {
	return fmt.Sprintf("Hello %s,\n\n%s\n\nRegards,\nBlood Connect Team", displayName, body)
}

// ComposeMessage builds the email for d. The subject is the notification
// title. The HTML alternative links to dashboardURL, or the default dashboard
// when it is empty.
func ComposeMessage(ctx context.Context, d Delivery, dashboardURL string) (Message, error) {
	html, err := templates.Render(ctx, templates.Notification(templates.NotificationData{
		Title:         d.Notification.Title,
		Message:       d.Notification.Body,
		RecipientName: d.Recipient.DisplayName,
		DashboardURL:  dashboardURL,
		Year:          time.Now().Year(),
	}))
	if err != nil {
		return Message{}, fmt.Errorf("failed to render notification email: %w", err)
	}

	return Message{
		NotificationID: d.Notification.ID,
		To:             d.Recipient.Email,
		Subject:        d.Notification.Title,
		Text:           TextBody(d.Recipient.DisplayName, d.Notification.Body),
		HTML:           html,
	}, nil
}
