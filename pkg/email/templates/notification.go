// Package templates holds the HTML email layouts rendered with github.com/a-h/templ.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// DefaultDashboardURL is linked from every notification email.
const DefaultDashboardURL = "https://blood-care.vercel.app"

// NotificationData is the content of a notification email.
type NotificationData struct {
	Title         string
	Message       string
	RecipientName string
	DashboardURL  string
	Year          int
}

// Notification is the BloodConnect notification layout.
// All user-supplied values are HTML-escaped and the dashboard link is
// sanitized with templ.URL, so unsafe schemes render as templ.FailedSanitizationURL.
func Notification(data NotificationData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		url := data.DashboardURL
		if url == "" {
			url = DefaultDashboardURL
		}

		_, err := fmt.Fprintf(w, notificationLayout,
			templ.EscapeString(data.Title),
			templ.EscapeString(data.Message),
			templ.EscapeString(data.RecipientName),
			templ.EscapeString(string(templ.URL(url))),
			data.Year,
		)
		return err
	})
}

const notificationLayout = `<div style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #eee; border-radius: 8px;">
<div style="text-align: center; margin-bottom: 20px;">
<h1 style="color: #dc2626; margin: 0;">BloodConnect</h1>
<p style="color: #666; font-size: 14px;">Saving Lives Together</p>
</div>
<div style="background-color: #fef2f2; border-left: 4px solid #dc2626; padding: 15px; margin-bottom: 20px;">
<h2 style="color: #991b1b; margin-top: 0;">%s</h2>
<p style="font-size: 16px; line-height: 1.5;">%s</p>
</div>
<p>Hello %s,</p>
<p>You have a new notification from BloodConnect. Please log in to your dashboard for more details and to take action.</p>
<div style="text-align: center; margin-top: 30px;">
<a href="%s" style="background-color: #dc2626; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; font-weight: bold;">Go to Dashboard</a>
</div>
<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
<p style="color: #999; font-size: 12px; text-align: center;">You receive these emails so we can reach you immediately about urgent blood requests.<br>&copy; %d BloodConnect</p>
</div>`
