// Package email is the mail transport layer of the dispatch worker.
//
// Everything is built around the EmailSender interface. SendEmail delivers one
// message and returns a provider confirmation token (a Message-ID or provider
// message id) that callers persist as proof of delivery. Implementations:
//
//   - SMTPClient sends through an SMTP relay (gmail by default) using
//     gopkg.in/mail.v2, the transport the worker uses out of the box.
//   - NewPostmarkClient sends through Postmark's transactional API.
//   - DevSender writes each message to disk as HTML, text and JSON files.
//
// New picks an implementation from Config.Provider. Config.Validate enforces
// the credentials each provider needs, so a half-configured transport fails at
// startup instead of on the first send.
//
// # Usage
//
//	sender, err := email.New(cfg)
//	if err != nil {
//	    return err
//	}
//
//	token, err := sender.SendEmail(ctx, email.SendEmailParams{
//	    SendTo:   "donor@example.com",
//	    Subject:  "Request Accepted",
//	    BodyText: "Hello ...",
//	    BodyHTML: html,
//	})
//
// HTML bodies are rendered from templ components in the templates subpackage.
//
// # Error Handling
//
//   - ErrInvalidConfig: configuration validation failed
//   - ErrInvalidParams: message parameters validation failed
//   - ErrFailedToSendEmail: the transport rejected or failed the send
package email
