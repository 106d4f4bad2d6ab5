package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/mail.v2"
)

// SMTPClient sends mail through an authenticated SMTP relay.
type SMTPClient struct {
	dialer *mail.Dialer
	config Config
	domain string
}

// NewSMTPClient creates an SMTP-backed sender. A new connection is dialed per
// message, so the client is safe for concurrent use.
func NewSMTPClient(cfg Config) (*SMTPClient, error) {
	cfg.Provider = ProviderSMTP
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := mail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	if cfg.SMTPTimeout > 0 {
		d.Timeout = cfg.SMTPTimeout
	}

	from := cfg.From()
	domain := from[strings.LastIndex(from, "@")+1:]

	return &SMTPClient{dialer: d, config: cfg, domain: domain}, nil
}

// SendEmail delivers the message and returns the generated Message-ID.
// If ctx ends first the call returns ctx.Err(); the in-flight SMTP session is
// bounded by the dialer timeout.
func (c *SMTPClient) SendEmail(ctx context.Context, params SendEmailParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), c.domain)
	m := c.buildMessage(params, messageID)

	errCh := make(chan error, 1)
	go func() { errCh <- c.dialer.DialAndSend(m) }()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case err := <-errCh:
		if err != nil {
			return "", errors.Join(ErrFailedToSendEmail, err)
		}
		return messageID, nil
	}
}

// Verify dials and authenticates against the relay without sending anything.
func (c *SMTPClient) Verify(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		sc, err := c.dialer.Dial()
		if err != nil {
			errCh <- err
			return
		}
		errCh <- sc.Close()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		if err != nil {
			return errors.Join(ErrInvalidConfig, err)
		}
		return nil
	}
}

func (c *SMTPClient) buildMessage(params SendEmailParams, messageID string) *mail.Message {
	m := mail.NewMessage()
	m.SetAddressHeader("From", c.config.From(), c.config.SenderName)
	m.SetHeader("To", strings.TrimSpace(params.SendTo))
	m.SetHeader("Subject", params.Subject)
	m.SetHeader("Message-ID", messageID)
	if c.config.SupportEmail != "" {
		m.SetHeader("Reply-To", c.config.SupportEmail)
	}
	if params.Tag != "" {
		m.SetHeader("X-Tag", params.Tag)
	}

	switch {
	case params.BodyText != "" && params.BodyHTML != "":
		m.SetBody("text/plain", params.BodyText)
		m.AddAlternative("text/html", params.BodyHTML)
	case params.BodyHTML != "":
		m.SetBody("text/html", params.BodyHTML)
	default:
		m.SetBody("text/plain", params.BodyText)
	}
	return m
}
