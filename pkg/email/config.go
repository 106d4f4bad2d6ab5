package email

import (
	"fmt"
	"time"
)

// Supported transports.
const (
	ProviderSMTP     = "smtp"
	ProviderPostmark = "postmark"
	ProviderDev      = "dev"
)

// Config holds mail transport configuration.
// EMAIL_USER doubles as the sender address when EMAIL_FROM is not set, which
// matches how a personal gmail account with an app password is used.
type Config struct {
	Provider     string `env:"EMAIL_PROVIDER" envDefault:"smtp"`
	SenderEmail  string `env:"EMAIL_FROM"`
	SenderName   string `env:"EMAIL_FROM_NAME" envDefault:"Blood Connect System"`
	SupportEmail string `env:"EMAIL_REPLY_TO"`

	SMTPHost    string        `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort    int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser    string        `env:"EMAIL_USER"`
	SMTPPass    string        `env:"EMAIL_PASS"`
	SMTPTimeout time.Duration `env:"SMTP_TIMEOUT" envDefault:"10s"`

	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`

	DevDir string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`
}

// From returns the effective sender address.
func (c Config) From() string {
	if c.SenderEmail != "" {
		return c.SenderEmail
	}
	return c.SMTPUser
}

// Validate checks that the selected provider has everything it needs.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderSMTP:
		if c.SMTPHost == "" {
			return fmt.Errorf("%w: SMTP_HOST is required", ErrInvalidConfig)
		}
		if c.SMTPPort <= 0 {
			return fmt.Errorf("%w: SMTP_PORT must be positive", ErrInvalidConfig)
		}
		if c.SMTPUser == "" {
			return fmt.Errorf("%w: EMAIL_USER is required", ErrInvalidConfig)
		}
		if c.SMTPPass == "" {
			return fmt.Errorf("%w: EMAIL_PASS is required", ErrInvalidConfig)
		}
	case ProviderPostmark:
		if c.PostmarkServerToken == "" {
			return fmt.Errorf("%w: POSTMARK_SERVER_TOKEN is required", ErrInvalidConfig)
		}
		if c.PostmarkAccountToken == "" {
			return fmt.Errorf("%w: POSTMARK_ACCOUNT_TOKEN is required", ErrInvalidConfig)
		}
	case ProviderDev:
		if c.DevDir == "" {
			return fmt.Errorf("%w: EMAIL_DEV_DIR is required", ErrInvalidConfig)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown EMAIL_PROVIDER %q", ErrInvalidConfig, c.Provider)
	}

	if !isValidAddress(c.From()) {
		return fmt.Errorf("%w: sender must be a valid email address", ErrInvalidConfig)
	}
	if c.SupportEmail != "" && !isValidAddress(c.SupportEmail) {
		return fmt.Errorf("%w: EMAIL_REPLY_TO must be a valid email address", ErrInvalidConfig)
	}
	return nil
}
