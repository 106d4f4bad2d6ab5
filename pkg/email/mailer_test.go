package email_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloodconnect/dispatch/pkg/email"
)

func TestSendEmailParams_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		params  email.SendEmailParams
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid text params",
			params: email.SendEmailParams{SendTo: "a@x.com", Subject: "Request Accepted", BodyText: "Hello"},
		},
		{
			name:   "valid html params",
			params: email.SendEmailParams{SendTo: "donor+tag@sub.example.com", Subject: "S", BodyHTML: "<p>Hi</p>"},
		},
		{
			name:    "empty SendTo",
			params:  email.SendEmailParams{Subject: "S", BodyText: "b"},
			wantErr: true,
			errMsg:  "SendTo is required",
		},
		{
			name:    "invalid address",
			params:  email.SendEmailParams{SendTo: "not-an-email", Subject: "S", BodyText: "b"},
			wantErr: true,
			errMsg:  "SendTo must be a valid email address",
		},
		{
			name:    "whitespace subject",
			params:  email.SendEmailParams{SendTo: "a@x.com", Subject: "   ", BodyText: "b"},
			wantErr: true,
			errMsg:  "Subject is required",
		},
		{
			name:    "no body",
			params:  email.SendEmailParams{SendTo: "a@x.com", Subject: "S"},
			wantErr: true,
			errMsg:  "BodyText or BodyHTML is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.params.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, email.ErrInvalidParams)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	smtp := email.Config{
		Provider: email.ProviderSMTP,
		SMTPHost: "smtp.gmail.com",
		SMTPPort: 587,
		SMTPUser: "bloodconnect@gmail.com",
		SMTPPass: "app-password",
	}

	tests := []struct {
		name    string
		mutate  func(c *email.Config)
		wantErr string
	}{
		{name: "valid smtp", mutate: func(c *email.Config) {}},
		{name: "smtp without user", mutate: func(c *email.Config) { c.SMTPUser = "" }, wantErr: "EMAIL_USER is required"},
		{name: "smtp without password", mutate: func(c *email.Config) { c.SMTPPass = "" }, wantErr: "EMAIL_PASS is required"},
		{name: "smtp without host", mutate: func(c *email.Config) { c.SMTPHost = "" }, wantErr: "SMTP_HOST is required"},
		{name: "invalid sender", mutate: func(c *email.Config) { c.SenderEmail = "nope" }, wantErr: "sender must be a valid email address"},
		{name: "invalid reply-to", mutate: func(c *email.Config) { c.SupportEmail = "nope" }, wantErr: "EMAIL_REPLY_TO"},
		{
			name: "postmark without tokens",
			mutate: func(c *email.Config) {
				c.Provider = email.ProviderPostmark
			},
			wantErr: "POSTMARK_SERVER_TOKEN is required",
		},
		{
			name: "valid postmark",
			mutate: func(c *email.Config) {
				c.Provider = email.ProviderPostmark
				c.PostmarkServerToken = "server"
				c.PostmarkAccountToken = "account"
			},
		},
		{
			name: "dev needs only a directory",
			mutate: func(c *email.Config) {
				*c = email.Config{Provider: email.ProviderDev, DevDir: "./tmp"}
			},
		},
		{name: "unknown provider", mutate: func(c *email.Config) { c.Provider = "carrier-pigeon" }, wantErr: "unknown EMAIL_PROVIDER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := smtp
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr != "" {
				assert.ErrorIs(t, err, email.ErrInvalidConfig)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConfig_From(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "user@gmail.com", email.Config{SMTPUser: "user@gmail.com"}.From())
	assert.Equal(t, "noreply@bloodconnect.org", email.Config{
		SMTPUser:    "user@gmail.com",
		SenderEmail: "noreply@bloodconnect.org",
	}.From())
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("dev provider", func(t *testing.T) {
		t.Parallel()
		sender, err := email.New(email.Config{Provider: email.ProviderDev, DevDir: t.TempDir()})
		require.NoError(t, err)
		assert.IsType(t, &email.DevSender{}, sender)
	})

	t.Run("smtp provider", func(t *testing.T) {
		t.Parallel()
		sender, err := email.New(email.Config{
			Provider: email.ProviderSMTP,
			SMTPHost: "localhost",
			SMTPPort: 2525,
			SMTPUser: "worker@example.com",
			SMTPPass: "secret",
		})
		require.NoError(t, err)
		assert.IsType(t, &email.SMTPClient{}, sender)
	})

	t.Run("invalid config", func(t *testing.T) {
		t.Parallel()
		sender, err := email.New(email.Config{Provider: email.ProviderSMTP})
		assert.Nil(t, sender)
		assert.ErrorIs(t, err, email.ErrInvalidConfig)
	})
}

func TestDevSender_SendEmail(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sender := email.NewDevSender(filepath.Join(dir, "out"))

	token, err := sender.SendEmail(context.Background(), email.SendEmailParams{
		SendTo:   "a@x.com",
		Subject:  "Request Accepted",
		BodyText: "Hello Ann",
		BodyHTML: "<p>Hello Ann</p>",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "dev-"))

	files, err := os.ReadDir(filepath.Join(dir, "out"))
	require.NoError(t, err)
	require.Len(t, files, 3)

	var meta map[string]any
	for _, f := range files {
		name := f.Name()
		assert.Contains(t, name, "request_accepted")
		if strings.HasSuffix(name, ".json") {
			data, err := os.ReadFile(filepath.Join(dir, "out", name))
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(data, &meta))
		}
	}
	assert.Equal(t, token, meta["token"])
	assert.Equal(t, "a@x.com", meta["send_to"])
}

func TestDevSender_InvalidParams(t *testing.T) {
	t.Parallel()

	sender := email.NewDevSender(t.TempDir())
	token, err := sender.SendEmail(context.Background(), email.SendEmailParams{SendTo: "a@x.com"})
	assert.Empty(t, token)
	assert.ErrorIs(t, err, email.ErrInvalidParams)
}
