package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloodconnect/dispatch/pkg/config"
	"github.com/bloodconnect/dispatch/pkg/dispatch"
	"github.com/bloodconnect/dispatch/pkg/email"
)

func TestParseCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args     []string
		wantCmd  string
		wantRest []string
	}{
		{args: nil, wantCmd: "run"},
		{args: []string{"migrate"}, wantCmd: "migrate", wantRest: []string{}},
		{args: []string{"send-test", "-user", "u1"}, wantCmd: "send-test", wantRest: []string{"-user", "u1"}},
		{args: []string{"-v"}, wantCmd: "run", wantRest: []string{"-v"}},
		{args: []string{"--help"}, wantCmd: "help"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.args), func(t *testing.T) {
			t.Parallel()
			cmd, rest := parseCommand(tt.args)
			assert.Equal(t, tt.wantCmd, cmd)
			assert.Equal(t, tt.wantRest, rest)
		})
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	live := context.Background()
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, exitOK, exitCode(live, nil))
	assert.Equal(t, exitSubscriptionLost, exitCode(live, errors.Join(dispatch.ErrSubscriptionLost, errors.New("EOF"))))
	assert.Equal(t, exitStartup, exitCode(live, config.ErrParsingConfig))
	assert.Equal(t, exitStartup, exitCode(live, email.ErrInvalidConfig))
	assert.Equal(t, exitStartup, exitCode(live, context.Canceled), "cancellation without a signal is a failure")
	assert.Equal(t, exitOK, exitCode(cancelled, fmt.Errorf("connect: %w", context.Canceled)))
}

func TestParseSendTestArgs(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		a, err := parseSendTestArgs([]string{"-user", "u1"}, io.Discard)
		require.NoError(t, err)
		assert.Equal(t, sendTestArgs{
			userID:  "u1",
			title:   "Test Notification",
			body:    "This is a test notification from BloodConnect.",
			urgency: dispatch.UrgencyLow,
		}, a)
	})

	t.Run("all flags", func(t *testing.T) {
		t.Parallel()
		a, err := parseSendTestArgs([]string{"-user", "u1", "-title", "Urgent", "-body", "O- needed", "-urgency", "critical"}, io.Discard)
		require.NoError(t, err)
		assert.Equal(t, "Urgent", a.title)
		assert.Equal(t, "O- needed", a.body)
		assert.Equal(t, dispatch.UrgencyCritical, a.urgency)
	})

	t.Run("missing user", func(t *testing.T) {
		t.Parallel()
		_, err := parseSendTestArgs(nil, io.Discard)
		assert.ErrorIs(t, err, errMissingUser)
	})

	t.Run("bad urgency", func(t *testing.T) {
		t.Parallel()
		_, err := parseSendTestArgs([]string{"-user", "u1", "-urgency", "asap"}, io.Discard)
		assert.ErrorIs(t, err, dispatch.ErrUnknownUrgency)
	})

	t.Run("unknown flag", func(t *testing.T) {
		t.Parallel()
		_, err := parseSendTestArgs([]string{"-user", "u1", "-nope"}, io.Discard)
		assert.Error(t, err)
	})
}

func TestRun_Help(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, exitOK, run([]string{"help"}, &out))
	assert.Contains(t, out.String(), "Usage: notifyworker")
}

func TestRun_UnknownCommand(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, exitStartup, run([]string{"frobnicate"}, &out))
	assert.Contains(t, out.String(), "unknown command")
}

func TestRun_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	var out bytes.Buffer
	assert.Equal(t, exitStartup, run([]string{"migrate"}, &out))
}
