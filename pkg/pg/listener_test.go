package pg

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListener_Closed(t *testing.T) {
	t.Parallel()

	ln := &Listener{}

	assert.ErrorIs(t, ln.Listen(context.Background(), "notification_channel"), ErrListenerClosed)

	_, err := ln.Wait(context.Background())
	assert.ErrorIs(t, err, ErrListenerClosed)

	assert.NoError(t, ln.Close(context.Background()))
	assert.NoError(t, ln.Close(context.Background()))
}

func TestListener_EmptyChannel(t *testing.T) {
	t.Parallel()

	ln := &Listener{}
	assert.ErrorIs(t, ln.Listen(context.Background(), ""), ErrEmptyChannel)
}
