package dispatch_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloodconnect/dispatch/pkg/dispatch"
)

func TestTextBody(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		"Hello Ann,\n\nA donor accepted your request.\n\nRegards,\nBlood Connect Team",
		dispatch.TextBody("Ann", "A donor accepted your request."),
	)
}

func TestComposeMessage(t *testing.T) {
	t.Parallel()

	d := dispatch.Delivery{
		Notification: dispatch.Notification{ID: "n1", Title: "Request Accepted", Body: "O+ <needed> at City Hospital"},
		Recipient:    dispatch.Recipient{ID: "u1", Email: "a@x.com", DisplayName: "Ann"},
	}

	msg, err := dispatch.ComposeMessage(context.Background(), d, "")
	require.NoError(t, err)

	assert.Equal(t, "n1", msg.NotificationID)
	assert.Equal(t, "a@x.com", msg.To)
	assert.Equal(t, "Request Accepted", msg.Subject)
	assert.Equal(t, dispatch.TextBody("Ann", "O+ <needed> at City Hospital"), msg.Text)
	assert.Contains(t, msg.HTML, "O+ &lt;needed&gt; at City Hospital")
	assert.Contains(t, msg.HTML, "https://blood-care.vercel.app")

	params := msg.Params()
	assert.Equal(t, "a@x.com", params.SendTo)
	assert.Equal(t, "Request Accepted", params.Subject)
	assert.Equal(t, msg.Text, params.BodyText)
	assert.Equal(t, msg.HTML, params.BodyHTML)
	assert.NoError(t, params.Validate())
}
