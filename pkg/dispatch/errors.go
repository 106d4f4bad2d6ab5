package dispatch

import "errors"

var (
	// ErrNotPending is returned by Store.Claim when the notification is missing,
	// already terminal, or leased by another delivery.
	ErrNotPending = errors.New("notification is not pending")

	// ErrMalformedEvent is returned when a channel payload is not {"id": "..."}.
	ErrMalformedEvent = errors.New("malformed delivery event")

	// ErrSubscriptionLost is returned when the channel subscription fails while running.
	ErrSubscriptionLost = errors.New("notification channel subscription lost")

	// ErrInterrupted is returned when shutdown cancels a delivery before it reaches an outcome.
	ErrInterrupted = errors.New("delivery interrupted")

	// ErrUnknownRecipient is returned when a notification references a user that does not exist.
	ErrUnknownRecipient = errors.New("unknown recipient")

	ErrInvalidConfig     = errors.New("invalid dispatch config")
	ErrStoreNil          = errors.New("store cannot be nil")
	ErrSenderNil         = errors.New("email sender cannot be nil")
	ErrSubscriberNil     = errors.New("subscriber cannot be nil")
	ErrWorkerStarted     = errors.New("worker already started")
	ErrClaimFailed       = errors.New("failed to claim notification")
	ErrRecordFailed      = errors.New("failed to record delivery outcome")
	ErrListPendingFailed = errors.New("failed to list pending notifications")
	ErrUnknownUrgency    = errors.New("unknown urgency")
)
