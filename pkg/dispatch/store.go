package dispatch

import (
	"context"
	"time"
)

// Store is the persistence the pipeline needs. Claim and Record must each be
// a single atomic conditional write.
type Store interface {
	// Claim leases a pending notification for delivery and returns it with its
	// recipient. It returns ErrNotPending when the row is missing, terminal or
	// already leased.
	Claim(ctx context.Context, id string, lease time.Duration) (Delivery, error)

	// ListPending returns ids of unleased pending notifications created before
	// olderThan, oldest first.
	ListPending(ctx context.Context, olderThan time.Time, limit int) ([]string, error)

	// Record moves a pending notification to the outcome's terminal state and
	// clears its lease. It reports false when the row was no longer pending.
	Record(ctx context.Context, id string, outcome Outcome) (bool, error)
}
