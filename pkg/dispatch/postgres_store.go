package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bloodconnect/dispatch/pkg/pg"
)

// querier is the subset of *pgxpool.Pool the store uses.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store on the notifications and users tables.
type PostgresStore struct {
	db querier
}

// NewPostgresStore creates a store on top of a pool or connection.
func NewPostgresStore(db querier) *PostgresStore {
	return &PostgresStore{db: db}
}

const claimQuery = `
WITH claimed AS (
	UPDATE notifications
	SET claimed_until = now() + $2::bigint * interval '1 millisecond'
	WHERE id = $1
	  AND delivery_state = 'pending'
	  AND (claimed_until IS NULL OR claimed_until < now())
	RETURNING id, recipient_id, title, body, urgency, delivery_state, created_at, claimed_until
)
SELECT c.id, c.recipient_id, c.title, c.body, c.urgency, c.delivery_state, c.created_at, c.claimed_until,
       u.email, COALESCE(u.display_name, '')
FROM claimed c
JOIN users u ON u.id = c.recipient_id`

// Claim implements Store.
func (s *PostgresStore) Claim(ctx context.Context, id string, lease time.Duration) (Delivery, error) {
	var (
		d       Delivery
		urgency string
		state   string
	)
	err := s.db.QueryRow(ctx, claimQuery, id, lease.Milliseconds()).Scan(
		&d.Notification.ID,
		&d.Notification.RecipientID,
		&d.Notification.Title,
		&d.Notification.Body,
		&urgency,
		&state,
		&d.Notification.CreatedAt,
		&d.Notification.ClaimedUntil,
		&d.Recipient.Email,
		&d.Recipient.DisplayName,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return Delivery{}, ErrNotPending
		}
		return Delivery{}, errors.Join(ErrClaimFailed, err)
	}

	d.Notification.State = State(state)
	if u, err := ParseUrgency(urgency); err == nil {
		d.Notification.Urgency = u
	}
	d.Recipient.ID = d.Notification.RecipientID
	return d, nil
}

const listPendingQuery = `
SELECT id
FROM notifications
WHERE delivery_state = 'pending'
  AND created_at < $1
  AND (claimed_until IS NULL OR claimed_until < now())
ORDER BY created_at, id
LIMIT $2`

// ListPending implements Store.
func (s *PostgresStore) ListPending(ctx context.Context, olderThan time.Time, limit int) ([]string, error) {
	rows, err := s.db.Query(ctx, listPendingQuery, olderThan, limit)
	if err != nil {
		return nil, errors.Join(ErrListPendingFailed, err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errors.Join(ErrListPendingFailed, err)
	}
	return ids, nil
}

const recordQuery = `
UPDATE notifications
SET delivery_state = $2,
    sent_at = now(),
    delivery_detail = $3,
    claimed_until = NULL
WHERE id = $1
  AND delivery_state = 'pending'`

// Record implements Store.
func (s *PostgresStore) Record(ctx context.Context, id string, outcome Outcome) (bool, error) {
	tag, err := s.db.Exec(ctx, recordQuery, id, string(outcome.State()), outcome.Detail)
	if err != nil {
		return false, errors.Join(ErrRecordFailed, err)
	}
	return tag.RowsAffected() == 1, nil
}

const insertQuery = `
INSERT INTO notifications (recipient_id, title, body, urgency)
VALUES ($1, $2, $3, $4)
RETURNING id`

// Insert creates a pending notification. The insert trigger publishes it on
// the notification channel.
func (s *PostgresStore) Insert(ctx context.Context, n Notification) (string, error) {
	var id string
	err := s.db.QueryRow(ctx, insertQuery, n.RecipientID, n.Title, n.Body, n.Urgency.String()).Scan(&id)
	if err != nil {
		if pg.IsForeignKeyViolationError(err) {
			return "", fmt.Errorf("%w: %s", ErrUnknownRecipient, n.RecipientID)
		}
		return "", fmt.Errorf("failed to insert notification: %w", err)
	}
	return id, nil
}
