package pg

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
)

// Listener is a LISTEN subscription on a dedicated connection.
// Wait must be called from a single goroutine.
type Listener struct {
	conn *pgx.Conn
	mu   sync.Mutex
}

// NewListener opens the dedicated connection used for the subscription.
func NewListener(ctx context.Context, cfg Config) (*Listener, error) {
	conn, err := connectSingle(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Listener{conn: conn}, nil
}

// Listen subscribes the connection to channel.
// The name is quoted as an identifier, so any channel name is safe.
func (l *Listener) Listen(ctx context.Context, channel string) error {
	if channel == "" {
		return ErrEmptyChannel
	}

	conn, err := l.get()
	if err != nil {
		return err
	}

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		return errors.Join(ErrListen, err)
	}
	return nil
}

// Wait blocks until the next notification arrives and returns its payload.
// It returns ctx.Err() when ctx is done and the connection error otherwise.
func (l *Listener) Wait(ctx context.Context) (string, error) {
	conn, err := l.get()
	if err != nil {
		return "", err
	}

	n, err := conn.WaitForNotification(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", err
	}
	return n.Payload, nil
}

// Close terminates the subscription connection. It is safe to call more than once.
func (l *Listener) Close(ctx context.Context) error {
	l.mu.Lock()
	conn := l.conn
	l.conn = nil
	l.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close(ctx)
}

func (l *Listener) get() (*pgx.Conn, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return nil, ErrListenerClosed
	}
	return l.conn, nil
}
