package dispatch

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Store in memory for tests and local development.
type MemoryStore struct {
	mu            sync.Mutex
	notifications map[string]*Notification
	recipients    map[string]Recipient
	now           func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		notifications: make(map[string]*Notification),
		recipients:    make(map[string]Recipient),
		now:           time.Now,
	}
}

// SetClock replaces the store's time source.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// AddRecipient inserts or replaces a user.
func (s *MemoryStore) AddRecipient(r Recipient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recipients[r.ID] = r
}

// Insert stores n as a new pending notification and returns its id.
// An empty ID is generated and a zero CreatedAt is set to the current time.
func (s *MemoryStore) Insert(_ context.Context, n Notification) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.recipients[n.RecipientID]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownRecipient, n.RecipientID)
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if _, exists := s.notifications[n.ID]; exists {
		return "", fmt.Errorf("notification with ID %s already exists", n.ID)
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	if n.State == "" {
		n.State = StatePending
	}

	s.notifications[n.ID] = &n
	return n.ID, nil
}

// Get returns a copy of the stored notification.
func (s *MemoryStore) Get(id string) (Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return Notification{}, false
	}
	return *n, true
}

// Claim implements Store.
func (s *MemoryStore) Claim(_ context.Context, id string, lease time.Duration) (Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok || n.State != StatePending {
		return Delivery{}, ErrNotPending
	}
	now := s.now()
	if n.ClaimedUntil != nil && !n.ClaimedUntil.Before(now) {
		return Delivery{}, ErrNotPending
	}
	r, ok := s.recipients[n.RecipientID]
	if !ok {
		return Delivery{}, ErrNotPending
	}

	until := now.Add(lease)
	n.ClaimedUntil = &until

	return Delivery{Notification: *n, Recipient: r}, nil
}

// ListPending implements Store.
func (s *MemoryStore) ListPending(_ context.Context, olderThan time.Time, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	pending := make([]*Notification, 0)
	for _, n := range s.notifications {
		if n.State != StatePending || !n.CreatedAt.Before(olderThan) {
			continue
		}
		if n.ClaimedUntil != nil && !n.ClaimedUntil.Before(now) {
			continue
		}
		pending = append(pending, n)
	}

	slices.SortFunc(pending, func(a, b *Notification) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}

	ids := make([]string, len(pending))
	for i, n := range pending {
		ids[i] = n.ID
	}
	return ids, nil
}

// Record implements Store.
func (s *MemoryStore) Record(_ context.Context, id string, outcome Outcome) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok || n.State != StatePending {
		return false, nil
	}

	now := s.now()
	n.State = outcome.State()
	n.SentAt = &now
	n.Detail = outcome.Detail
	n.ClaimedUntil = nil
	return true, nil
}
