package dispatch

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Urgency is ordered metadata carried by a notification. Delivery never
// depends on it.
type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyMedium
	UrgencyHigh
	UrgencyCritical
)

var urgencyNames = [...]string{"Low", "Medium", "High", "Critical"}

// String returns the storage form of u ("Low", "Medium", "High", "Critical").
func (u Urgency) String() string {
	if u < UrgencyLow || u > UrgencyCritical {
		return fmt.Sprintf("Urgency(%d)", int(u))
	}
	return urgencyNames[u]
}

// ParseUrgency parses the storage form of an urgency, ignoring case.
func ParseUrgency(s string) (Urgency, error) {
	for i, name := range urgencyNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Urgency(i), nil
		}
	}
	return UrgencyLow, fmt.Errorf("%w: %q", ErrUnknownUrgency, s)
}

// State is the delivery state of a notification.
type State string

const (
	StatePending State = "pending"
	StateSent    State = "sent"
	StateFailed  State = "failed"
)

// Terminal reports whether s is a final state.
func (s State) Terminal() bool {
	return s == StateSent || s == StateFailed
}

// Notification is a message addressed to one user.
type Notification struct {
	ID           string
	RecipientID  string
	Title        string
	Body         string
	Urgency      Urgency
	State        State
	SentAt       *time.Time
	Detail       string
	CreatedAt    time.Time
	ClaimedUntil *time.Time
}

// Recipient is the addressee of a notification.
type Recipient struct {
	ID          string
	Email       string
	DisplayName string
}

// Delivery is a pending notification joined with its recipient.
type Delivery struct {
	Notification Notification
	Recipient    Recipient
}

// Event is the payload published on the notification channel.
type Event struct {
	ID string `json:"id"`
}

// ParseEvent decodes a channel payload. Unknown fields are ignored.
func ParseEvent(payload string) (Event, error) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	ev.ID = strings.TrimSpace(ev.ID)
	if ev.ID == "" {
		return Event{}, fmt.Errorf("%w: missing id", ErrMalformedEvent)
	}
	return ev, nil
}

// Outcome is the terminal result of a send.
// Detail holds the provider token on success and the last error otherwise.
type Outcome struct {
	Success  bool
	Detail   string
	Attempts int
}

// State returns the delivery state the outcome maps to.
func (o Outcome) State() State {
	if o.Success {
		return StateSent
	}
	return StateFailed
}

// Result describes what Processor.Process did with a notification.
type Result int

const (
	ResultSkipped Result = iota
	ResultSent
	ResultFailed
)

func (r Result) String() string {
	switch r {
	case ResultSent:
		return "sent"
	case ResultFailed:
		return "failed"
	default:
		return "skipped"
	}
}
