package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated EventType = "ticket/created"
)

// Event is the envelope carried from publishers to workflow functions.
type Event struct {
	ID        string          `json:"id"`
	Name      EventType       `json:"name"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"ts"`
}

// TicketCreatedPayload is the data of a ticket/created event.
type TicketCreatedPayload struct {
	TicketID    string `json:"ticketId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatedBy   string `json:"createdBy"`
}

// NewEvent wraps payload in an envelope with a fresh id and timestamp.
func NewEvent(name EventType, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", name, err)
	}
	return Event{
		ID:        uuid.NewString(),
		Name:      name,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Decode unmarshals the event data into out.
func (e Event) Decode(out any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("event %s has no data", e.ID)
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Name, err)
	}
	return nil
}
