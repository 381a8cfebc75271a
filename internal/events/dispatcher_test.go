package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestNewEventRoundTripsPayload(t *testing.T) {
	event, err := NewEvent(EventTicketCreated, TicketCreatedPayload{TicketID: "t-1", Title: "VPN down", CreatedBy: "u-1"})
	if err != nil {
		t.Fatalf("NewEvent() error = %v", err)
	}
	if event.ID == "" || event.Timestamp.IsZero() {
		t.Fatalf("event missing id or timestamp: %+v", event)
	}
	if string(event.Name) != "ticket/created" {
		t.Fatalf("name = %q, want ticket/created", event.Name)
	}

	var payload TicketCreatedPayload
	if err := event.Decode(&payload); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if payload.TicketID != "t-1" || payload.Title != "VPN down" || payload.CreatedBy != "u-1" {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestDecodeRejectsEmptyData(t *testing.T) {
	if err := (Event{ID: "e"}).Decode(&TicketCreatedPayload{}); err == nil {
		t.Fatal("expected error for empty data")
	}
}

func TestInMemoryDispatcherDeliversToAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var calls atomic.Int32
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls.Add(1)
		return nil
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls.Add(1)
		return errors.New("handler failure stays with the handler")
	})
	d.Subscribe("other/event", func(context.Context, Event) error {
		t.Error("unrelated handler invoked")
		return nil
	})

	event, _ := NewEvent(EventTicketCreated, TicketCreatedPayload{TicketID: "t-1"})
	if err := d.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	d.Wait()

	if got := calls.Load(); got != 2 {
		t.Fatalf("calls = %d, want 2", got)
	}
}

func TestInMemoryDispatcherDetachesFromPublisherContext(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var seenErr atomic.Value
	d.Subscribe(EventTicketCreated, func(ctx context.Context, _ Event) error {
		seenErr.Store(ctx.Err() == nil)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	event, _ := NewEvent(EventTicketCreated, TicketCreatedPayload{})
	_ = d.Publish(ctx, event)
	cancel()
	d.Wait()

	if alive, _ := seenErr.Load().(bool); !alive {
		t.Fatal("handler context was cancelled with the publisher")
	}
}
