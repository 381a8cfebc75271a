package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
//
// Publish returns once the event is accepted; handlers run asynchronously and their
// failures never reach the publisher.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// inMemoryDispatcher delivers events to handlers on background goroutines.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	logger    *zap.Logger
	inflight  sync.WaitGroup
}

// InMemoryDispatcher is a Dispatcher whose deliveries can be awaited.
type InMemoryDispatcher interface {
	Dispatcher
	// Wait blocks until every delivery started so far has returned.
	Wait()
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher(logger *zap.Logger) InMemoryDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &inMemoryDispatcher{
		listeners: make(map[EventType][]EventHandler),
		logger:    logger,
	}
}

// Publish hands the event to every subscribed handler without waiting for them.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[event.Name]...)
	d.mu.RUnlock()

	// deliveries outlive the publishing request
	deliveryCtx := context.WithoutCancel(ctx)
	for _, handler := range handlers {
		d.inflight.Add(1)
		go func(h EventHandler) {
			defer d.inflight.Done()
			if err := h(deliveryCtx, event); err != nil {
				d.logger.Error("event handler failed",
					zap.String("event_id", event.ID),
					zap.String("event", string(event.Name)),
					zap.Error(err))
			}
		}(handler)
	}
	return nil
}

// Subscribe registers a handler for the given event type.
func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

func (d *inMemoryDispatcher) Wait() {
	d.inflight.Wait()
}
