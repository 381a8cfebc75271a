package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	queueKeyPrefix      = "events:queue:"
	processingKeySuffix = ":processing"
	defaultPollTimeout  = time.Second
)

// RedisDispatcher queues events in Redis lists so they survive process restarts.
//
// Each event type has a pending list and a processing list. A consumer atomically moves an
// event into the processing list, runs the handlers and then removes it, giving at-least-once
// delivery. Events left in a processing list by a crashed process are requeued by Run.
type RedisDispatcher struct {
	client      *redis.Client
	logger      *zap.Logger
	workers     int
	pollTimeout time.Duration

	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
}

// NewRedisDispatcher creates a dispatcher backed by client with workers consumers per event type.
func NewRedisDispatcher(client *redis.Client, logger *zap.Logger, workers int) *RedisDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = 1
	}
	return &RedisDispatcher{
		client:      client,
		logger:      logger,
		workers:     workers,
		pollTimeout: defaultPollTimeout,
		listeners:   make(map[EventType][]EventHandler),
	}
}

// Publish appends the event to its pending list.
func (d *RedisDispatcher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := d.client.LPush(ctx, queueKey(event.Name), payload).Err(); err != nil {
		return fmt.Errorf("enqueue event %s: %w", event.Name, err)
	}
	return nil
}

// Subscribe registers a handler for the given event type. Call before Run.
func (d *RedisDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

// Run consumes every subscribed queue until ctx is cancelled.
func (d *RedisDispatcher) Run(ctx context.Context) error {
	d.mu.RLock()
	types := make([]EventType, 0, len(d.listeners))
	for t := range d.listeners {
		types = append(types, t)
	}
	d.mu.RUnlock()

	for _, t := range types {
		if err := d.requeueProcessing(ctx, t); err != nil {
			return err
		}
	}

	var wg sync.WaitGroup
	for _, t := range types {
		for i := 0; i < d.workers; i++ {
			wg.Add(1)
			go func(eventType EventType) {
				defer wg.Done()
				d.consume(ctx, eventType)
			}(t)
		}
	}
	wg.Wait()
	return nil
}

func (d *RedisDispatcher) consume(ctx context.Context, eventType EventType) {
	pending := queueKey(eventType)
	processing := pending + processingKeySuffix
	for ctx.Err() == nil {
		raw, err := d.client.BRPopLPush(ctx, pending, processing, d.pollTimeout).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			d.logger.Warn("dequeue event failed", zap.String("event", string(eventType)), zap.Error(err))
			sleepCtx(ctx, d.pollTimeout)
			continue
		}
		d.deliver(ctx, eventType, raw)
		if err := d.client.LRem(context.WithoutCancel(ctx), processing, 1, raw).Err(); err != nil {
			d.logger.Warn("ack event failed", zap.String("event", string(eventType)), zap.Error(err))
		}
	}
}

func (d *RedisDispatcher) deliver(ctx context.Context, eventType EventType, raw string) {
	var event Event
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		d.logger.Error("drop malformed event", zap.String("event", string(eventType)), zap.Error(err))
		return
	}

	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[eventType]...)
	d.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(context.WithoutCancel(ctx), event); err != nil {
			d.logger.Error("event handler failed",
				zap.String("event_id", event.ID),
				zap.String("event", string(event.Name)),
				zap.Error(err))
		}
	}
}

func (d *RedisDispatcher) requeueProcessing(ctx context.Context, eventType EventType) error {
	pending := queueKey(eventType)
	processing := pending + processingKeySuffix
	for {
		err := d.client.RPopLPush(ctx, processing, pending).Err()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("requeue %s: %w", eventType, err)
		}
		d.logger.Info("requeued unfinished event", zap.String("event", string(eventType)))
	}
}

func queueKey(eventType EventType) string {
	return queueKeyPrefix + string(eventType)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
