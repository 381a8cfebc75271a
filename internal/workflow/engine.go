// Package workflow runs event-triggered functions as sequences of named, memoized steps with
// bounded retries.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/deskflow/ai-ticket-assistant/internal/events"
	"github.com/deskflow/ai-ticket-assistant/internal/observability"
)

const completedMarker = "_completed"

// Handler is the body of a workflow function.
type Handler func(ctx context.Context, event events.Event, step *Step) error

// Function binds a handler to the event that triggers it.
type Function struct {
	ID      string
	Trigger events.EventType
	// Retries is the number of extra attempts after the first failure.
	Retries int
	Handler Handler
}

// Result is the soft outcome of a run. Failures are reported here and never propagate.
type Result struct {
	RunID    string
	Function string
	Success  bool
	Attempts int
	Skipped  bool
	Err      error
}

// Options tunes an Engine.
type Options struct {
	Concurrency     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Metrics         *observability.Metrics
}

// Engine executes registered functions for events delivered by a dispatcher.
type Engine struct {
	dispatcher events.Dispatcher
	memo       MemoStore
	logger     *zap.Logger
	metrics    *observability.Metrics
	tracer     trace.Tracer
	slots      chan struct{}
	initial    time.Duration
	maxDelay   time.Duration

	mu        sync.Mutex
	functions map[string]Function
}

// NewEngine creates an engine. A nil memo store keeps step results in memory for DefaultMemoTTL.
func NewEngine(dispatcher events.Dispatcher, memo MemoStore, logger *zap.Logger, opts Options) *Engine {
	if memo == nil {
		memo = NewMemoryMemoStore(DefaultMemoTTL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = time.Second
	}
	if opts.MaxInterval < opts.InitialInterval {
		opts.MaxInterval = opts.InitialInterval
	}
	return &Engine{
		dispatcher: dispatcher,
		memo:       memo,
		logger:     logger.Named("workflow"),
		metrics:    opts.Metrics,
		tracer:     otel.Tracer("github.com/deskflow/ai-ticket-assistant/internal/workflow"),
		slots:      make(chan struct{}, opts.Concurrency),
		initial:    opts.InitialInterval,
		maxDelay:   opts.MaxInterval,
		functions:  make(map[string]Function),
	}
}

// Register subscribes fn to its trigger event.
func (e *Engine) Register(fn Function) error {
	if fn.ID == "" || fn.Trigger == "" || fn.Handler == nil {
		return errors.New("workflow function requires id, trigger and handler")
	}
	if fn.Retries < 0 {
		return fmt.Errorf("workflow function %s: negative retries", fn.ID)
	}
	e.mu.Lock()
	if _, exists := e.functions[fn.ID]; exists {
		e.mu.Unlock()
		return fmt.Errorf("workflow function %s already registered", fn.ID)
	}
	e.functions[fn.ID] = fn
	e.mu.Unlock()

	if e.dispatcher != nil {
		e.dispatcher.Subscribe(fn.Trigger, func(ctx context.Context, event events.Event) error {
			e.Execute(ctx, fn, event)
			return nil
		})
	}
	return nil
}

// Execute runs fn for event, retrying retriable failures up to fn.Retries times.
//
// The run id is derived from the function and event ids, so a redelivered event resumes the
// same run and skips steps that already completed.
func (e *Engine) Execute(ctx context.Context, fn Function, event events.Event) Result {
	result := Result{RunID: fn.ID + ":" + event.ID, Function: fn.ID}
	logger := e.logger.With(
		zap.String("run_id", result.RunID),
		zap.String("function", fn.ID),
		zap.String("event", string(event.Name)),
	)

	select {
	case e.slots <- struct{}{}:
		defer func() { <-e.slots }()
	case <-ctx.Done():
		result.Err = ctx.Err()
		logger.Error("workflow run not started", zap.Error(result.Err))
		e.metrics.RecordWorkflowRun(fn.ID, false, 0)
		return result
	}

	if _, done, err := e.memo.Load(ctx, result.RunID, completedMarker); err == nil && done {
		logger.Info("workflow run already completed")
		result.Success, result.Skipped = true, true
		return result
	}

	ctx, span := e.tracer.Start(ctx, "workflow "+fn.ID, trace.WithAttributes(
		attribute.String("workflow.run_id", result.RunID),
		attribute.String("workflow.event_id", event.ID),
	))
	defer span.End()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = e.initial
	policy.MaxInterval = e.maxDelay

	logger.Info("workflow run started")
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		result.Attempts++
		err := e.attempt(ctx, fn, event, result.RunID, result.Attempts, logger)
		if err != nil && IsNonRetriable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(fn.Retries+1)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, wait time.Duration) {
			logger.Warn("workflow attempt failed; retrying",
				zap.Int("attempt", result.Attempts),
				zap.Duration("retry_in", wait),
				zap.Error(err))
		}),
	)

	if err != nil {
		result.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		fields := []zap.Field{zap.Int("attempts", result.Attempts), zap.Error(err)}
		if IsNonRetriable(err) {
			logger.Error("workflow run stopped on non-retriable error", fields...)
		} else {
			logger.Error("workflow run failed", fields...)
		}
		e.metrics.RecordWorkflowRun(fn.ID, false, result.Attempts)
		return result
	}

	if err := e.memo.Save(ctx, result.RunID, completedMarker, []byte("true")); err != nil {
		logger.Warn("mark run completed failed", zap.Error(err))
	}
	result.Success = true
	logger.Info("workflow run succeeded", zap.Int("attempts", result.Attempts))
	e.metrics.RecordWorkflowRun(fn.ID, true, result.Attempts)
	return result
}

func (e *Engine) attempt(ctx context.Context, fn Function, event events.Event, runID string, attempt int, logger *zap.Logger) (err error) {
	step := &Step{
		runID:   runID,
		attempt: attempt,
		memo:    e.memo,
		tracer:  e.tracer,
		logger:  logger.With(zap.Int("attempt", attempt)),
		seen:    make(map[string]struct{}),
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return fn.Handler(ctx, event, step)
}
