package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Step gives a handler access to memoized named steps within one run.
type Step struct {
	runID   string
	attempt int
	memo    MemoStore
	tracer  trace.Tracer
	logger  *zap.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

// RunID identifies the run the step belongs to.
func (s *Step) RunID() string { return s.runID }

// Attempt is the 1-based attempt number of the current execution.
func (s *Step) Attempt() int { return s.attempt }

// Run executes fn as the step called name, at most once per run.
//
// A result saved by an earlier attempt is decoded and returned without calling fn. Step
// names must be unique within a handler; reusing one is a non-retriable error.
func Run[T any](ctx context.Context, step *Step, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := step.claim(name); err != nil {
		return zero, err
	}

	cached, ok, err := step.memo.Load(ctx, step.runID, name)
	if err != nil {
		return zero, err
	}
	if ok {
		var out T
		if err := json.Unmarshal(cached, &out); err != nil {
			return zero, NonRetriable(fmt.Errorf("decode memoized step %s: %w", name, err))
		}
		step.logger.Debug("step memoized", zap.String("step", name))
		return out, nil
	}

	ctx, span := step.tracer.Start(ctx, "step "+name, trace.WithAttributes(
		attribute.String("workflow.run_id", step.runID),
		attribute.String("workflow.step", name),
		attribute.Int("workflow.attempt", step.attempt),
	))
	defer span.End()

	out, err := guard(ctx, fn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		step.logger.Warn("step failed", zap.String("step", name), zap.Error(err))
		return zero, fmt.Errorf("step %s: %w", name, err)
	}

	encoded, err := json.Marshal(out)
	if err != nil {
		return zero, NonRetriable(fmt.Errorf("encode step %s: %w", name, err))
	}
	if err := step.memo.Save(ctx, step.runID, name, encoded); err != nil {
		return zero, err
	}
	return out, nil
}

func (s *Step) claim(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[name]; dup {
		return NonRetriable(fmt.Errorf("step %q used twice in one run", name))
	}
	s.seen[name] = struct{}{}
	return nil
}

func guard[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}
