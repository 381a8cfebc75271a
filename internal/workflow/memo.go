package workflow

import (
	"context"
	"sync"
	"time"
)

// DefaultMemoTTL bounds how long a run's step results are kept when no TTL is configured.
const DefaultMemoTTL = 24 * time.Hour

// MemoStore persists completed step results per run so a retried attempt can skip them.
type MemoStore interface {
	Load(ctx context.Context, runID, step string) ([]byte, bool, error)
	Save(ctx context.Context, runID, step string, value []byte) error
}

type memoryRun struct {
	steps     map[string][]byte
	expiresAt time.Time
}

type memoryMemoStore struct {
	mu        sync.Mutex
	runs      map[string]*memoryRun
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

// NewMemoryMemoStore keeps step results in process memory. A run expires ttl after its last
// write; once a run completes only its completion marker is retained.
func NewMemoryMemoStore(ttl time.Duration) MemoStore {
	return newMemoryMemoStore(ttl, time.Now)
}

func newMemoryMemoStore(ttl time.Duration, now func() time.Time) *memoryMemoStore {
	if ttl <= 0 {
		ttl = DefaultMemoTTL
	}
	return &memoryMemoStore{runs: make(map[string]*memoryRun), ttl: ttl, now: now, lastSweep: now()}
}

func (s *memoryMemoStore) Load(_ context.Context, runID, step string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return nil, false, nil
	}
	if !s.now().Before(run.expiresAt) {
		delete(s.runs, runID)
		return nil, false, nil
	}
	value, ok := run.steps[step]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (s *memoryMemoStore) Save(_ context.Context, runID, step string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweepLocked(now)

	run, ok := s.runs[runID]
	if !ok {
		run = &memoryRun{steps: make(map[string][]byte)}
		s.runs[runID] = run
	}
	if step == completedMarker {
		// replays of a completed run stop at the marker; the step results are dead weight
		run.steps = make(map[string][]byte, 1)
	}
	run.steps[step] = append([]byte(nil), value...)
	run.expiresAt = now.Add(s.ttl)
	return nil
}

// sweepLocked drops expired runs, at most once per ttl.
func (s *memoryMemoStore) sweepLocked(now time.Time) {
	if now.Sub(s.lastSweep) < s.ttl {
		return
	}
	s.lastSweep = now
	for id, run := range s.runs {
		if !now.Before(run.expiresAt) {
			delete(s.runs, id)
		}
	}
}

func (s *memoryMemoStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}
