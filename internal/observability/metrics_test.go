package observability

import (
	"testing"
	"time"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/tickets", "POST", 201, 15*time.Millisecond)
	m.RecordRequest("/tickets", "POST", 201, 5*time.Millisecond)
	m.RecordError("/tickets", "POST", "VALIDATION_FAILED")
	m.RecordWorkflowRun("on-ticket-created", true, 1)
	m.RecordWorkflowRun("on-ticket-created", false, 3)

	snap := m.Snapshot()
	if got := snap.Requests["/tickets|POST|201"]; got != 2 {
		t.Fatalf("requests = %d, want 2", got)
	}
	if got := snap.RequestMillis["/tickets|POST|201"]; got != 20 {
		t.Fatalf("request millis = %d, want 20", got)
	}
	if got := snap.Errors["/tickets|POST|VALIDATION_FAILED"]; got != 1 {
		t.Fatalf("errors = %d, want 1", got)
	}
	if got := snap.WorkflowRuns["on-ticket-created|success"]; got != 1 {
		t.Fatalf("successes = %d, want 1", got)
	}
	if got := snap.WorkflowRuns["on-ticket-created|attempts"]; got != 4 {
		t.Fatalf("attempts = %d, want 4", got)
	}

	snap.Requests["/tickets|POST|201"] = 100
	if got := m.Snapshot().Requests["/tickets|POST|201"]; got != 2 {
		t.Fatalf("snapshot is not a copy: %d", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	m.RecordWorkflowRun("f", true, 1)
	if snap := m.Snapshot(); snap.Requests != nil {
		t.Fatalf("nil metrics snapshot = %+v", snap)
	}
}
