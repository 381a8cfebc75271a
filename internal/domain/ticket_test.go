package domain

import "testing"

func TestNormalizePriority(t *testing.T) {
	tests := []struct {
		raw  string
		want TicketPriority
	}{
		{raw: "low", want: TicketPriorityLow},
		{raw: "medium", want: TicketPriorityMedium},
		{raw: " high ", want: TicketPriorityHigh},
		{raw: "HIGH", want: TicketPriorityMedium},
		{raw: "urgent", want: TicketPriorityMedium},
		{raw: "", want: TicketPriorityMedium},
	}
	for _, tc := range tests {
		if got := NormalizePriority(tc.raw); got != tc.want {
			t.Fatalf("NormalizePriority(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestCanAdvance(t *testing.T) {
	tests := []struct {
		from, to TicketStatus
		want     bool
	}{
		{TicketStatusOpen, TicketStatusTodo, true},
		{TicketStatusTodo, TicketStatusInProgress, true},
		{TicketStatusOpen, TicketStatusInProgress, true},
		{TicketStatusTodo, TicketStatusTodo, true},
		{TicketStatusInProgress, TicketStatusTodo, false},
		{TicketStatusInProgress, TicketStatusOpen, false},
		{TicketStatus("DONE"), TicketStatusTodo, false},
	}
	for _, tc := range tests {
		if got := CanAdvance(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanAdvance(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestStatusesBefore(t *testing.T) {
	got := StatusesBefore(TicketStatusTodo)
	if len(got) != 2 || got[0] != TicketStatusOpen || got[1] != TicketStatusTodo {
		t.Fatalf("StatusesBefore(TODO) = %v", got)
	}
	if got := StatusesBefore(TicketStatus("bogus")); got != nil {
		t.Fatalf("StatusesBefore(bogus) = %v, want nil", got)
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleUser, RoleModerator, RoleAdmin} {
		if !r.Valid() {
			t.Fatalf("%q should be valid", r)
		}
	}
	if Role("root").Valid() {
		t.Fatal("root should not be valid")
	}
}
