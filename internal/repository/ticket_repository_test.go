package repository

import (
	"strings"
	"testing"
)

func TestBuildTicketQueryListsNewestFirst(t *testing.T) {
	query, args := buildTicketQuery(TicketFilter{}, nil)
	if len(args) != 0 {
		t.Fatalf("args = %v, want none", args)
	}
	if !strings.Contains(query, "ORDER BY t.created_at DESC") {
		t.Fatalf("query missing ordering: %s", query)
	}
	if strings.Contains(query, "LIMIT") {
		t.Fatalf("unbounded listing should not limit: %s", query)
	}
}

func TestBuildTicketQueryOwnerAndID(t *testing.T) {
	owner := "5c7c2c1e-0000-4000-8000-000000000001"
	id := "5c7c2c1e-0000-4000-8000-000000000002"
	query, args := buildTicketQuery(TicketFilter{CreatedBy: &owner, Limit: 10, Offset: -5}, &id)

	if len(args) != 2 || args[0] != id || args[1] != owner {
		t.Fatalf("args = %v", args)
	}
	if !strings.Contains(query, "t.id=$1") || !strings.Contains(query, "t.created_by=$2") {
		t.Fatalf("query missing placeholders: %s", query)
	}
	if !strings.HasSuffix(query, "LIMIT 10") {
		t.Fatalf("query pagination = %s", query)
	}
}

func TestBuildTicketQueryOffsetWithoutLimit(t *testing.T) {
	query, _ := buildTicketQuery(TicketFilter{Offset: 20}, nil)
	if strings.Contains(query, "LIMIT") || !strings.HasSuffix(query, "OFFSET 20") {
		t.Fatalf("query pagination = %s", query)
	}
}

func TestValidID(t *testing.T) {
	if validID("not-a-uuid") {
		t.Fatal("expected malformed id to be rejected")
	}
	if !validID("5c7c2c1e-0000-4000-8000-000000000001") {
		t.Fatal("expected uuid to be accepted")
	}
}
