package domain

import (
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusTodo       TicketStatus = "TODO"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
)

// TicketPriority enumerates urgency levels suggested by enrichment.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Status        TicketStatus   `json:"status"`
	Priority      TicketPriority `json:"priority"`
	HelpfulNotes  string         `json:"helpfulNotes"`
	RelatedSkills []string       `json:"relatedSkills"`
	CreatedBy     string         `json:"createdBy"`
	AssignedTo    *string        `json:"assignedTo"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// Enrichment is the AI suggestion folded into a ticket. It is never persisted on its own.
type Enrichment struct {
	Priority      string   `json:"priority"`
	HelpfulNotes  string   `json:"helpfulNotes"`
	RelatedSkills []string `json:"relatedSkills"`
}

// NormalizePriority maps an arbitrary suggestion onto the allowed set, defaulting to medium.
func NormalizePriority(raw string) TicketPriority {
	switch p := TicketPriority(strings.TrimSpace(raw)); p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return p
	default:
		return TicketPriorityMedium
	}
}

var statusRank = map[TicketStatus]int{
	TicketStatusOpen:       0,
	TicketStatusTodo:       1,
	TicketStatusInProgress: 2,
}

// CanAdvance reports whether moving from current to next keeps the status monotonic.
// Re-applying the current status is allowed so retried writes stay idempotent.
func CanAdvance(current, next TicketStatus) bool {
	cur, ok := statusRank[current]
	if !ok {
		return false
	}
	nxt, ok := statusRank[next]
	if !ok {
		return false
	}
	return nxt >= cur
}

// StatusesBefore returns every known status from which next is reachable.
func StatusesBefore(next TicketStatus) []TicketStatus {
	nxt, ok := statusRank[next]
	if !ok {
		return nil
	}
	out := make([]TicketStatus, 0, len(statusRank))
	for _, s := range []TicketStatus{TicketStatusOpen, TicketStatusTodo, TicketStatusInProgress} {
		if statusRank[s] <= nxt {
			out = append(out, s)
		}
	}
	return out
}
