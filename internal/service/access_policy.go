package service

import (
	"github.com/deskflow/ai-ticket-assistant/internal/domain"
	"github.com/deskflow/ai-ticket-assistant/internal/repository"
)

// Projection selects which ticket fields a caller may see.
type Projection int

const (
	// ProjectionSummary exposes id, title, description, status and createdAt only.
	ProjectionSummary Projection = iota
	// ProjectionFull exposes every field including the assignee.
	ProjectionFull
)

// AccessPolicy is the ticket visibility of one caller: which rows and which fields.
type AccessPolicy struct {
	Filter     repository.TicketFilter
	Projection Projection
}

// TicketAccessPolicy derives the policy for user. Plain users see only their own tickets in
// summary form; moderators and admins see everything.
func TicketAccessPolicy(user *domain.User) AccessPolicy {
	if user != nil && (user.Role == domain.RoleModerator || user.Role == domain.RoleAdmin) {
		return AccessPolicy{Projection: ProjectionFull}
	}
	owner := ""
	if user != nil {
		owner = user.ID
	}
	return AccessPolicy{
		Filter:     repository.TicketFilter{CreatedBy: &owner},
		Projection: ProjectionSummary,
	}
}
