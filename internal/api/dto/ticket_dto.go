package dto

import (
	"time"

	"github.com/deskflow/ai-ticket-assistant/internal/domain"
	"github.com/deskflow/ai-ticket-assistant/internal/repository"
	"github.com/deskflow/ai-ticket-assistant/internal/service"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TicketSummary is the restricted view shown to plain users.
type TicketSummary struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      domain.TicketStatus `json:"status"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// TicketDetail is the full view shown to moderators and admins.
type TicketDetail struct {
	ID            string                `json:"id"`
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	Status        domain.TicketStatus   `json:"status"`
	Priority      domain.TicketPriority `json:"priority"`
	HelpfulNotes  string                `json:"helpfulNotes"`
	RelatedSkills []string              `json:"relatedSkills"`
	CreatedBy     string                `json:"createdBy"`
	AssignedTo    *domain.Assignee      `json:"assignedTo"`
	CreatedAt     time.Time             `json:"createdAt"`
	UpdatedAt     time.Time             `json:"updatedAt"`
}

// CreateTicketResponse is returned by ticket submission.
type CreateTicketResponse struct {
	Message string        `json:"message"`
	Ticket  domain.Ticket `json:"ticket"`
}

// TicketResponse wraps a single projected ticket.
type TicketResponse struct {
	Ticket any `json:"ticket"`
}

// ProjectTicket renders view with the fields projection allows.
func ProjectTicket(view repository.TicketView, projection service.Projection) any {
	if projection != service.ProjectionFull {
		return TicketSummary{
			ID:          view.ID,
			Title:       view.Title,
			Description: view.Description,
			Status:      view.Status,
			CreatedAt:   view.CreatedAt,
		}
	}
	skills := view.RelatedSkills
	if skills == nil {
		skills = []string{}
	}
	return TicketDetail{
		ID:            view.ID,
		Title:         view.Title,
		Description:   view.Description,
		Status:        view.Status,
		Priority:      view.Priority,
		HelpfulNotes:  view.HelpfulNotes,
		RelatedSkills: skills,
		CreatedBy:     view.CreatedBy,
		AssignedTo:    view.Assignee,
		CreatedAt:     view.CreatedAt,
		UpdatedAt:     view.UpdatedAt,
	}
}

// ProjectTickets renders a listing.
func ProjectTickets(views []repository.TicketView, projection service.Projection) []any {
	out := make([]any, 0, len(views))
	for _, v := range views {
		out = append(out, ProjectTicket(v, projection))
	}
	return out
}
