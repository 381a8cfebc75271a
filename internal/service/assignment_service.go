package service

import (
	"context"
	"errors"

	"github.com/deskflow/ai-ticket-assistant/internal/domain"
	"github.com/deskflow/ai-ticket-assistant/internal/repository"
)

// AssignmentService routes tickets to staff.
type AssignmentService struct {
	tickets repository.TicketRepository
	users   repository.UserRepository
}

// NewAssignmentService creates the service.
func NewAssignmentService(tickets repository.TicketRepository, users repository.UserRepository) *AssignmentService {
	return &AssignmentService{tickets: tickets, users: users}
}

// AutoAssignTicket assigns the first moderator whose skills match any related skill, falling
// back to the first admin. With neither available the ticket is left unassigned and a nil
// assignee is returned. Reapplying the same assignment is harmless.
func (s *AssignmentService) AutoAssignTicket(ctx context.Context, ticketID string, related []string) (*domain.Assignee, error) {
	user, err := s.selectAssignee(ctx, related)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, s.tickets.Assign(ctx, ticketID, nil)
	}
	if err := s.tickets.Assign(ctx, ticketID, &user.ID); err != nil {
		return nil, err
	}
	return &domain.Assignee{ID: user.ID, Email: user.Email}, nil
}

func (s *AssignmentService) selectAssignee(ctx context.Context, related []string) (*domain.User, error) {
	user, err := s.users.FindModeratorBySkills(ctx, related)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	user, err = s.users.FindFirstByRole(ctx, domain.RoleAdmin)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return user, err
}
