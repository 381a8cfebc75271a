package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/deskflow/ai-ticket-assistant/internal/domain"
	"github.com/deskflow/ai-ticket-assistant/internal/events"
	"github.com/deskflow/ai-ticket-assistant/internal/repository"
	apperrors "github.com/deskflow/ai-ticket-assistant/pkg/util"
)

// TicketService coordinates ticket submission and reads.
type TicketService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// TicketPage is a listing shaped by the caller's access policy.
type TicketPage struct {
	Projection Projection
	Tickets    []repository.TicketView
}

// CreateTicket stores a ticket owned by user and starts background triage. It returns as
// soon as the ticket is stored.
func (s *TicketService) CreateTicket(ctx context.Context, user *domain.User, title, description string) (*domain.Ticket, error) {
	if user == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("Title and description are required", nil)
	}

	ticket := &domain.Ticket{
		Title:         title,
		Description:   description,
		Status:        domain.TicketStatusOpen,
		Priority:      domain.TicketPriorityMedium,
		RelatedSkills: []string{},
		CreatedBy:     user.ID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.EventTicketCreated, events.TicketCreatedPayload{
		TicketID:    ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		CreatedBy:   ticket.CreatedBy,
	})
	return ticket, nil
}

// MaxPageSize caps an explicit listing limit.
const MaxPageSize = 100

// Pagination windows a ticket listing. A zero Limit lists everything.
type Pagination struct {
	Limit  int
	Offset int
}

// ListTickets returns the tickets user may see, newest first.
func (s *TicketService) ListTickets(ctx context.Context, user *domain.User, page Pagination) (*TicketPage, error) {
	if page.Limit < 0 || page.Offset < 0 {
		return nil, apperrors.NewValidationError("limit and offset must not be negative", nil)
	}
	policy := TicketAccessPolicy(user)
	filter := policy.Filter
	filter.Limit = min(page.Limit, MaxPageSize)
	filter.Offset = page.Offset
	views, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &TicketPage{Projection: policy.Projection, Tickets: views}, nil
}

// GetTicket returns one ticket if user may see it. Foreign and missing tickets are both
// reported as not found.
func (s *TicketService) GetTicket(ctx context.Context, user *domain.User, id string) (*repository.TicketView, Projection, error) {
	policy := TicketAccessPolicy(user)
	view, err := s.tickets.Find(ctx, id, policy.Filter)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, policy.Projection, apperrors.NewNotFound("Ticket", map[string]any{"ticket_id": id})
		}
		return nil, policy.Projection, apperrors.MapError(err)
	}
	return view, policy.Projection, nil
}

func (s *TicketService) publishEvent(ctx context.Context, name events.EventType, payload any) {
	if s.dispatcher == nil {
		return
	}
	event, err := events.NewEvent(name, payload)
	if err == nil {
		err = s.dispatcher.Publish(ctx, event)
	}
	if err != nil {
		s.logger.Error("publish event failed", zap.String("event", string(name)), zap.Error(err))
	}
}
