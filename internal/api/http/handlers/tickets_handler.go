package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/ai-ticket-assistant/internal/api/dto"
	"github.com/deskflow/ai-ticket-assistant/internal/auth"
	"github.com/deskflow/ai-ticket-assistant/internal/domain"
	"github.com/deskflow/ai-ticket-assistant/internal/service"
	apperrors "github.com/deskflow/ai-ticket-assistant/pkg/util"
)

// TicketsHandler manages ticket endpoints for every role.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), user, req.Title, req.Description)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.CreateTicketResponse{
		Message: "Ticket created and processing started",
		Ticket:  *ticket,
	})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	pagination, err := parsePagination(c)
	if err != nil {
		return err
	}
	page, err := h.service.ListTickets(c.UserContext(), user, pagination)
	if err != nil {
		return err
	}
	return c.JSON(dto.ProjectTickets(page.Tickets, page.Projection))
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	view, projection, err := h.service.GetTicket(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketResponse{Ticket: dto.ProjectTicket(*view, projection)})
}

func parsePagination(c *fiber.Ctx) (service.Pagination, error) {
	limit, err := parseInt(c.Query("limit"))
	if err != nil {
		return service.Pagination{}, apperrors.NewValidationError("invalid limit", map[string]any{"limit": c.Query("limit")})
	}
	offset, err := parseInt(c.Query("offset"))
	if err != nil {
		return service.Pagination{}, apperrors.NewValidationError("invalid offset", map[string]any{"offset": c.Query("offset")})
	}
	return service.Pagination{Limit: limit, Offset: offset}, nil
}

func parseInt(val string) (int, error) {
	if val == "" {
		return 0, nil
	}
	return strconv.Atoi(val)
}

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	session, ok := auth.SessionFromContext(c.UserContext())
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return session.User, nil
}
