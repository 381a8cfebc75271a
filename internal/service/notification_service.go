package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/deskflow/ai-ticket-assistant/internal/domain"
	"github.com/deskflow/ai-ticket-assistant/internal/mail"
)

// AssignmentSubject is the subject of the email sent to a new assignee.
const AssignmentSubject = "Ticket Assigned"

// NotificationService tells staff about tickets routed to them.
type NotificationService struct {
	mailer mail.Mailer
	logger *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(mailer mail.Mailer, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{mailer: mailer, logger: logger}
}

// NotifyAssignment emails assignee about ticket. A nil assignee is a no-op.
func (n *NotificationService) NotifyAssignment(ctx context.Context, assignee *domain.Assignee, ticket *domain.Ticket) error {
	if assignee == nil || ticket == nil {
		return nil
	}
	body := "A new ticket is assigned to you " + ticket.Title
	if err := n.mailer.Send(ctx, assignee.Email, AssignmentSubject, body); err != nil {
		return err
	}
	n.logger.Debug("assignment notification sent",
		zap.String("ticket_id", ticket.ID),
		zap.String("assignee_id", assignee.ID))
	return nil
}
