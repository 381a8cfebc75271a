// Package worker holds the workflow functions run in the background for ticket events.
package worker

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/deskflow/ai-ticket-assistant/internal/ai"
	"github.com/deskflow/ai-ticket-assistant/internal/domain"
	"github.com/deskflow/ai-ticket-assistant/internal/events"
	"github.com/deskflow/ai-ticket-assistant/internal/repository"
	"github.com/deskflow/ai-ticket-assistant/internal/service"
	"github.com/deskflow/ai-ticket-assistant/internal/workflow"
)

const TicketCreatedFunctionID = "on-ticket-created"

// TicketWorkerDeps bundles the collaborators of the ticket-created workflow.
type TicketWorkerDeps struct {
	Tickets       repository.TicketRepository
	Enricher      ai.Enricher
	Assignments   *service.AssignmentService
	Notifications *service.NotificationService
	Logger        *zap.Logger
	Retries       int
}

// StartTicketWorker registers the ticket-created function with the engine.
func StartTicketWorker(engine *workflow.Engine, deps TicketWorkerDeps) error {
	return engine.Register(TicketCreatedFunction(deps))
}

// TicketCreatedFunction triages a new ticket: mark it TODO, enrich it, assign it and notify
// the assignee.
func TicketCreatedFunction(deps TicketWorkerDeps) workflow.Function {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	w := &ticketWorker{deps: deps, logger: deps.Logger.Named("worker")}
	return workflow.Function{
		ID:      TicketCreatedFunctionID,
		Trigger: events.EventTicketCreated,
		Retries: deps.Retries,
		Handler: w.handle,
	}
}

type ticketWorker struct {
	deps   TicketWorkerDeps
	logger *zap.Logger
}

func (w *ticketWorker) handle(ctx context.Context, event events.Event, step *workflow.Step) error {
	var payload events.TicketCreatedPayload
	if err := event.Decode(&payload); err != nil {
		return workflow.NonRetriable(err)
	}
	logger := w.logger.With(zap.String("run_id", step.RunID()), zap.Int("attempt", step.Attempt()),
		zap.String("ticket_id", payload.TicketID))

	ticket, err := workflow.Run(ctx, step, "fetch-ticket", func(ctx context.Context) (domain.Ticket, error) {
		t, err := w.deps.Tickets.GetByID(ctx, payload.TicketID)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Ticket{}, workflow.NonRetriable(fmt.Errorf("ticket %s not found", payload.TicketID))
		}
		if err != nil {
			return domain.Ticket{}, err
		}
		return *t, nil
	})
	if err != nil {
		return err
	}

	if _, err := workflow.Run(ctx, step, "update-ticket-status", func(ctx context.Context) (bool, error) {
		return true, w.deps.Tickets.AdvanceStatus(ctx, ticket.ID, domain.TicketStatusTodo)
	}); err != nil {
		return err
	}

	// not memoized: a retried run asks the model again
	enrichment := w.analyze(ctx, logger, ticket)

	skills, err := workflow.Run(ctx, step, "ai-processing", func(ctx context.Context) ([]string, error) {
		if enrichment == nil {
			return []string{}, nil
		}
		related := enrichment.RelatedSkills
		if related == nil {
			related = []string{}
		}
		err := w.deps.Tickets.ApplyEnrichment(ctx, ticket.ID,
			domain.NormalizePriority(enrichment.Priority), enrichment.HelpfulNotes, related)
		return related, err
	})
	if err != nil {
		return err
	}

	assignee, err := workflow.Run(ctx, step, "assign-moderator", func(ctx context.Context) (*domain.Assignee, error) {
		assignee, err := w.deps.Assignments.AutoAssignTicket(ctx, ticket.ID, skills)
		if err == nil && assignee == nil {
			logger.Info("no moderator or admin available")
		}
		return assignee, err
	})
	if err != nil {
		return err
	}

	_, err = workflow.Run(ctx, step, "send-email-notification", func(ctx context.Context) (bool, error) {
		if assignee == nil {
			return false, nil
		}
		final, err := w.deps.Tickets.GetByID(ctx, ticket.ID)
		if err != nil {
			return false, err
		}
		return true, w.deps.Notifications.NotifyAssignment(ctx, assignee, final)
	})
	return err
}

func (w *ticketWorker) analyze(ctx context.Context, logger *zap.Logger, ticket domain.Ticket) *domain.Enrichment {
	if w.deps.Enricher == nil {
		return nil
	}
	enrichment, err := w.deps.Enricher.Analyze(ctx, ticket.Title, ticket.Description)
	if err != nil {
		logger.Warn("ticket enrichment failed; continuing without it", zap.Error(err))
		return nil
	}
	return enrichment
}
