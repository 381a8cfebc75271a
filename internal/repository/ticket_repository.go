package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deskflow/ai-ticket-assistant/internal/domain"
)

// TicketFilter narrows ticket listings. A zero Limit means no limit.
type TicketFilter struct {
	CreatedBy *string
	Limit     int
	Offset    int
}

// TicketView is a ticket joined with its assignee, if any.
type TicketView struct {
	domain.Ticket
	Assignee *domain.Assignee
}

// TicketRepository encapsulates ticket persistence.
//
// The update methods write only the columns their workflow step owns, so re-running a step
// rewrites the same values. Status only ever moves forward.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	Find(ctx context.Context, id string, filter TicketFilter) (*TicketView, error)
	List(ctx context.Context, filter TicketFilter) ([]TicketView, error)
	AdvanceStatus(ctx context.Context, id string, status domain.TicketStatus) error
	ApplyEnrichment(ctx context.Context, id string, priority domain.TicketPriority, notes string, skills []string) error
	Assign(ctx context.Context, id string, assigneeID *string) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `t.id, t.title, t.description, t.status, t.priority, t.helpful_notes, t.related_skills,
               t.created_by, t.assigned_to, t.created_at, t.updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, status, priority, helpful_notes, related_skills, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	skills := ticket.RelatedSkills
	if skills == nil {
		skills = []string{}
	}
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.HelpfulNotes,
		skills,
		ticket.CreatedBy,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	view, err := r.Find(ctx, id, TicketFilter{})
	if err != nil {
		return nil, err
	}
	return &view.Ticket, nil
}

func (r *ticketRepository) Find(ctx context.Context, id string, filter TicketFilter) (*TicketView, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	query, args := buildTicketQuery(filter, &id)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	views, err := scanTicketViews(rows)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, ErrNotFound
	}
	return &views[0], nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]TicketView, error) {
	query, args := buildTicketQuery(filter, nil)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTicketViews(rows)
}

func (r *ticketRepository) AdvanceStatus(ctx context.Context, id string, status domain.TicketStatus) error {
	const query = `
        UPDATE tickets SET status=$2, updated_at=NOW()
        WHERE id=$1 AND status = ANY($3)`
	if !validID(id) {
		return ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, query, id, status, statusStrings(domain.StatusesBefore(status)))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return r.ensureExists(ctx, id)
	}
	return nil
}

func (r *ticketRepository) ApplyEnrichment(ctx context.Context, id string, priority domain.TicketPriority, notes string, skills []string) error {
	const query = `
        UPDATE tickets SET priority=$2, helpful_notes=$3, related_skills=$4,
            status = CASE WHEN status = ANY($5) THEN $6 ELSE status END,
            updated_at=NOW()
        WHERE id=$1`
	if !validID(id) {
		return ErrNotFound
	}
	if skills == nil {
		skills = []string{}
	}
	cmd, err := r.pool.Exec(ctx, query, id, priority, notes, skills,
		statusStrings(domain.StatusesBefore(domain.TicketStatusInProgress)), domain.TicketStatusInProgress)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) Assign(ctx context.Context, id string, assigneeID *string) error {
	const query = `UPDATE tickets SET assigned_to=$2, updated_at=NOW() WHERE id=$1`
	if !validID(id) {
		return ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, query, id, assigneeID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) ensureExists(ctx context.Context, id string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

// buildTicketQuery renders the listing query, newest first. A nil id lists; otherwise it selects one.
func buildTicketQuery(filter TicketFilter, id *string) (string, []any) {
	base := `SELECT ` + ticketColumns + `, u.email
             FROM tickets t LEFT JOIN users u ON u.id = t.assigned_to`
	clauses := []string{"1=1"}
	args := []any{}

	if id != nil {
		args = append(args, *id)
		clauses = append(clauses, fmt.Sprintf("t.id=$%d", len(args)))
	}
	if filter.CreatedBy != nil {
		args = append(args, *filter.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("t.created_by=$%d", len(args)))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY t.created_at DESC`, base, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}
	return query, args
}

func scanTicketViews(rows pgx.Rows) ([]TicketView, error) {
	var result []TicketView
	for rows.Next() {
		var (
			view          TicketView
			assigneeEmail *string
		)
		if err := rows.Scan(
			&view.ID,
			&view.Title,
			&view.Description,
			&view.Status,
			&view.Priority,
			&view.HelpfulNotes,
			&view.RelatedSkills,
			&view.CreatedBy,
			&view.AssignedTo,
			&view.CreatedAt,
			&view.UpdatedAt,
			&assigneeEmail,
		); err != nil {
			return nil, err
		}
		if view.AssignedTo != nil && assigneeEmail != nil {
			view.Assignee = &domain.Assignee{ID: *view.AssignedTo, Email: *assigneeEmail}
		}
		result = append(result, view)
	}
	return result, rows.Err()
}

func statusStrings(statuses []domain.TicketStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
