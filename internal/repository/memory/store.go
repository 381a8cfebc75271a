// Package memory provides process-local repositories used when no database is configured
// and as fakes in tests.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deskflow/ai-ticket-assistant/internal/domain"
	"github.com/deskflow/ai-ticket-assistant/internal/repository"
)

// Store holds users and tickets behind one lock so joins stay consistent.
type Store struct {
	mu      sync.RWMutex
	seq     int64
	users   map[string]*userRecord
	tickets map[string]*ticketRecord
	now     func() time.Time
}

type userRecord struct {
	seq  int64
	user domain.User
}

type ticketRecord struct {
	seq    int64
	ticket domain.Ticket
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:   make(map[string]*userRecord),
		tickets: make(map[string]*ticketRecord),
		now:     time.Now,
	}
}

// Users returns a UserRepository view of the store.
func (s *Store) Users() repository.UserRepository {
	return &userRepository{store: s}
}

// Tickets returns a TicketRepository view of the store.
func (s *Store) Tickets() repository.TicketRepository {
	return &ticketRepository{store: s}
}

func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}

type userRepository struct {
	store *Store
}

func (r *userRepository) Create(_ context.Context, user *domain.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.users {
		if strings.EqualFold(rec.user.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	now := s.now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = &userRecord{seq: s.nextSeq(), user: cloneUser(*user)}
	return nil
}

func (r *userRepository) Update(_ context.Context, user *domain.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	user.CreatedAt = rec.user.CreatedAt
	user.UpdatedAt = s.now()
	rec.user = cloneUser(*user)
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	user := cloneUser(rec.user)
	return &user, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.ordered() {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) List(_ context.Context) ([]domain.User, error) {
	return r.ordered(), nil
}

func (r *userRepository) FindModeratorBySkills(_ context.Context, related []string) (*domain.User, error) {
	matcher := domain.SkillMatcher(related)
	for _, user := range r.ordered() {
		if user.Role == domain.RoleModerator && domain.HasMatchingSkill(matcher, user.Skills) {
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) FindFirstByRole(_ context.Context, role domain.Role) (*domain.User, error) {
	for _, user := range r.ordered() {
		if user.Role == role {
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

// ordered returns copies of all users, oldest first.
func (r *userRepository) ordered() []domain.User {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := make([]*userRecord, 0, len(s.users))
	for _, rec := range s.users {
		recs = append(recs, rec)
	}
	slices.SortFunc(recs, func(a, b *userRecord) int { return int(a.seq - b.seq) })
	out := make([]domain.User, len(recs))
	for i, rec := range recs {
		out[i] = cloneUser(rec.user)
	}
	return out
}

type ticketRepository struct {
	store *Store
}

func (r *ticketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	if ticket.RelatedSkills == nil {
		ticket.RelatedSkills = []string{}
	}
	s.tickets[ticket.ID] = &ticketRecord{seq: s.nextSeq(), ticket: cloneTicket(*ticket)}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	view, err := r.Find(ctx, id, repository.TicketFilter{})
	if err != nil {
		return nil, err
	}
	return &view.Ticket, nil
}

func (r *ticketRepository) Find(_ context.Context, id string, filter repository.TicketFilter) (*repository.TicketView, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.tickets[id]
	if !ok || !matches(rec.ticket, filter) {
		return nil, repository.ErrNotFound
	}
	view := s.viewLocked(rec.ticket)
	return &view, nil
}

func (r *ticketRepository) List(_ context.Context, filter repository.TicketFilter) ([]repository.TicketView, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := make([]*ticketRecord, 0, len(s.tickets))
	for _, rec := range s.tickets {
		if matches(rec.ticket, filter) {
			recs = append(recs, rec)
		}
	}
	// newest first; seq breaks ties between identical timestamps
	slices.SortFunc(recs, func(a, b *ticketRecord) int { return int(b.seq - a.seq) })

	offset := max(filter.Offset, 0)
	if offset > len(recs) {
		offset = len(recs)
	}
	recs = recs[offset:]
	if filter.Limit > 0 && filter.Limit < len(recs) {
		recs = recs[:filter.Limit]
	}

	out := make([]repository.TicketView, len(recs))
	for i, rec := range recs {
		out[i] = s.viewLocked(rec.ticket)
	}
	return out, nil
}

func (r *ticketRepository) AdvanceStatus(_ context.Context, id string, status domain.TicketStatus) error {
	return r.update(id, func(t *domain.Ticket) {
		if domain.CanAdvance(t.Status, status) {
			t.Status = status
		}
	})
}

func (r *ticketRepository) ApplyEnrichment(_ context.Context, id string, priority domain.TicketPriority, notes string, skills []string) error {
	return r.update(id, func(t *domain.Ticket) {
		t.Priority = priority
		t.HelpfulNotes = notes
		t.RelatedSkills = slices.Clone(skills)
		if t.RelatedSkills == nil {
			t.RelatedSkills = []string{}
		}
		if domain.CanAdvance(t.Status, domain.TicketStatusInProgress) {
			t.Status = domain.TicketStatusInProgress
		}
	})
}

func (r *ticketRepository) Assign(_ context.Context, id string, assigneeID *string) error {
	return r.update(id, func(t *domain.Ticket) {
		if assigneeID == nil {
			t.AssignedTo = nil
			return
		}
		v := *assigneeID
		t.AssignedTo = &v
	})
}

func (r *ticketRepository) update(id string, mutate func(*domain.Ticket)) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tickets[id]
	if !ok {
		return repository.ErrNotFound
	}
	mutate(&rec.ticket)
	rec.ticket.UpdatedAt = s.now()
	return nil
}

func (s *Store) viewLocked(ticket domain.Ticket) repository.TicketView {
	view := repository.TicketView{Ticket: cloneTicket(ticket)}
	if ticket.AssignedTo != nil {
		if rec, ok := s.users[*ticket.AssignedTo]; ok {
			view.Assignee = &domain.Assignee{ID: rec.user.ID, Email: rec.user.Email}
		}
	}
	return view
}

func matches(ticket domain.Ticket, filter repository.TicketFilter) bool {
	return filter.CreatedBy == nil || ticket.CreatedBy == *filter.CreatedBy
}

func cloneUser(u domain.User) domain.User {
	u.Skills = slices.Clone(u.Skills)
	return u
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	t.RelatedSkills = slices.Clone(t.RelatedSkills)
	if t.AssignedTo != nil {
		v := *t.AssignedTo
		t.AssignedTo = &v
	}
	return t
}
