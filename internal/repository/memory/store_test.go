package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/deskflow/ai-ticket-assistant/internal/domain"
	"github.com/deskflow/ai-ticket-assistant/internal/repository"
)

func seedUser(t *testing.T, users repository.UserRepository, email string, role domain.Role, skills ...string) *domain.User {
	t.Helper()
	user := &domain.User{Email: email, PasswordHash: "x", Role: role, Skills: skills}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

func TestUserCreateRejectsDuplicateEmail(t *testing.T) {
	store := NewStore()
	seedUser(t, store.Users(), "a@example.com", domain.RoleUser)

	err := store.Users().Create(context.Background(), &domain.User{Email: "A@example.com", Role: domain.RoleUser})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
}

func TestFindModeratorBySkillsFirstMatchWins(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	users := store.Users()
	seedUser(t, users, "admin@example.com", domain.RoleAdmin, "networking")
	seedUser(t, users, "bare@example.com", domain.RoleModerator)
	css := seedUser(t, users, "css@example.com", domain.RoleModerator, "CSS")
	first := seedUser(t, users, "net1@example.com", domain.RoleModerator, "Networking", "VPN")
	seedUser(t, users, "net2@example.com", domain.RoleModerator, "vpn")

	got, err := users.FindModeratorBySkills(ctx, []string{"vpn", "linux"})
	if err != nil {
		t.Fatalf("FindModeratorBySkills() error = %v", err)
	}
	if got.ID != first.ID {
		t.Fatalf("moderator = %s, want %s", got.Email, first.Email)
	}

	if _, err := users.FindModeratorBySkills(ctx, []string{"kubernetes"}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	fallback, err := users.FindModeratorBySkills(ctx, nil)
	if err != nil {
		t.Fatalf("FindModeratorBySkills(nil) error = %v", err)
	}
	if fallback.ID != css.ID {
		t.Fatalf("moderator = %s, want first moderator with skills %s", fallback.Email, css.Email)
	}
}

func TestFindModeratorBySkillsEmptyNeedsSkilledModerator(t *testing.T) {
	store := NewStore()
	seedUser(t, store.Users(), "bare@example.com", domain.RoleModerator)
	seedUser(t, store.Users(), "admin@example.com", domain.RoleAdmin, "react")

	if _, err := store.Users().FindModeratorBySkills(context.Background(), nil); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestFindFirstByRole(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	users := store.Users()
	if _, err := users.FindFirstByRole(ctx, domain.RoleAdmin); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	first := seedUser(t, users, "a1@example.com", domain.RoleAdmin)
	seedUser(t, users, "a2@example.com", domain.RoleAdmin)

	got, err := users.FindFirstByRole(ctx, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("FindFirstByRole() error = %v", err)
	}
	if got.ID != first.ID {
		t.Fatalf("admin = %s, want %s", got.Email, first.Email)
	}
}

func TestTicketListNewestFirstAndOwnerFilter(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	alice := seedUser(t, store.Users(), "alice@example.com", domain.RoleUser)
	bob := seedUser(t, store.Users(), "bob@example.com", domain.RoleUser)
	tickets := store.Tickets()

	for _, tc := range []struct{ title, owner string }{
		{"first", alice.ID}, {"second", bob.ID}, {"third", alice.ID},
	} {
		if err := tickets.Create(ctx, &domain.Ticket{Title: tc.title, Description: "d", CreatedBy: tc.owner, Status: domain.TicketStatusOpen}); err != nil {
			t.Fatalf("create ticket: %v", err)
		}
	}

	all, err := tickets.List(ctx, repository.TicketFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 || all[0].Title != "third" || all[2].Title != "first" {
		t.Fatalf("order = %v", titles(all))
	}

	own, err := tickets.List(ctx, repository.TicketFilter{CreatedBy: &alice.ID})
	if err != nil {
		t.Fatalf("List(owner) error = %v", err)
	}
	if len(own) != 2 || own[0].Title != "third" || own[1].Title != "first" {
		t.Fatalf("owner listing = %v", titles(own))
	}

	page, err := tickets.List(ctx, repository.TicketFilter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("List(page) error = %v", err)
	}
	if len(page) != 1 || page[0].Title != "second" {
		t.Fatalf("page = %v", titles(page))
	}
}

func TestTicketFindRespectsOwner(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	alice := seedUser(t, store.Users(), "alice@example.com", domain.RoleUser)
	bob := seedUser(t, store.Users(), "bob@example.com", domain.RoleUser)
	ticket := &domain.Ticket{Title: "t", Description: "d", CreatedBy: alice.ID}
	if err := store.Tickets().Create(ctx, ticket); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := store.Tickets().Find(ctx, ticket.ID, repository.TicketFilter{CreatedBy: &bob.ID}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("foreign find err = %v, want ErrNotFound", err)
	}
	if _, err := store.Tickets().Find(ctx, ticket.ID, repository.TicketFilter{CreatedBy: &alice.ID}); err != nil {
		t.Fatalf("own find err = %v", err)
	}
}

func TestTicketStatusNeverRegresses(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	tickets := store.Tickets()
	ticket := &domain.Ticket{Title: "t", Description: "d", Status: domain.TicketStatusOpen, Priority: domain.TicketPriorityMedium}
	if err := tickets.Create(ctx, ticket); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := tickets.AdvanceStatus(ctx, ticket.ID, domain.TicketStatusTodo); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if err := tickets.ApplyEnrichment(ctx, ticket.ID, domain.TicketPriorityHigh, "notes", []string{"vpn"}); err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if err := tickets.AdvanceStatus(ctx, ticket.ID, domain.TicketStatusTodo); err != nil {
		t.Fatalf("re-advance: %v", err)
	}

	got, err := tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.TicketStatusInProgress {
		t.Fatalf("status = %s, want IN_PROGRESS", got.Status)
	}
	if got.Priority != domain.TicketPriorityHigh || got.HelpfulNotes != "notes" || len(got.RelatedSkills) != 1 {
		t.Fatalf("enrichment not applied: %+v", got)
	}

	if err := tickets.AdvanceStatus(ctx, "missing", domain.TicketStatusTodo); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("missing err = %v, want ErrNotFound", err)
	}
}

func TestTicketAssignPopulatesAssignee(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	mod := seedUser(t, store.Users(), "mod@example.com", domain.RoleModerator)
	ticket := &domain.Ticket{Title: "t", Description: "d"}
	if err := store.Tickets().Create(ctx, ticket); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Tickets().Assign(ctx, ticket.ID, &mod.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	view, err := store.Tickets().Find(ctx, ticket.ID, repository.TicketFilter{})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if view.Assignee == nil || view.Assignee.Email != "mod@example.com" {
		t.Fatalf("assignee = %+v", view.Assignee)
	}

	if err := store.Tickets().Assign(ctx, ticket.ID, nil); err != nil {
		t.Fatalf("unassign: %v", err)
	}
	view, _ = store.Tickets().Find(ctx, ticket.ID, repository.TicketFilter{})
	if view.AssignedTo != nil || view.Assignee != nil {
		t.Fatalf("expected unassigned, got %+v", view)
	}
}

func titles(views []repository.TicketView) []string {
	out := make([]string, len(views))
	for i, v := range views {
		out[i] = v.Title
	}
	return out
}
