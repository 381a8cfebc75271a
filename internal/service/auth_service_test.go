package service

import (
	"context"
	"testing"

	"github.com/deskflow/ai-ticket-assistant/internal/config"
	"github.com/deskflow/ai-ticket-assistant/internal/domain"
	"github.com/deskflow/ai-ticket-assistant/internal/repository/memory"
	apperrors "github.com/deskflow/ai-ticket-assistant/pkg/util"
)

func newAuthService(store *memory.Store) *AuthService {
	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "secret", AccessTokenTTLMinutes: 5, BcryptCost: 4}}
	return NewAuthService(cfg, AuthDependencies{UserRepo: store.Users()})
}

func statusOf(err error) int {
	return apperrors.StatusOf(err)
}

func TestSignupAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(memory.NewStore())

	signed, err := svc.Signup(ctx, " Alice@Example.com ", "secret1", []string{"Go", " go ", ""})
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	if signed.Token == "" || signed.User.Role != domain.RoleUser || signed.User.Email != "alice@example.com" {
		t.Fatalf("signup = %+v", signed)
	}
	if len(signed.User.Skills) != 1 || signed.User.Skills[0] != "Go" {
		t.Fatalf("skills = %v", signed.User.Skills)
	}

	claims, err := svc.TokenManager().ParseToken(signed.Token)
	if err != nil || claims.UserID != signed.User.ID {
		t.Fatalf("token claims = %+v, %v", claims, err)
	}

	if _, err := svc.Signup(ctx, "alice@example.com", "secret1", nil); statusOf(err) != 409 {
		t.Fatalf("duplicate signup err = %v, want 409", err)
	}

	logged, err := svc.Login(ctx, "ALICE@example.com", "secret1")
	if err != nil || logged.User.ID != signed.User.ID {
		t.Fatalf("Login() = %+v, %v", logged, err)
	}
	if _, err := svc.Login(ctx, "alice@example.com", "wrong"); statusOf(err) != 401 {
		t.Fatalf("bad password err = %v, want 401", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "secret1"); statusOf(err) != 401 {
		t.Fatalf("unknown email err = %v, want 401", err)
	}
}

func TestSignupValidation(t *testing.T) {
	svc := newAuthService(memory.NewStore())
	for _, in := range [][2]string{{"", "secret1"}, {"not-an-email", "secret1"}, {"a@example.com", "123"}} {
		if _, err := svc.Signup(context.Background(), in[0], in[1], nil); statusOf(err) != 400 {
			t.Fatalf("Signup(%q) err = %v, want 400", in[0], err)
		}
	}
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newAuthService(store)
	if _, err := svc.Signup(ctx, "mod@example.com", "secret1", nil); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	role := domain.RoleModerator
	updated, err := svc.UpdateUser(ctx, "mod@example.com", &role, []string{"Networking", "VPN"})
	if err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}
	if updated.Role != domain.RoleModerator || len(updated.Skills) != 2 {
		t.Fatalf("updated = %+v", updated)
	}

	match, err := store.Users().FindModeratorBySkills(ctx, []string{"vpn"})
	if err != nil || match.Email != "mod@example.com" {
		t.Fatalf("moderator lookup = %+v, %v", match, err)
	}

	bad := domain.Role("root")
	if _, err := svc.UpdateUser(ctx, "mod@example.com", &bad, nil); statusOf(err) != 400 {
		t.Fatalf("invalid role err = %v, want 400", err)
	}
	if _, err := svc.UpdateUser(ctx, "ghost@example.com", nil, nil); statusOf(err) != 404 {
		t.Fatalf("unknown user err = %v, want 404", err)
	}

	users, err := svc.ListUsers(ctx)
	if err != nil || len(users) != 1 {
		t.Fatalf("ListUsers() = %v, %v", users, err)
	}
}
