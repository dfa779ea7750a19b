package usecase

import (
	"context"
	"testing"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/infra/security"
)

func newSeeder(h *harness) *AdminSeeder {
	return NewAdminSeeder(h.store.repos().Clients, plainHasher{}, security.DefaultPasswordValidator(), nil)
}

func TestEnsureAdminCreatesVerifiedAdmin(t *testing.T) {
	h := newHarness(t)
	seeder := newSeeder(h)

	admin, created, err := seeder.EnsureAdmin(context.Background(), AdminAccount{Email: " Root@Example.com ", Password: "Secure123"})
	if err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	if !created {
		t.Fatal("expected a new account")
	}
	if admin.Email != "root@example.com" || admin.Role != domain.RoleAdmin || !admin.EmailVerified {
		t.Fatalf("unexpected admin %+v", admin)
	}
	if admin.FirstName != "Admin" {
		t.Fatalf("expected default first name, got %q", admin.FirstName)
	}

	again, created, err := seeder.EnsureAdmin(context.Background(), AdminAccount{Email: "root@example.com", Password: "Secure123"})
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if created || again.ID != admin.ID {
		t.Fatalf("expected existing admin to be returned, created=%v", created)
	}
}

func TestEnsureAdminRejectsExistingClientEmail(t *testing.T) {
	h := newHarness(t)
	h.signup(t, "taken@example.com")

	_, _, err := newSeeder(h).EnsureAdmin(context.Background(), AdminAccount{Email: "taken@example.com", Password: "Secure123"})
	requireKind(t, err, domain.KindConflict)
}

func TestEnsureAdminAppliesPasswordPolicy(t *testing.T) {
	h := newHarness(t)

	_, _, err := newSeeder(h).EnsureAdmin(context.Background(), AdminAccount{Email: "root@example.com", Password: "short"})
	requireKind(t, err, domain.KindValidation)
}
