package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/core/port"
	"github.com/oneeyedreaper/onboard/internal/infra/logger"
	"github.com/oneeyedreaper/onboard/internal/repository"
)

// AdminAccount describes the administrator created by EnsureAdmin.
type AdminAccount struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AdminSeeder provisions administrator accounts out of band.
type AdminSeeder struct {
	clients port.ClientRepository
	hasher  port.PasswordHasher
	policy  port.PasswordPolicy
	logger  *zap.Logger
	now     func() time.Time
}

// NewAdminSeeder constructs an AdminSeeder.
func NewAdminSeeder(clients port.ClientRepository, hasher port.PasswordHasher, policy port.PasswordPolicy, logger *zap.Logger) *AdminSeeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminSeeder{
		clients: clients,
		hasher:  hasher,
		policy:  policy,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// EnsureAdmin creates the admin account unless it already exists. It reports whether
// a new account was created. An existing non-admin account with the same email is a conflict.
func (s *AdminSeeder) EnsureAdmin(ctx context.Context, in AdminAccount) (*domain.Client, bool, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" {
		return nil, false, domain.Validation("Invalid admin account", []domain.FieldError{{Field: "email", Message: "Email is required"}})
	}

	existing, err := s.clients.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if !existing.IsAdmin() {
			return nil, false, domain.Conflict("A non-admin account already uses this email")
		}
		return existing, false, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, false, internal("lookup admin", err)
	}

	if err := checkPasswordPolicy(s.policy, in.Password); err != nil {
		return nil, false, err
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, false, internal("hash password", err)
	}

	firstName := strings.TrimSpace(in.FirstName)
	if firstName == "" {
		firstName = "Admin"
	}
	now := s.now()
	admin := domain.Client{
		ID:            newID(),
		Email:         email,
		PasswordHash:  hash,
		FirstName:     firstName,
		LastName:      strings.TrimSpace(in.LastName),
		EmailVerified: true,
		Role:          domain.RoleAdmin,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.clients.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, false, domain.Conflict("Email already registered")
		}
		return nil, false, internal("create admin", err)
	}

	s.logger.Info("admin account created", zap.String("client_id", admin.ID), zap.String("email", logger.MaskEmail(email)))
	return &admin, true, nil
}
