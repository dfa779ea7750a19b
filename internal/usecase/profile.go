package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/core/port"
	"github.com/oneeyedreaper/onboard/internal/repository"
)

// Profile is a client together with a summary of its onboarding.
type Profile struct {
	Client     domain.Client
	Onboarding *domain.OnboardingProgress
}

// ProfileService manages the signed-in client's own account.
type ProfileService struct {
	clients    port.ClientRepository
	onboarding port.OnboardingRepository
	documents  port.DocumentRepository
	tokens     *TokenService
	hasher     port.PasswordHasher
	policy     port.PasswordPolicy
	storage    port.ObjectStorage
	logger     *zap.Logger
	now        func() time.Time
}

// NewProfileService constructs a ProfileService.
func NewProfileService(
	clients port.ClientRepository,
	onboarding port.OnboardingRepository,
	documents port.DocumentRepository,
	tokens *TokenService,
	hasher port.PasswordHasher,
	policy port.PasswordPolicy,
	storage port.ObjectStorage,
	logger *zap.Logger,
) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{
		clients:    clients,
		onboarding: onboarding,
		documents:  documents,
		tokens:     tokens,
		hasher:     hasher,
		policy:     policy,
		storage:    storage,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock.
func (s *ProfileService) WithClock(clock func() time.Time) *ProfileService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// GetProfile returns the client and its onboarding progress, when one exists.
func (s *ProfileService) GetProfile(ctx context.Context, clientID string) (*Profile, error) {
	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, notFoundOr(err, "Client not found", "get profile")
	}
	client.PasswordHash = ""

	progress, err := s.onboarding.GetProgress(ctx, clientID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, internal("get onboarding progress", err)
		}
		progress = nil
	}
	return &Profile{Client: *client, Onboarding: progress}, nil
}

// UpdateProfile applies a partial profile change. An empty update returns the current profile.
func (s *ProfileService) UpdateProfile(ctx context.Context, clientID string, update domain.ProfileUpdate) (*domain.Client, error) {
	update = normalizeProfileUpdate(update)
	if errs := validateProfileUpdate(update); len(errs) > 0 {
		return nil, domain.Validation("Invalid profile", errs)
	}

	if update.IsEmpty() {
		client, err := s.clients.GetByID(ctx, clientID)
		if err != nil {
			return nil, notFoundOr(err, "Client not found", "get profile")
		}
		client.PasswordHash = ""
		return client, nil
	}

	client, err := s.clients.UpdateProfile(ctx, clientID, update, s.now())
	if err != nil {
		return nil, notFoundOr(err, "Client not found", "update profile")
	}
	client.PasswordHash = ""
	return client, nil
}

// ChangePassword replaces the password after checking the current one and signs the
// client out of every session.
func (s *ProfileService) ChangePassword(ctx context.Context, clientID, current, next string) error {
	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return notFoundOr(err, "Client not found", "get client")
	}

	ok, err := s.hasher.Verify(current, client.PasswordHash)
	if err != nil {
		return internal("verify password", err)
	}
	if !ok {
		return domain.Unauthorized("Current password is incorrect")
	}
	if err := checkPasswordPolicy(s.policy, next); err != nil {
		return err
	}
	if current == next {
		return domain.BadRequest("New password must differ from the current password")
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return internal("hash password", err)
	}
	if err := s.clients.UpdatePassword(ctx, clientID, hash, s.now()); err != nil {
		return notFoundOr(err, "Client not found", "update password")
	}

	revoked, err := s.tokens.RevokeAll(ctx, clientID)
	if err != nil {
		return err
	}
	s.logger.Info("password changed", zap.String("client_id", clientID), zap.Int("revoked_sessions", revoked))
	return nil
}

// DeleteAccount removes the client and everything it owns. Stored files are
// deleted afterwards on a best-effort basis.
func (s *ProfileService) DeleteAccount(ctx context.Context, clientID, password string) error {
	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return notFoundOr(err, "Client not found", "get client")
	}

	ok, err := s.hasher.Verify(password, client.PasswordHash)
	if err != nil {
		return internal("verify password", err)
	}
	if !ok {
		return domain.Unauthorized("Password is incorrect")
	}

	keys, err := s.documents.ListKeysForClient(ctx, clientID)
	if err != nil {
		return internal("list document keys", err)
	}

	if err := s.clients.Delete(ctx, clientID); err != nil {
		return notFoundOr(err, "Client not found", "delete client")
	}

	for _, key := range keys {
		if err := s.storage.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to delete stored object", zap.String("client_id", clientID), zap.String("key", key), zap.Error(err))
		}
	}

	s.logger.Info("account deleted", zap.String("client_id", clientID), zap.Int("objects", len(keys)))
	return nil
}

func normalizeProfileUpdate(u domain.ProfileUpdate) domain.ProfileUpdate {
	return domain.ProfileUpdate{
		FirstName: trimmedPtr(u.FirstName),
		LastName:  trimmedPtr(u.LastName),
		Company:   trimmedPtr(u.Company),
		Phone:     trimmedPtr(u.Phone),
		AvatarURL: trimmedPtr(u.AvatarURL),
	}
}

func validateProfileUpdate(u domain.ProfileUpdate) []domain.FieldError {
	var errs []domain.FieldError
	if u.FirstName != nil && *u.FirstName == "" {
		errs = append(errs, domain.FieldError{Field: "firstName", Message: "must not be empty"})
	}
	if u.LastName != nil && *u.LastName == "" {
		errs = append(errs, domain.FieldError{Field: "lastName", Message: "must not be empty"})
	}
	if u.AvatarURL != nil && *u.AvatarURL != "" && !strings.HasPrefix(*u.AvatarURL, "http") {
		errs = append(errs, domain.FieldError{Field: "avatarUrl", Message: "must be an http(s) URL"})
	}
	return errs
}
