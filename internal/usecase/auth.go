package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/core/port"
	"github.com/oneeyedreaper/onboard/internal/infra/logger"
	"github.com/oneeyedreaper/onboard/internal/repository"
)

var (
	errInvalidCredentials = domain.Unauthorized("Invalid email or password")
	errInvalidVerifyToken = domain.BadRequest("Invalid or expired verification token")
	errInvalidResetToken  = domain.BadRequest("Invalid or expired reset token")
)

// AuthSettings tunes the account flows.
type AuthSettings struct {
	FrontendURL          string
	PasswordResetTTL     time.Duration
	EmailVerificationTTL time.Duration
}

// SignupInput carries the fields of a new account.
type SignupInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Company   *string
	Phone     *string
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	Client domain.Client
	Tokens domain.TokenPair
}

// AuthService coordinates signup, login and the token based account flows.
type AuthService struct {
	clients  port.ClientRepository
	tx       port.TxManager
	tokens   *TokenService
	hasher   port.PasswordHasher
	policy   port.PasswordPolicy
	mailer   port.Mailer
	events   port.EventPublisher
	settings AuthSettings
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthService constructs an AuthService.
func NewAuthService(
	clients port.ClientRepository,
	tx port.TxManager,
	tokens *TokenService,
	hasher port.PasswordHasher,
	policy port.PasswordPolicy,
	mailer port.Mailer,
	events port.EventPublisher,
	settings AuthSettings,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.PasswordResetTTL <= 0 {
		settings.PasswordResetTTL = time.Hour
	}
	if settings.EmailVerificationTTL <= 0 {
		settings.EmailVerificationTTL = 24 * time.Hour
	}
	return &AuthService{
		clients:  clients,
		tx:       tx,
		tokens:   tokens,
		hasher:   hasher,
		policy:   policy,
		mailer:   mailer,
		events:   events,
		settings: settings,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock.
func (s *AuthService) WithClock(clock func() time.Time) *AuthService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Signup creates a client together with its onboarding progress and signs it in.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" {
		return nil, domain.Validation("Invalid signup request", []domain.FieldError{{Field: "email", Message: "Email is required"}})
	}
	if err := s.checkPassword(in.Password); err != nil {
		return nil, err
	}

	if _, err := s.clients.GetByEmail(ctx, email); err == nil {
		return nil, domain.Conflict("An account with this email already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, internal("lookup client", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, internal("hash password", err)
	}

	now := s.now()
	client := domain.Client{
		ID:           newID(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Company:      trimmedPtr(in.Company),
		Phone:        trimmedPtr(in.Phone),
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var (
		pair        domain.TokenPair
		verifyToken string
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		if err := repos.Clients.Create(ctx, client); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return domain.Conflict("An account with this email already exists")
			}
			return err
		}
		if err := repos.Onboarding.CreateProgress(ctx, domain.OnboardingProgress{
			ID:          newID(),
			ClientID:    client.ID,
			CurrentStep: 1,
			Status:      domain.OnboardingPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}); err != nil {
			return err
		}

		var err error
		if pair, err = s.tokens.issuePair(ctx, repos.Tokens, client.ID, client.Email); err != nil {
			return err
		}
		verifyToken, err = s.tokens.issueOneTime(ctx, repos.Tokens, domain.TokenKindEmailVerification, client.ID, s.settings.EmailVerificationTTL)
		return err
	})
	if err != nil {
		return nil, internal("create account", err)
	}

	if err := s.mailer.SendVerificationEmail(ctx, client.Email, client.FirstName, s.link("/verify-email", verifyToken)); err != nil {
		s.logger.Warn("failed to send verification email", zap.String("email", logger.MaskEmail(client.Email)), zap.Error(err))
	}
	if err := s.events.PublishClientRegistered(ctx, domain.ClientRegisteredEvent{
		EventID:      newID(),
		ClientID:     client.ID,
		Email:        client.Email,
		RegisteredAt: now,
	}); err != nil {
		s.logger.Warn("failed to publish client registered event", zap.String("client_id", client.ID), zap.Error(err))
	}

	s.logger.Info("client registered", zap.String("client_id", client.ID))
	client.PasswordHash = ""
	return &AuthResult{Client: client, Tokens: pair}, nil
}

// Login verifies credentials and issues a token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, errInvalidCredentials
	}

	client, err := s.clients.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, internal("lookup client", err)
	}

	ok, err := s.hasher.Verify(password, client.PasswordHash)
	if err != nil {
		return nil, internal("verify password", err)
	}
	if !ok {
		return nil, errInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(ctx, *client)
	if err != nil {
		return nil, internal("issue tokens", err)
	}

	result := &AuthResult{Client: *client, Tokens: pair}
	result.Client.PasswordHash = ""
	return result, nil
}

// Refresh rotates a refresh token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	return s.tokens.Refresh(ctx, refreshToken)
}

// Logout revokes refreshToken, or every refresh token of the client when it is empty.
func (s *AuthService) Logout(ctx context.Context, clientID, refreshToken string) error {
	if refreshToken == "" {
		_, err := s.tokens.RevokeAll(ctx, clientID)
		return err
	}
	return s.tokens.Revoke(ctx, clientID, refreshToken)
}

// SendVerification issues a fresh verification token and mails it.
func (s *AuthService) SendVerification(ctx context.Context, clientID string) error {
	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return notFoundOr(err, "Client not found", "lookup client")
	}
	if client.EmailVerified {
		return domain.BadRequest("Email is already verified")
	}

	raw, err := s.tokens.issueOneTime(ctx, s.tokens.tokens, domain.TokenKindEmailVerification, client.ID, s.settings.EmailVerificationTTL)
	if err != nil {
		return internal("issue verification token", err)
	}

	if err := s.mailer.SendVerificationEmail(ctx, client.Email, client.FirstName, s.link("/verify-email", raw)); err != nil {
		return domain.Internal("Failed to send verification email", err)
	}
	return nil
}

// VerifyEmail consumes a verification token and marks the owner verified.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	stored, err := s.tokens.lookupOneTime(ctx, domain.TokenKindEmailVerification, token, errInvalidVerifyToken)
	if err != nil {
		return err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		if err := repos.Clients.MarkEmailVerified(ctx, stored.ClientID, s.now()); err != nil {
			return err
		}
		_, err := repos.Tokens.DeleteForClient(ctx, domain.TokenKindEmailVerification, stored.ClientID)
		return err
	})
	if err != nil {
		return notFoundOr(err, "Client not found", "verify email")
	}
	return nil
}

// ForgotPassword mails a reset link when email belongs to a client. The outcome is
// the same whether or not it does.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	client, err := s.clients.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Debug("password reset requested for unknown email", zap.String("email", logger.MaskEmail(email)))
			return nil
		}
		return internal("lookup client", err)
	}

	raw, err := s.tokens.issueOneTime(ctx, s.tokens.tokens, domain.TokenKindPasswordReset, client.ID, s.settings.PasswordResetTTL)
	if err != nil {
		return internal("issue reset token", err)
	}

	if err := s.mailer.SendPasswordResetEmail(ctx, client.Email, client.FirstName, s.link("/reset-password", raw)); err != nil {
		s.logger.Warn("failed to send password reset email", zap.String("client_id", client.ID), zap.Error(err))
	}
	return nil
}

// ResetPassword consumes a reset token, sets a new password and signs the client out everywhere.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	stored, err := s.tokens.lookupOneTime(ctx, domain.TokenKindPasswordReset, token, errInvalidResetToken)
	if err != nil {
		return err
	}
	if err := s.checkPassword(newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return internal("hash password", err)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		if err := repos.Clients.UpdatePassword(ctx, stored.ClientID, hash, s.now()); err != nil {
			return err
		}
		if _, err := repos.Tokens.DeleteForClient(ctx, domain.TokenKindPasswordReset, stored.ClientID); err != nil {
			return err
		}
		_, err := repos.Tokens.DeleteForClient(ctx, domain.TokenKindRefresh, stored.ClientID)
		return err
	})
	if err != nil {
		return notFoundOr(err, "Client not found", "reset password")
	}

	s.logger.Info("password reset", zap.String("client_id", stored.ClientID))
	return nil
}

func (s *AuthService) checkPassword(password string) error {
	return checkPasswordPolicy(s.policy, password)
}

func checkPasswordPolicy(policy port.PasswordPolicy, password string) error {
	if err := policy.Validate(password); err != nil {
		return domain.Validation("Password does not meet requirements", []domain.FieldError{{Field: "password", Message: err.Error()}})
	}
	return nil
}

func (s *AuthService) link(path, token string) string {
	base := strings.TrimRight(s.settings.FrontendURL, "/")
	return fmt.Sprintf("%s%s?token=%s", base, path, url.QueryEscape(token))
}
