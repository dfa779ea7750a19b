package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/core/port"
	"github.com/oneeyedreaper/onboard/internal/infra/security"
	"github.com/oneeyedreaper/onboard/internal/repository"
)

const oneTimeTokenBytes = 32

var (
	errInvalidRefresh = domain.Unauthorized("Invalid refresh token")
	errExpiredRefresh = domain.Unauthorized("Refresh token expired")
)

// TokenService issues token pairs, rotates refresh tokens and manages one-time tokens.
type TokenService struct {
	issuer port.TokenIssuer
	tokens port.TokenRepository
	tx     port.TxManager
	logger *zap.Logger
	now    func() time.Time
}

// NewTokenService constructs a TokenService.
func NewTokenService(issuer port.TokenIssuer, tokens port.TokenRepository, tx port.TxManager, logger *zap.Logger) *TokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenService{
		issuer: issuer,
		tokens: tokens,
		tx:     tx,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the clock used for expiry checks.
func (s *TokenService) WithClock(clock func() time.Time) *TokenService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// IssuePair signs an access and a refresh token and persists the refresh token.
func (s *TokenService) IssuePair(ctx context.Context, client domain.Client) (domain.TokenPair, error) {
	return s.issuePair(ctx, s.tokens, client.ID, client.Email)
}

func (s *TokenService) issuePair(ctx context.Context, tokens port.TokenRepository, clientID, email string) (domain.TokenPair, error) {
	access, accessExp, err := s.issuer.Issue(clientID, email, domain.TokenTypeAccess)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}

	refresh, refreshExp, err := s.issuer.Issue(clientID, email, domain.TokenTypeRefresh)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}

	if err := tokens.Create(ctx, domain.TokenKindRefresh, domain.StoredToken{
		ID:        newID(),
		ClientID:  clientID,
		TokenHash: security.HashToken(refresh),
		ExpiresAt: refreshExp,
		CreatedAt: s.now(),
	}); err != nil {
		return domain.TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	return domain.TokenPair{
		AccessToken:           access,
		RefreshToken:          refresh,
		AccessTokenExpiresAt:  accessExp,
		RefreshTokenExpiresAt: refreshExp,
	}, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is consumed;
// presenting it again fails.
func (s *TokenService) Refresh(ctx context.Context, raw string) (domain.TokenPair, error) {
	if raw == "" {
		return domain.TokenPair{}, domain.BadRequest("Refresh token is required")
	}

	claims, err := s.issuer.Verify(raw, domain.TokenTypeRefresh)
	if err != nil {
		if errors.Is(err, domain.ErrTokenExpired) {
			return domain.TokenPair{}, errExpiredRefresh
		}
		return domain.TokenPair{}, errInvalidRefresh
	}

	stored, err := s.tokens.GetByHash(ctx, domain.TokenKindRefresh, security.HashToken(raw))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.TokenPair{}, errInvalidRefresh
		}
		return domain.TokenPair{}, internal("lookup refresh token", err)
	}
	if stored.ClientID != claims.ClientID {
		return domain.TokenPair{}, errInvalidRefresh
	}

	if stored.IsExpired(s.now()) {
		if err := s.tokens.Delete(ctx, domain.TokenKindRefresh, stored.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("failed to delete expired refresh token", zap.String("client_id", stored.ClientID), zap.Error(err))
		}
		return domain.TokenPair{}, errExpiredRefresh
	}

	var pair domain.TokenPair
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		if err := repos.Tokens.Delete(ctx, domain.TokenKindRefresh, stored.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return errInvalidRefresh
			}
			return err
		}
		var err error
		pair, err = s.issuePair(ctx, repos.Tokens, claims.ClientID, claims.Email)
		return err
	})
	if err != nil {
		return domain.TokenPair{}, internal("rotate refresh token", err)
	}
	return pair, nil
}

// Authenticate verifies an access token.
func (s *TokenService) Authenticate(raw string) (*domain.TokenClaims, error) {
	claims, err := s.issuer.Verify(raw, domain.TokenTypeAccess)
	if err != nil {
		if errors.Is(err, domain.ErrTokenExpired) {
			return nil, domain.Unauthorized("Access token expired")
		}
		return nil, domain.Unauthorized("Invalid access token")
	}
	return claims, nil
}

// Revoke deletes one refresh token of clientID. Unknown tokens are ignored.
func (s *TokenService) Revoke(ctx context.Context, clientID, raw string) error {
	stored, err := s.tokens.GetByHash(ctx, domain.TokenKindRefresh, security.HashToken(raw))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return internal("lookup refresh token", err)
	}
	if stored.ClientID != clientID {
		return nil
	}
	if err := s.tokens.Delete(ctx, domain.TokenKindRefresh, stored.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return internal("delete refresh token", err)
	}
	return nil
}

// RevokeAll deletes every refresh token of clientID.
func (s *TokenService) RevokeAll(ctx context.Context, clientID string) (int, error) {
	n, err := s.tokens.DeleteForClient(ctx, domain.TokenKindRefresh, clientID)
	if err != nil {
		return 0, internal("delete refresh tokens", err)
	}
	return n, nil
}

// issueOneTime replaces any outstanding token of kind for clientID and returns the new raw value.
func (s *TokenService) issueOneTime(ctx context.Context, tokens port.TokenRepository, kind domain.TokenKind, clientID string, ttl time.Duration) (string, error) {
	if _, err := tokens.DeleteForClient(ctx, kind, clientID); err != nil {
		return "", fmt.Errorf("delete previous %s tokens: %w", kind, err)
	}

	raw, err := security.GenerateSecureToken(oneTimeTokenBytes)
	if err != nil {
		return "", fmt.Errorf("generate %s token: %w", kind, err)
	}

	now := s.now()
	if err := tokens.Create(ctx, kind, domain.StoredToken{
		ID:        newID(),
		ClientID:  clientID,
		TokenHash: security.HashToken(raw),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}); err != nil {
		return "", fmt.Errorf("store %s token: %w", kind, err)
	}
	return raw, nil
}

// lookupOneTime returns the live token matching raw. Missing and expired tokens both
// yield invalid; expired rows are removed.
func (s *TokenService) lookupOneTime(ctx context.Context, kind domain.TokenKind, raw string, invalid error) (*domain.StoredToken, error) {
	if raw == "" {
		return nil, invalid
	}

	stored, err := s.tokens.GetByHash(ctx, kind, security.HashToken(raw))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid
		}
		return nil, internal(fmt.Sprintf("lookup %s token", kind), err)
	}

	if stored.IsExpired(s.now()) {
		if err := s.tokens.Delete(ctx, kind, stored.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("failed to delete expired token", zap.String("kind", string(kind)), zap.Error(err))
		}
		return nil, invalid
	}
	return stored, nil
}
