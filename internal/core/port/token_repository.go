package port

import (
	"context"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
)

// TokenRepository manages refresh, password-reset and email-verification token rows.
type TokenRepository interface {
	Create(ctx context.Context, kind domain.TokenKind, token domain.StoredToken) error
	GetByHash(ctx context.Context, kind domain.TokenKind, hash string) (*domain.StoredToken, error)
	// Delete removes one token and fails with repository.ErrNotFound when no row was removed.
	Delete(ctx context.Context, kind domain.TokenKind, id string) error
	DeleteForClient(ctx context.Context, kind domain.TokenKind, clientID string) (int, error)
}
