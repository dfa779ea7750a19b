package port

import (
	"context"
	"time"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
)

// ClientRepository exposes persistence behavior for client accounts.
type ClientRepository interface {
	Create(ctx context.Context, client domain.Client) error
	GetByID(ctx context.Context, id string) (*domain.Client, error)
	GetByEmail(ctx context.Context, email string) (*domain.Client, error)
	UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate, at time.Time) (*domain.Client, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string, at time.Time) error
	MarkEmailVerified(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter domain.ClientFilter) ([]domain.ClientSummary, int, error)
}
