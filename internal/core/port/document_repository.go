package port

import (
	"context"
	"time"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
)

// DocumentRepository persists document metadata and review state.
type DocumentRepository interface {
	Create(ctx context.Context, doc domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	GetWithOwner(ctx context.Context, id string) (*domain.DocumentWithOwner, error)
	List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error)
	ListWithOwner(ctx context.Context, filter domain.DocumentFilter) ([]domain.DocumentWithOwner, int, error)
	DeleteOwned(ctx context.Context, id string, clientID string) error
	ListKeysForClient(ctx context.Context, clientID string) ([]string, error)
	UpdateStatus(ctx context.Context, id string, status domain.VerificationStatus, reason *string, at time.Time) error
	// ApprovePending approves the PENDING documents among ids and returns the ids it changed.
	ApprovePending(ctx context.Context, ids []string, at time.Time) ([]string, error)
	// ApprovePendingForClient approves every PENDING document of a client and returns the ids it changed.
	ApprovePendingForClient(ctx context.Context, clientID string, at time.Time) ([]string, error)
}
