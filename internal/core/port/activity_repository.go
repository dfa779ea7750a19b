package port

import (
	"context"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
)

// ActivityRepository appends to and reads the admin audit log.
type ActivityRepository interface {
	Append(ctx context.Context, entry domain.AdminActivityLog) error
	List(ctx context.Context, limit, offset int) ([]domain.ActivityEntry, int, error)
}

// StatsRepository answers the aggregate counts behind the admin dashboard.
type StatsRepository interface {
	CountClients(ctx context.Context, role domain.Role) (int, error)
	CountOnboarding(ctx context.Context, status domain.OnboardingStatus) (int, error)
	// CountDocuments counts documents with the given status, or all documents when status is empty.
	CountDocuments(ctx context.Context, status domain.VerificationStatus) (int, error)
}
