package port

import (
	"context"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
)

// OnboardingRepository persists the step catalog and per-client progress.
type OnboardingRepository interface {
	ListSteps(ctx context.Context) ([]domain.OnboardingStep, error)
	CreateProgress(ctx context.Context, progress domain.OnboardingProgress) error
	GetProgress(ctx context.Context, clientID string) (*domain.OnboardingProgress, error)
	// GetProgressForUpdate locks the progress row until the surrounding transaction ends.
	GetProgressForUpdate(ctx context.Context, clientID string) (*domain.OnboardingProgress, error)
	UpdateProgress(ctx context.Context, progress domain.OnboardingProgress) error
	ListStepProgress(ctx context.Context, progressID string) ([]domain.StepProgress, error)
	UpsertStepProgress(ctx context.Context, step domain.StepProgress) error
}

// StepCatalog provides the ordered, immutable onboarding step catalog.
type StepCatalog interface {
	Steps(ctx context.Context) (domain.StepCatalog, error)
}
