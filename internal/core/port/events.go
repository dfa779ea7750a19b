package port

import (
	"context"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishClientRegistered(ctx context.Context, event domain.ClientRegisteredEvent) error
	PublishStepCompleted(ctx context.Context, event domain.StepCompletedEvent) error
	PublishOnboardingCompleted(ctx context.Context, event domain.OnboardingCompletedEvent) error
	PublishDocumentUploaded(ctx context.Context, event domain.DocumentUploadedEvent) error
	PublishDocumentReviewed(ctx context.Context, event domain.DocumentReviewedEvent) error
}
