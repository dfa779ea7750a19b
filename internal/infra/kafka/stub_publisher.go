package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/core/port"
)

// StubPublisher logs events instead of sending them. Used when no brokers are configured.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a logging event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, clientID string, at time.Time, fields ...zap.Field) {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	base := []zap.Field{
		zap.String("event_type", eventType),
		zap.String("client_id", clientID),
		zap.Time("timestamp", at.UTC()),
	}
	p.logger.Info("event published", append(base, fields...)...)
}

func (p *StubPublisher) PublishClientRegistered(_ context.Context, event domain.ClientRegisteredEvent) error {
	p.logEvent(EventClientRegistered, event.ClientID, event.RegisteredAt)
	return nil
}

func (p *StubPublisher) PublishStepCompleted(_ context.Context, event domain.StepCompletedEvent) error {
	p.logEvent(EventStepCompleted, event.ClientID, event.CompletedAt,
		zap.Int("step_number", event.StepNumber),
		zap.String("step_name", event.StepName),
		zap.Int("current_step", event.CurrentStep),
	)
	return nil
}

func (p *StubPublisher) PublishOnboardingCompleted(_ context.Context, event domain.OnboardingCompletedEvent) error {
	p.logEvent(EventOnboardingCompleted, event.ClientID, event.CompletedAt)
	return nil
}

func (p *StubPublisher) PublishDocumentUploaded(_ context.Context, event domain.DocumentUploadedEvent) error {
	p.logEvent(EventDocumentUploaded, event.ClientID, event.UploadedAt,
		zap.String("document_id", event.DocumentID),
		zap.String("category", string(event.Category)),
		zap.Int64("file_size", event.FileSize),
	)
	return nil
}

func (p *StubPublisher) PublishDocumentReviewed(_ context.Context, event domain.DocumentReviewedEvent) error {
	p.logEvent(EventDocumentReviewed, event.ClientID, event.ReviewedAt,
		zap.String("document_id", event.DocumentID),
		zap.String("admin_id", event.AdminID),
		zap.String("status", string(event.Status)),
	)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
