package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/core/port"
	"github.com/oneeyedreaper/onboard/internal/infra/config"
)

const schemaVersion = "1.0"

// Event types, before the topic prefix is applied.
const (
	EventClientRegistered    = "client.registered"
	EventStepCompleted       = "onboarding.step.completed"
	EventOnboardingCompleted = "onboarding.completed"
	EventDocumentUploaded    = "document.uploaded"
	EventDocumentReviewed    = "document.reviewed"
)

// EventPublisher implements port.EventPublisher using Kafka. Messages are keyed
// by client so one client's events land on one partition in order.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type eventEnvelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	ClientID  string            `json:"client_id"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Payload   any               `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, clientID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	if eventID == "" {
		eventID = uuid.NewString()
	}

	metadata := map[string]string{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		metadata["trace_id"] = sc.TraceID().String()
	}

	bytes, err := json.Marshal(eventEnvelope{
		EventID:   eventID,
		EventType: eventType,
		ClientID:  clientID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	})
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Key:   sarama.StringEncoder(clientID),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishClientRegistered publishes client.registered events.
func (p *EventPublisher) PublishClientRegistered(ctx context.Context, event domain.ClientRegisteredEvent) error {
	payload := struct {
		ClientID     string    `json:"client_id"`
		Email        string    `json:"email"`
		RegisteredAt time.Time `json:"registered_at"`
	}{
		ClientID:     event.ClientID,
		Email:        event.Email,
		RegisteredAt: event.RegisteredAt.UTC(),
	}
	return p.publish(ctx, event.EventID, EventClientRegistered, event.ClientID, event.RegisteredAt, payload)
}

// PublishStepCompleted publishes onboarding.step.completed events.
func (p *EventPublisher) PublishStepCompleted(ctx context.Context, event domain.StepCompletedEvent) error {
	payload := struct {
		ClientID    string    `json:"client_id"`
		StepNumber  int       `json:"step_number"`
		StepName    string    `json:"step_name"`
		CurrentStep int       `json:"current_step"`
		CompletedAt time.Time `json:"completed_at"`
	}{
		ClientID:    event.ClientID,
		StepNumber:  event.StepNumber,
		StepName:    event.StepName,
		CurrentStep: event.CurrentStep,
		CompletedAt: event.CompletedAt.UTC(),
	}
	return p.publish(ctx, event.EventID, EventStepCompleted, event.ClientID, event.CompletedAt, payload)
}

// PublishOnboardingCompleted publishes onboarding.completed events.
func (p *EventPublisher) PublishOnboardingCompleted(ctx context.Context, event domain.OnboardingCompletedEvent) error {
	payload := struct {
		ClientID    string    `json:"client_id"`
		CompletedAt time.Time `json:"completed_at"`
	}{
		ClientID:    event.ClientID,
		CompletedAt: event.CompletedAt.UTC(),
	}
	return p.publish(ctx, event.EventID, EventOnboardingCompleted, event.ClientID, event.CompletedAt, payload)
}

// PublishDocumentUploaded publishes document.uploaded events.
func (p *EventPublisher) PublishDocumentUploaded(ctx context.Context, event domain.DocumentUploadedEvent) error {
	payload := struct {
		DocumentID string    `json:"document_id"`
		ClientID   string    `json:"client_id"`
		Category   string    `json:"category"`
		FileType   string    `json:"file_type"`
		FileSize   int64     `json:"file_size"`
		UploadedAt time.Time `json:"uploaded_at"`
	}{
		DocumentID: event.DocumentID,
		ClientID:   event.ClientID,
		Category:   string(event.Category),
		FileType:   event.FileType,
		FileSize:   event.FileSize,
		UploadedAt: event.UploadedAt.UTC(),
	}
	return p.publish(ctx, event.EventID, EventDocumentUploaded, event.ClientID, event.UploadedAt, payload)
}

// PublishDocumentReviewed publishes document.reviewed events.
func (p *EventPublisher) PublishDocumentReviewed(ctx context.Context, event domain.DocumentReviewedEvent) error {
	payload := struct {
		DocumentID string    `json:"document_id"`
		ClientID   string    `json:"client_id"`
		AdminID    string    `json:"admin_id"`
		Status     string    `json:"status"`
		Reason     *string   `json:"reason,omitempty"`
		ReviewedAt time.Time `json:"reviewed_at"`
	}{
		DocumentID: event.DocumentID,
		ClientID:   event.ClientID,
		AdminID:    event.AdminID,
		Status:     string(event.Status),
		Reason:     event.Reason,
		ReviewedAt: event.ReviewedAt.UTC(),
	}
	return p.publish(ctx, event.EventID, EventDocumentReviewed, event.ClientID, event.ReviewedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
