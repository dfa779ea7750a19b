package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/core/port"
	"github.com/oneeyedreaper/onboard/internal/repository"
)

// OnboardingService drives the onboarding wizard. Completing the personal info step
// also copies its non-empty name, company and phone fields onto the client.
type OnboardingService struct {
	onboarding port.OnboardingRepository
	catalog    port.StepCatalog
	tx         port.TxManager
	events     port.EventPublisher
	metrics    OnboardingMetrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewOnboardingService constructs an OnboardingService.
func NewOnboardingService(
	onboarding port.OnboardingRepository,
	catalog port.StepCatalog,
	tx port.TxManager,
	events port.EventPublisher,
	logger *zap.Logger,
) *OnboardingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OnboardingService{
		onboarding: onboarding,
		catalog:    catalog,
		tx:         tx,
		events:     events,
		metrics:    nopMetrics{},
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock.
func (s *OnboardingService) WithClock(clock func() time.Time) *OnboardingService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// WithMetrics attaches a metrics sink.
func (s *OnboardingService) WithMetrics(m OnboardingMetrics) *OnboardingService {
	if m != nil {
		s.metrics = m
	}
	return s
}

// ListSteps returns the step catalog.
func (s *OnboardingService) ListSteps(ctx context.Context) (domain.StepCatalog, error) {
	catalog, err := s.catalog.Steps(ctx)
	if err != nil {
		return nil, internal("load step catalog", err)
	}
	return catalog, nil
}

// GetStatus returns the client's progress joined with the catalog, creating the
// progress row when the client has none.
func (s *OnboardingService) GetStatus(ctx context.Context, clientID string) (*domain.OnboardingOverview, error) {
	catalog, err := s.ListSteps(ctx)
	if err != nil {
		return nil, err
	}

	progress, err := s.getOrCreateProgress(ctx, s.onboarding, clientID, false)
	if err != nil {
		return nil, internal("get onboarding progress", err)
	}

	records, err := s.onboarding.ListStepProgress(ctx, progress.ID)
	if err != nil {
		return nil, internal("list step progress", err)
	}
	byStep := make(map[string]domain.StepProgress, len(records))
	for _, r := range records {
		byStep[r.StepID] = r
	}

	overview := &domain.OnboardingOverview{
		Progress:   *progress,
		TotalSteps: catalog.Total(),
		Steps:      make([]domain.StepState, 0, len(catalog)),
	}
	for _, step := range catalog {
		state := domain.StepState{Step: step, Status: domain.StepPending}
		if r, ok := byStep[step.ID]; ok {
			state.Status = r.Status
			state.Data = r.Data
			state.CompletedAt = r.CompletedAt
		}
		if state.Status == domain.StepCompleted {
			overview.CompletedSteps++
		}
		overview.Steps = append(overview.Steps, state)
	}
	return overview, nil
}

// SaveStepData stores a draft payload for step n without moving the current step.
func (s *OnboardingService) SaveStepData(ctx context.Context, clientID string, n int, raw json.RawMessage) (*domain.StepProgress, error) {
	step, err := s.findStep(ctx, n)
	if err != nil {
		return nil, err
	}
	data, err := encodeStepData(step.Name, raw)
	if err != nil {
		return nil, err
	}

	var saved domain.StepProgress
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		progress, err := s.getOrCreateProgress(ctx, repos.Onboarding, clientID, true)
		if err != nil {
			return err
		}

		now := s.now()
		saved = domain.StepProgress{
			ID:         newID(),
			ProgressID: progress.ID,
			StepID:     step.ID,
			Status:     domain.StepInProgress,
			Data:       data,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := repos.Onboarding.UpsertStepProgress(ctx, saved); err != nil {
			return err
		}

		if progress.Status == domain.OnboardingPending {
			progress.Status = domain.OnboardingInProgress
			progress.UpdatedAt = now
			return repos.Onboarding.UpdateProgress(ctx, *progress)
		}
		return nil
	})
	if err != nil {
		return nil, internal("save step data", err)
	}
	return &saved, nil
}

// CompleteStep marks step n completed and advances the client. Steps beyond the current
// one are rejected. Completing the final step finishes onboarding; repeating it is a no-op
// apart from refreshing the step record.
func (s *OnboardingService) CompleteStep(ctx context.Context, clientID string, n int, raw json.RawMessage) (*domain.OnboardingProgress, error) {
	catalog, err := s.ListSteps(ctx)
	if err != nil {
		return nil, err
	}
	step, ok := catalog.Find(n)
	if !ok {
		return nil, domain.NotFound("Onboarding step not found")
	}
	final := catalog.FinalStep()

	var (
		result        domain.OnboardingProgress
		justCompleted bool
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		progress, err := s.getOrCreateProgress(ctx, repos.Onboarding, clientID, true)
		if err != nil {
			return err
		}
		if n > progress.CurrentStep {
			return domain.BadRequest("Complete the previous steps first")
		}

		if len(raw) == 0 {
			if raw, err = s.existingData(ctx, repos.Onboarding, progress.ID, step.ID); err != nil {
				return err
			}
		}
		decoded, err := domain.DecodeStepData(step.Name, raw)
		if err != nil {
			return err
		}
		data, err := json.Marshal(decoded)
		if err != nil {
			return err
		}

		now := s.now()
		if err := repos.Onboarding.UpsertStepProgress(ctx, domain.StepProgress{
			ID:          newID(),
			ProgressID:  progress.ID,
			StepID:      step.ID,
			Status:      domain.StepCompleted,
			Data:        data,
			CompletedAt: &now,
			CreatedAt:   now,
			UpdatedAt:   now,
		}); err != nil {
			return err
		}

		if info, ok := decoded.(domain.PersonalInfoData); ok {
			if update := info.ProfileUpdate(); !update.IsEmpty() {
				if _, err := repos.Clients.UpdateProfile(ctx, clientID, update, now); err != nil {
					return err
				}
			}
		}

		if n == final {
			if progress.Status != domain.OnboardingCompleted {
				justCompleted = true
				progress.CompletedAt = &now
			}
			progress.Status = domain.OnboardingCompleted
			progress.CurrentStep = n
		} else {
			progress.CurrentStep = max(progress.CurrentStep, min(n+1, final))
			if progress.Status != domain.OnboardingCompleted {
				progress.Status = domain.OnboardingInProgress
			}
		}
		progress.UpdatedAt = now
		if err := repos.Onboarding.UpdateProgress(ctx, *progress); err != nil {
			return err
		}
		result = *progress
		return nil
	})
	if err != nil {
		return nil, notFoundOr(err, "Client not found", "complete step")
	}

	s.metrics.StepCompleted(step.Name, justCompleted)
	s.publishCompletion(ctx, clientID, step, result, justCompleted)
	return &result, nil
}

func (s *OnboardingService) publishCompletion(ctx context.Context, clientID string, step domain.OnboardingStep, progress domain.OnboardingProgress, finished bool) {
	now := s.now()
	if err := s.events.PublishStepCompleted(ctx, domain.StepCompletedEvent{
		EventID:     newID(),
		ClientID:    clientID,
		StepNumber:  step.StepNumber,
		StepName:    step.Name,
		CurrentStep: progress.CurrentStep,
		CompletedAt: now,
	}); err != nil {
		s.logger.Warn("failed to publish step completed event", zap.String("client_id", clientID), zap.Error(err))
	}
	if !finished {
		return
	}
	if err := s.events.PublishOnboardingCompleted(ctx, domain.OnboardingCompletedEvent{
		EventID:     newID(),
		ClientID:    clientID,
		CompletedAt: *progress.CompletedAt,
	}); err != nil {
		s.logger.Warn("failed to publish onboarding completed event", zap.String("client_id", clientID), zap.Error(err))
	}
	s.logger.Info("onboarding completed", zap.String("client_id", clientID))
}

func (s *OnboardingService) findStep(ctx context.Context, n int) (domain.OnboardingStep, error) {
	catalog, err := s.ListSteps(ctx)
	if err != nil {
		return domain.OnboardingStep{}, err
	}
	step, ok := catalog.Find(n)
	if !ok {
		return domain.OnboardingStep{}, domain.NotFound("Onboarding step not found")
	}
	return step, nil
}

// getOrCreateProgress returns the client's progress row, inserting a fresh one when
// missing. forUpdate locks the row for the rest of the transaction.
func (s *OnboardingService) getOrCreateProgress(ctx context.Context, repo port.OnboardingRepository, clientID string, forUpdate bool) (*domain.OnboardingProgress, error) {
	get := repo.GetProgress
	if forUpdate {
		get = repo.GetProgressForUpdate
	}

	progress, err := get(ctx, clientID)
	if err == nil {
		return progress, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	fresh := domain.OnboardingProgress{
		ID:          newID(),
		ClientID:    clientID,
		CurrentStep: 1,
		Status:      domain.OnboardingPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.CreateProgress(ctx, fresh); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return get(ctx, clientID)
		}
		return nil, err
	}
	return &fresh, nil
}

func (s *OnboardingService) existingData(ctx context.Context, repo port.OnboardingRepository, progressID, stepID string) (json.RawMessage, error) {
	records, err := repo.ListStepProgress(ctx, progressID)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.StepID == stepID {
			return r.Data, nil
		}
	}
	return nil, nil
}

// encodeStepData validates raw against the payload schema of stepName and returns
// its canonical encoding.
func encodeStepData(stepName string, raw json.RawMessage) (json.RawMessage, error) {
	decoded, err := domain.DecodeStepData(stepName, raw)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(decoded)
	if err != nil {
		return nil, domain.Internal("encode step data", err)
	}
	return data, nil
}
