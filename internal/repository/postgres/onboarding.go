package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/core/port"
	"github.com/oneeyedreaper/onboard/internal/repository"
)

const (
	onboardingStepsTable    = "onboard.onboarding_steps"
	onboardingProgressTable = "onboard.onboarding_progress"
	stepProgressTable       = "onboard.step_progress"
)

var progressColumns = []string{"id", "client_id", "current_step", "status", "completed_at", "created_at", "updated_at"}

// OnboardingRepository implements port.OnboardingRepository using PostgreSQL.
type OnboardingRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewOnboardingRepository constructs an onboarding repository backed by exec.
func NewOnboardingRepository(exec pgExecutor) *OnboardingRepository {
	return &OnboardingRepository{exec: exec, builder: newBuilder()}
}

// WithTx returns a repository instance executing within the provided transaction.
func (r *OnboardingRepository) WithTx(tx pgx.Tx) *OnboardingRepository {
	if tx == nil {
		return r
	}
	return &OnboardingRepository{exec: tx, builder: r.builder}
}

// ListSteps returns the step catalog ordered by step number.
func (r *OnboardingRepository) ListSteps(ctx context.Context) ([]domain.OnboardingStep, error) {
	stmt, args, err := r.builder.Select("id", "step_number", "name", "title", "description", "is_required").
		From(onboardingStepsTable).
		OrderBy("step_number ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list steps sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list onboarding steps: %w", err)
	}
	defer rows.Close()

	var steps []domain.OnboardingStep
	for rows.Next() {
		var step domain.OnboardingStep
		if err := rows.Scan(&step.ID, &step.StepNumber, &step.Name, &step.Title, &step.Description, &step.IsRequired); err != nil {
			return nil, fmt.Errorf("scan onboarding step: %w", err)
		}
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate onboarding steps: %w", err)
	}
	return steps, nil
}

// CreateProgress inserts the progress row created at signup.
func (r *OnboardingRepository) CreateProgress(ctx context.Context, progress domain.OnboardingProgress) error {
	stmt, args, err := r.builder.Insert(onboardingProgressTable).
		Columns(progressColumns...).
		Values(
			progress.ID,
			progress.ClientID,
			progress.CurrentStep,
			string(progress.Status),
			optionalTime(progress.CompletedAt),
			progress.CreatedAt.UTC(),
			progress.UpdatedAt.UTC(),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert progress sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return wrapWriteError("insert onboarding progress", err)
	}
	return nil
}

// GetProgress fetches the progress row of a client.
func (r *OnboardingRepository) GetProgress(ctx context.Context, clientID string) (*domain.OnboardingProgress, error) {
	return r.getProgress(ctx, clientID, "")
}

// GetProgressForUpdate fetches and row-locks the progress of a client.
func (r *OnboardingRepository) GetProgressForUpdate(ctx context.Context, clientID string) (*domain.OnboardingProgress, error) {
	return r.getProgress(ctx, clientID, "FOR UPDATE")
}

func (r *OnboardingRepository) getProgress(ctx context.Context, clientID, suffix string) (*domain.OnboardingProgress, error) {
	query := r.builder.Select(progressColumns...).
		From(onboardingProgressTable).
		Where(squirrel.Eq{"client_id": clientID}).
		Limit(1)
	if suffix != "" {
		query = query.Suffix(suffix)
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select progress sql: %w", err)
	}

	var (
		progress    domain.OnboardingProgress
		status      string
		completedAt sql.NullTime
	)
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&progress.ID,
		&progress.ClientID,
		&progress.CurrentStep,
		&status,
		&completedAt,
		&progress.CreatedAt,
		&progress.UpdatedAt,
	); err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan onboarding progress: %w", err)
	}

	progress.Status = domain.OnboardingStatus(status)
	progress.CompletedAt = nullableTimePtr(completedAt)
	return &progress, nil
}

// UpdateProgress persists the pointer, status and completion time.
func (r *OnboardingRepository) UpdateProgress(ctx context.Context, progress domain.OnboardingProgress) error {
	stmt, args, err := r.builder.Update(onboardingProgressTable).
		Set("current_step", progress.CurrentStep).
		Set("status", string(progress.Status)).
		Set("completed_at", optionalTime(progress.CompletedAt)).
		Set("updated_at", progress.UpdatedAt.UTC()).
		Where(squirrel.Eq{"id": progress.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update progress sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update onboarding progress: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListStepProgress returns the step records of a progress row.
func (r *OnboardingRepository) ListStepProgress(ctx context.Context, progressID string) ([]domain.StepProgress, error) {
	stmt, args, err := r.builder.Select("id", "progress_id", "step_id", "status", "data", "completed_at", "created_at", "updated_at").
		From(stepProgressTable).
		Where(squirrel.Eq{"progress_id": progressID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list step progress sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list step progress: %w", err)
	}
	defer rows.Close()

	var out []domain.StepProgress
	for rows.Next() {
		var (
			sp          domain.StepProgress
			status      string
			data        []byte
			completedAt sql.NullTime
		)
		if err := rows.Scan(&sp.ID, &sp.ProgressID, &sp.StepID, &status, &data, &completedAt, &sp.CreatedAt, &sp.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan step progress: %w", err)
		}
		sp.Status = domain.StepStatus(status)
		if len(data) > 0 {
			sp.Data = json.RawMessage(data)
		}
		sp.CompletedAt = nullableTimePtr(completedAt)
		out = append(out, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate step progress: %w", err)
	}
	return out, nil
}

// UpsertStepProgress inserts or replaces the record for (progress, step).
func (r *OnboardingRepository) UpsertStepProgress(ctx context.Context, step domain.StepProgress) error {
	var data any
	if len(step.Data) > 0 {
		data = []byte(step.Data)
	}

	stmt, args, err := r.builder.Insert(stepProgressTable).
		Columns("id", "progress_id", "step_id", "status", "data", "completed_at", "created_at", "updated_at").
		Values(
			step.ID,
			step.ProgressID,
			step.StepID,
			string(step.Status),
			data,
			optionalTime(step.CompletedAt),
			step.CreatedAt.UTC(),
			step.UpdatedAt.UTC(),
		).
		Suffix("ON CONFLICT (progress_id, step_id) DO UPDATE SET " +
			"status = EXCLUDED.status, data = EXCLUDED.data, " +
			"completed_at = EXCLUDED.completed_at, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert step progress sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("upsert step progress: %w", err)
	}
	return nil
}

var _ port.OnboardingRepository = (*OnboardingRepository)(nil)
