package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/core/port"
)

// StatsRepository implements port.StatsRepository with single COUNT queries.
type StatsRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewStatsRepository constructs a stats repository backed by exec.
func NewStatsRepository(exec pgExecutor) *StatsRepository {
	return &StatsRepository{exec: exec, builder: newBuilder()}
}

func (r *StatsRepository) count(ctx context.Context, table string, where squirrel.Sqlizer) (int, error) {
	query := r.builder.Select("COUNT(*)").From(table)
	if where != nil {
		query = query.Where(where)
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count %s sql: %w", table, err)
	}

	var n int
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// CountClients counts clients with role.
func (r *StatsRepository) CountClients(ctx context.Context, role domain.Role) (int, error) {
	return r.count(ctx, clientsTable, squirrel.Eq{"role": string(role)})
}

// CountOnboarding counts progress rows in status.
func (r *StatsRepository) CountOnboarding(ctx context.Context, status domain.OnboardingStatus) (int, error) {
	return r.count(ctx, onboardingProgressTable, squirrel.Eq{"status": string(status)})
}

// CountDocuments counts documents in status, or all documents when status is empty.
func (r *StatsRepository) CountDocuments(ctx context.Context, status domain.VerificationStatus) (int, error) {
	if status == "" {
		return r.count(ctx, documentsTable, nil)
	}
	return r.count(ctx, documentsTable, squirrel.Eq{"verification_status": string(status)})
}

var _ port.StatsRepository = (*StatsRepository)(nil)
