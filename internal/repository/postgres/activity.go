package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/core/port"
)

const activityTable = "onboard.admin_activity_logs"

// ActivityRepository implements port.ActivityRepository. Entries are never updated or deleted.
type ActivityRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewActivityRepository constructs an activity repository backed by exec.
func NewActivityRepository(exec pgExecutor) *ActivityRepository {
	return &ActivityRepository{exec: exec, builder: newBuilder()}
}

// WithTx returns a repository instance executing within the provided transaction.
func (r *ActivityRepository) WithTx(tx pgx.Tx) *ActivityRepository {
	if tx == nil {
		return r
	}
	return &ActivityRepository{exec: tx, builder: r.builder}
}

// Append writes one audit entry.
func (r *ActivityRepository) Append(ctx context.Context, entry domain.AdminActivityLog) error {
	details, err := marshalDetails(entry.Details)
	if err != nil {
		return fmt.Errorf("prepare activity details: %w", err)
	}

	stmt, args, err := r.builder.Insert(activityTable).
		Columns("id", "admin_id", "action", "target_type", "target_id", "details", "created_at").
		Values(entry.ID, entry.AdminID, entry.Action, entry.TargetType, entry.TargetID, details, entry.CreatedAt.UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert activity sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// List returns the newest entries first together with the total entry count.
func (r *ActivityRepository) List(ctx context.Context, limit, offset int) ([]domain.ActivityEntry, int, error) {
	var total int
	countStmt, _, err := r.builder.Select("COUNT(*)").From(activityTable).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count activity sql: %w", err)
	}
	if err := r.exec.QueryRow(ctx, countStmt).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count activity: %w", err)
	}

	l, o := pageBounds(limit, offset)
	stmt, args, err := r.builder.Select(
		"a.id",
		"COALESCE(a.admin_id::text, '')",
		"a.action",
		"a.target_type",
		"a.target_id",
		"a.details",
		"a.created_at",
		"COALESCE(c.email, '')",
		"COALESCE(c.first_name || ' ' || c.last_name, '')",
	).
		From(activityTable + " AS a").
		LeftJoin(clientsTable + " AS c ON c.id = a.admin_id").
		OrderBy("a.created_at DESC").
		Limit(l).
		Offset(o).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list activity sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var entries []domain.ActivityEntry
	for rows.Next() {
		var (
			entry   domain.ActivityEntry
			details []byte
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.AdminID,
			&entry.Action,
			&entry.TargetType,
			&entry.TargetID,
			&details,
			&entry.CreatedAt,
			&entry.AdminEmail,
			&entry.AdminName,
		); err != nil {
			return nil, 0, fmt.Errorf("scan activity: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &entry.Details); err != nil {
				return nil, 0, fmt.Errorf("unmarshal activity details: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate activity: %w", err)
	}
	return entries, total, nil
}

func marshalDetails(details map[string]any) (any, error) {
	if len(details) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

var _ port.ActivityRepository = (*ActivityRepository)(nil)
