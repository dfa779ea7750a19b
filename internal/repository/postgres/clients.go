package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/core/port"
	"github.com/oneeyedreaper/onboard/internal/repository"
)

const clientsTable = "onboard.clients"

var clientColumns = []string{
	"id",
	"email",
	"password_hash",
	"first_name",
	"last_name",
	"company",
	"phone",
	"avatar_url",
	"email_verified",
	"role",
	"created_at",
	"updated_at",
}

// ClientRepository implements port.ClientRepository using PostgreSQL.
type ClientRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewClientRepository constructs a client repository backed by exec.
func NewClientRepository(exec pgExecutor) *ClientRepository {
	return &ClientRepository{exec: exec, builder: newBuilder()}
}

// WithTx returns a repository instance executing within the provided transaction.
func (r *ClientRepository) WithTx(tx pgx.Tx) *ClientRepository {
	if tx == nil {
		return r
	}
	return &ClientRepository{exec: tx, builder: r.builder}
}

// Create inserts a new client. A taken email yields repository.ErrConflict.
func (r *ClientRepository) Create(ctx context.Context, client domain.Client) error {
	stmt, args, err := r.builder.Insert(clientsTable).
		Columns(clientColumns...).
		Values(
			client.ID,
			client.Email,
			client.PasswordHash,
			client.FirstName,
			client.LastName,
			optionalString(client.Company),
			optionalString(client.Phone),
			optionalString(client.AvatarURL),
			client.EmailVerified,
			string(client.Role),
			client.CreatedAt.UTC(),
			client.UpdatedAt.UTC(),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert client sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return wrapWriteError("insert client", err)
	}
	return nil
}

// GetByID fetches a client by identifier.
func (r *ClientRepository) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByEmail fetches a client by normalized email.
func (r *ClientRepository) GetByEmail(ctx context.Context, email string) (*domain.Client, error) {
	return r.getOne(ctx, squirrel.Eq{"email": domain.NormalizeEmail(email)})
}

func (r *ClientRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*domain.Client, error) {
	stmt, args, err := r.builder.Select(clientColumns...).
		From(clientsTable).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select client sql: %w", err)
	}

	client, err := scanClient(r.exec.QueryRow(ctx, stmt, args...).Scan)
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan client: %w", err)
	}
	return client, nil
}

// UpdateProfile applies the non-nil fields of update and returns the stored client.
func (r *ClientRepository) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate, at time.Time) (*domain.Client, error) {
	query := r.builder.Update(clientsTable).
		Set("updated_at", at.UTC()).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(clientColumns, ", "))

	if update.FirstName != nil {
		query = query.Set("first_name", strings.TrimSpace(*update.FirstName))
	}
	if update.LastName != nil {
		query = query.Set("last_name", strings.TrimSpace(*update.LastName))
	}
	if update.Company != nil {
		query = query.Set("company", optionalString(update.Company))
	}
	if update.Phone != nil {
		query = query.Set("phone", optionalString(update.Phone))
	}
	if update.AvatarURL != nil {
		query = query.Set("avatar_url", optionalString(update.AvatarURL))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update client sql: %w", err)
	}

	client, err := scanClient(r.exec.QueryRow(ctx, stmt, args...).Scan)
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("update client profile: %w", err)
	}
	return client, nil
}

// UpdatePassword replaces the stored password hash.
func (r *ClientRepository) UpdatePassword(ctx context.Context, id string, passwordHash string, at time.Time) error {
	return r.updateColumns(ctx, id, "update client password", map[string]any{
		"password_hash": passwordHash,
		"updated_at":    at.UTC(),
	})
}

// MarkEmailVerified flags the client's email as verified.
func (r *ClientRepository) MarkEmailVerified(ctx context.Context, id string, at time.Time) error {
	return r.updateColumns(ctx, id, "mark email verified", map[string]any{
		"email_verified": true,
		"updated_at":     at.UTC(),
	})
}

func (r *ClientRepository) updateColumns(ctx context.Context, id, op string, values map[string]any) error {
	stmt, args, err := r.builder.Update(clientsTable).
		SetMap(values).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build %s sql: %w", op, err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a client. Tokens, progress and documents go with it through ON DELETE CASCADE.
func (r *ClientRepository) Delete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Delete(clientsTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete client sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// List returns a page of clients with their onboarding state and document counts, and the total match count.
func (r *ClientRepository) List(ctx context.Context, filter domain.ClientFilter) ([]domain.ClientSummary, int, error) {
	where := squirrel.And{}
	if filter.Role != "" {
		where = append(where, squirrel.Eq{"c.role": string(filter.Role)})
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + search + "%"
		where = append(where, squirrel.Or{
			squirrel.ILike{"c.email": pattern},
			squirrel.ILike{"c.first_name": pattern},
			squirrel.ILike{"c.last_name": pattern},
			squirrel.ILike{"c.company": pattern},
		})
	}

	countStmt, countArgs, err := r.builder.Select("COUNT(*)").
		From(clientsTable + " AS c").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count clients sql: %w", err)
	}

	var total int
	if err := r.exec.QueryRow(ctx, countStmt, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count clients: %w", err)
	}

	limit, offset := pageBounds(filter.Limit, filter.Offset)
	columns := make([]string, 0, len(clientColumns)+4)
	for _, c := range clientColumns {
		columns = append(columns, "c."+c)
	}
	columns = append(columns,
		"COALESCE(p.status, 'PENDING')",
		"COALESCE(p.current_step, 1)",
		"(SELECT COUNT(*) FROM onboard.documents d WHERE d.client_id = c.id)",
		"(SELECT COUNT(*) FROM onboard.documents d WHERE d.client_id = c.id AND d.verification_status = 'PENDING')",
	)

	stmt, args, err := r.builder.Select(columns...).
		From(clientsTable + " AS c").
		LeftJoin(onboardingProgressTable + " AS p ON p.client_id = c.id").
		Where(where).
		OrderBy("c.created_at DESC").
		Limit(limit).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list clients sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var summaries []domain.ClientSummary
	for rows.Next() {
		var (
			summary domain.ClientSummary
			status  string
		)
		client, err := scanClient(func(dest ...any) error {
			dest = append(dest, &status, &summary.CurrentStep, &summary.DocumentCount, &summary.PendingDocuments)
			return rows.Scan(dest...)
		})
		if err != nil {
			return nil, 0, fmt.Errorf("scan client summary: %w", err)
		}
		summary.Client = *client
		summary.OnboardingStatus = domain.OnboardingStatus(status)
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate clients: %w", err)
	}

	return summaries, total, nil
}

func scanClient(scan func(dest ...any) error) (*domain.Client, error) {
	var (
		client    domain.Client
		role      string
		company   sql.NullString
		phone     sql.NullString
		avatarURL sql.NullString
	)

	if err := scan(
		&client.ID,
		&client.Email,
		&client.PasswordHash,
		&client.FirstName,
		&client.LastName,
		&company,
		&phone,
		&avatarURL,
		&client.EmailVerified,
		&role,
		&client.CreatedAt,
		&client.UpdatedAt,
	); err != nil {
		return nil, err
	}

	client.Company = nullableStringPtr(company)
	client.Phone = nullableStringPtr(phone)
	client.AvatarURL = nullableStringPtr(avatarURL)
	client.Role = domain.Role(role)
	return &client, nil
}

var _ port.ClientRepository = (*ClientRepository)(nil)
