package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/core/port"
	"github.com/oneeyedreaper/onboard/internal/repository"
)

const documentsTable = "onboard.documents"

var documentColumns = []string{
	"id",
	"client_id",
	"file_name",
	"file_url",
	"file_key",
	"file_type",
	"file_size",
	"category",
	"verification_status",
	"rejection_reason",
	"verified_at",
	"uploaded_at",
}

// DocumentRepository implements port.DocumentRepository using PostgreSQL.
type DocumentRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewDocumentRepository constructs a document repository backed by exec.
func NewDocumentRepository(exec pgExecutor) *DocumentRepository {
	return &DocumentRepository{exec: exec, builder: newBuilder()}
}

// WithTx returns a repository instance executing within the provided transaction.
func (r *DocumentRepository) WithTx(tx pgx.Tx) *DocumentRepository {
	if tx == nil {
		return r
	}
	return &DocumentRepository{exec: tx, builder: r.builder}
}

// Create inserts document metadata.
func (r *DocumentRepository) Create(ctx context.Context, doc domain.Document) error {
	stmt, args, err := r.builder.Insert(documentsTable).
		Columns(documentColumns...).
		Values(
			doc.ID,
			doc.ClientID,
			doc.FileName,
			doc.FileURL,
			doc.FileKey,
			doc.FileType,
			doc.FileSize,
			string(doc.Category),
			string(doc.VerificationStatus),
			optionalString(doc.RejectionReason),
			optionalTime(doc.VerifiedAt),
			doc.UploadedAt.UTC(),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert document sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return wrapWriteError("insert document", err)
	}
	return nil
}

// GetByID fetches a document by identifier.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	stmt, args, err := r.builder.Select(documentColumns...).
		From(documentsTable).
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select document sql: %w", err)
	}

	doc, err := scanDocument(r.exec.QueryRow(ctx, stmt, args...).Scan)
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return doc, nil
}

// GetWithOwner fetches a document together with its owning client.
func (r *DocumentRepository) GetWithOwner(ctx context.Context, id string) (*domain.DocumentWithOwner, error) {
	stmt, args, err := r.ownerQuery(squirrel.Eq{"d.id": id}).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select document with owner sql: %w", err)
	}

	doc, err := scanDocumentWithOwner(r.exec.QueryRow(ctx, stmt, args...).Scan)
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan document with owner: %w", err)
	}
	return doc, nil
}

func documentWhere(filter domain.DocumentFilter, alias string) squirrel.And {
	where := squirrel.And{}
	if filter.ClientID != "" {
		where = append(where, squirrel.Eq{alias + "client_id": filter.ClientID})
	}
	if filter.Category != "" {
		where = append(where, squirrel.Eq{alias + "category": string(filter.Category)})
	}
	if filter.Status != "" {
		where = append(where, squirrel.Eq{alias + "verification_status": string(filter.Status)})
	}
	return where
}

// List returns documents matching filter, newest first.
func (r *DocumentRepository) List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	query := r.builder.Select(documentColumns...).
		From(documentsTable).
		Where(documentWhere(filter, "")).
		OrderBy("uploaded_at DESC")
	if filter.Limit > 0 {
		limit, offset := pageBounds(filter.Limit, filter.Offset)
		query = query.Limit(limit).Offset(offset)
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list documents sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) ownerQuery(where squirrel.Sqlizer) squirrel.SelectBuilder {
	columns := make([]string, 0, len(documentColumns)+4)
	for _, c := range documentColumns {
		columns = append(columns, "d."+c)
	}
	columns = append(columns, "c.email", "c.first_name", "c.last_name", "c.company")

	return r.builder.Select(columns...).
		From(documentsTable + " AS d").
		Join(clientsTable + " AS c ON c.id = d.client_id").
		Where(where)
}

// ListWithOwner returns a page of documents joined with their owners, and the total match count.
func (r *DocumentRepository) ListWithOwner(ctx context.Context, filter domain.DocumentFilter) ([]domain.DocumentWithOwner, int, error) {
	where := documentWhere(filter, "d.")

	countStmt, countArgs, err := r.builder.Select("COUNT(*)").
		From(documentsTable + " AS d").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count documents sql: %w", err)
	}

	var total int
	if err := r.exec.QueryRow(ctx, countStmt, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	limit, offset := pageBounds(filter.Limit, filter.Offset)
	stmt, args, err := r.ownerQuery(where).
		OrderBy("d.uploaded_at DESC").
		Limit(limit).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list documents with owner sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list documents with owner: %w", err)
	}
	defer rows.Close()

	var docs []domain.DocumentWithOwner
	for rows.Next() {
		doc, err := scanDocumentWithOwner(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("scan document with owner: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate documents with owner: %w", err)
	}
	return docs, total, nil
}

// DeleteOwned removes a document only when clientID owns it.
func (r *DocumentRepository) DeleteOwned(ctx context.Context, id string, clientID string) error {
	stmt, args, err := r.builder.Delete(documentsTable).
		Where(squirrel.Eq{"id": id, "client_id": clientID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete document sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListKeysForClient returns the storage keys of every document a client owns.
func (r *DocumentRepository) ListKeysForClient(ctx context.Context, clientID string) ([]string, error) {
	stmt, args, err := r.builder.Select("file_key").
		From(documentsTable).
		Where(squirrel.Eq{"client_id": clientID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list document keys sql: %w", err)
	}
	return r.collectStrings(ctx, "list document keys", stmt, args)
}

// UpdateStatus records an admin review outcome.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.VerificationStatus, reason *string, at time.Time) error {
	stmt, args, err := r.builder.Update(documentsTable).
		Set("verification_status", string(status)).
		Set("rejection_reason", optionalString(reason)).
		Set("verified_at", at.UTC()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update document status sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ApprovePending approves the PENDING documents among ids.
func (r *DocumentRepository) ApprovePending(ctx context.Context, ids []string, at time.Time) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.approve(ctx, squirrel.Eq{"id": ids}, at)
}

// ApprovePendingForClient approves every PENDING document of clientID.
func (r *DocumentRepository) ApprovePendingForClient(ctx context.Context, clientID string, at time.Time) ([]string, error) {
	return r.approve(ctx, squirrel.Eq{"client_id": clientID}, at)
}

func (r *DocumentRepository) approve(ctx context.Context, where squirrel.Sqlizer, at time.Time) ([]string, error) {
	stmt, args, err := r.builder.Update(documentsTable).
		Set("verification_status", string(domain.VerificationApproved)).
		Set("rejection_reason", nil).
		Set("verified_at", at.UTC()).
		Where(where).
		Where(squirrel.Eq{"verification_status": string(domain.VerificationPending)}).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build approve documents sql: %w", err)
	}
	return r.collectStrings(ctx, "approve documents", stmt, args)
}

func (r *DocumentRepository) collectStrings(ctx context.Context, op, stmt string, args []any) ([]string, error) {
	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate: %w", op, err)
	}
	return out, nil
}

func scanDocument(scan func(dest ...any) error, extra ...any) (*domain.Document, error) {
	var (
		doc        domain.Document
		category   string
		status     string
		reason     sql.NullString
		verifiedAt sql.NullTime
	)

	dest := []any{
		&doc.ID,
		&doc.ClientID,
		&doc.FileName,
		&doc.FileURL,
		&doc.FileKey,
		&doc.FileType,
		&doc.FileSize,
		&category,
		&status,
		&reason,
		&verifiedAt,
		&doc.UploadedAt,
	}
	if err := scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	doc.Category = domain.DocumentCategory(category)
	doc.VerificationStatus = domain.VerificationStatus(status)
	doc.RejectionReason = nullableStringPtr(reason)
	doc.VerifiedAt = nullableTimePtr(verifiedAt)
	return &doc, nil
}

func scanDocumentWithOwner(scan func(dest ...any) error) (*domain.DocumentWithOwner, error) {
	var (
		owner   domain.DocumentOwner
		company sql.NullString
	)
	doc, err := scanDocument(scan, &owner.Email, &owner.FirstName, &owner.LastName, &company)
	if err != nil {
		return nil, err
	}
	owner.ClientID = doc.ClientID
	owner.Company = nullableStringPtr(company)
	return &domain.DocumentWithOwner{Document: *doc, Owner: owner}, nil
}

var _ port.DocumentRepository = (*DocumentRepository)(nil)
