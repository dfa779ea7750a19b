package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/core/port"
	"github.com/oneeyedreaper/onboard/internal/repository"
)

// TokenRepository implements port.TokenRepository over the three token tables.
type TokenRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewTokenRepository constructs a new token repository.
func NewTokenRepository(exec pgExecutor) *TokenRepository {
	return &TokenRepository{exec: exec, builder: newBuilder()}
}

// WithTx returns a repository instance executing within the provided transaction.
func (r *TokenRepository) WithTx(tx pgx.Tx) *TokenRepository {
	if tx == nil {
		return r
	}
	return &TokenRepository{exec: tx, builder: r.builder}
}

func tokenTable(kind domain.TokenKind) (string, error) {
	switch kind {
	case domain.TokenKindRefresh:
		return "onboard.refresh_tokens", nil
	case domain.TokenKindPasswordReset:
		return "onboard.password_reset_tokens", nil
	case domain.TokenKindEmailVerification:
		return "onboard.email_verification_tokens", nil
	default:
		return "", fmt.Errorf("unknown token kind %q", kind)
	}
}

// Create inserts a token row.
func (r *TokenRepository) Create(ctx context.Context, kind domain.TokenKind, token domain.StoredToken) error {
	table, err := tokenTable(kind)
	if err != nil {
		return err
	}

	stmt, args, err := r.builder.Insert(table).
		Columns("id", "client_id", "token_hash", "expires_at", "created_at").
		Values(token.ID, token.ClientID, token.TokenHash, token.ExpiresAt.UTC(), token.CreatedAt.UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert %s token sql: %w", kind, err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return wrapWriteError(fmt.Sprintf("insert %s token", kind), err)
	}
	return nil
}

// GetByHash retrieves a token by the hash of its raw value.
func (r *TokenRepository) GetByHash(ctx context.Context, kind domain.TokenKind, hash string) (*domain.StoredToken, error) {
	table, err := tokenTable(kind)
	if err != nil {
		return nil, err
	}

	stmt, args, err := r.builder.Select("id", "client_id", "token_hash", "expires_at", "created_at").
		From(table).
		Where(squirrel.Eq{"token_hash": hash}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select %s token sql: %w", kind, err)
	}

	var token domain.StoredToken
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&token.ID,
		&token.ClientID,
		&token.TokenHash,
		&token.ExpiresAt,
		&token.CreatedAt,
	); err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan %s token: %w", kind, err)
	}

	return &token, nil
}

// Delete removes a single token. Concurrent consumers race on this statement and
// only one observes an affected row.
func (r *TokenRepository) Delete(ctx context.Context, kind domain.TokenKind, id string) error {
	table, err := tokenTable(kind)
	if err != nil {
		return err
	}

	stmt, args, err := r.builder.Delete(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete %s token sql: %w", kind, err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete %s token: %w", kind, err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteForClient removes every token of kind owned by clientID.
func (r *TokenRepository) DeleteForClient(ctx context.Context, kind domain.TokenKind, clientID string) (int, error) {
	table, err := tokenTable(kind)
	if err != nil {
		return 0, err
	}

	stmt, args, err := r.builder.Delete(table).
		Where(squirrel.Eq{"client_id": clientID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete client %s tokens sql: %w", kind, err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("delete client %s tokens: %w", kind, err)
	}
	return int(ct.RowsAffected()), nil
}

var _ port.TokenRepository = (*TokenRepository)(nil)
