package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/repository"
)

func TestTokenRepository_CreateUsesKindTable(t *testing.T) {
	cases := map[domain.TokenKind]string{
		domain.TokenKindRefresh:           `INSERT INTO onboard\.refresh_tokens`,
		domain.TokenKindPasswordReset:     `INSERT INTO onboard\.password_reset_tokens`,
		domain.TokenKindEmailVerification: `INSERT INTO onboard\.email_verification_tokens`,
	}

	for kind, pattern := range cases {
		t.Run(string(kind), func(t *testing.T) {
			mock := newMock(t)
			repo := NewTokenRepository(mock)

			now := time.Now().UTC()
			token := domain.StoredToken{ID: "tok-1", ClientID: "client-1", TokenHash: "hash", ExpiresAt: now.Add(time.Hour), CreatedAt: now}

			mock.ExpectExec(pattern).
				WithArgs("tok-1", "client-1", "hash", token.ExpiresAt, now).
				WillReturnResult(pgxmock.NewResult("INSERT", 1))

			if err := repo.Create(context.Background(), kind, token); err != nil {
				t.Fatalf("Create returned error: %v", err)
			}
		})
	}
}

func TestTokenRepository_UnknownKind(t *testing.T) {
	repo := NewTokenRepository(newMock(t))
	if err := repo.Create(context.Background(), domain.TokenKind("bogus"), domain.StoredToken{}); err == nil {
		t.Fatal("expected error for unknown token kind")
	}
}

func TestTokenRepository_GetByHash(t *testing.T) {
	mock := newMock(t)
	repo := NewTokenRepository(mock)

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"id", "client_id", "token_hash", "expires_at", "created_at"}).
		AddRow("tok-1", "client-1", "hash", now.Add(time.Hour), now)

	mock.ExpectQuery(`SELECT id, client_id, token_hash, expires_at, created_at FROM onboard\.refresh_tokens WHERE token_hash = \$1`).
		WithArgs("hash").
		WillReturnRows(rows)

	token, err := repo.GetByHash(context.Background(), domain.TokenKindRefresh, "hash")
	if err != nil {
		t.Fatalf("GetByHash returned error: %v", err)
	}
	if token.ID != "tok-1" || token.ClientID != "client-1" {
		t.Fatalf("unexpected token %+v", token)
	}
}

func TestTokenRepository_GetByHashMissing(t *testing.T) {
	mock := newMock(t)
	repo := NewTokenRepository(mock)

	mock.ExpectQuery(`FROM onboard\.password_reset_tokens`).
		WithArgs("hash").
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.GetByHash(context.Background(), domain.TokenKindPasswordReset, "hash"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTokenRepository_DeleteReportsLostRace(t *testing.T) {
	mock := newMock(t)
	repo := NewTokenRepository(mock)

	mock.ExpectExec(`DELETE FROM onboard\.refresh_tokens WHERE id = \$1`).
		WithArgs("tok-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM onboard\.refresh_tokens WHERE id = \$1`).
		WithArgs("tok-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := repo.Delete(context.Background(), domain.TokenKindRefresh, "tok-1"); err != nil {
		t.Fatalf("first Delete returned error: %v", err)
	}
	if err := repo.Delete(context.Background(), domain.TokenKindRefresh, "tok-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestTokenRepository_DeleteForClient(t *testing.T) {
	mock := newMock(t)
	repo := NewTokenRepository(mock)

	mock.ExpectExec(`DELETE FROM onboard\.email_verification_tokens WHERE client_id = \$1`).
		WithArgs("client-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	n, err := repo.DeleteForClient(context.Background(), domain.TokenKindEmailVerification, "client-1")
	if err != nil {
		t.Fatalf("DeleteForClient returned error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deleted rows, got %d", n)
	}
}
