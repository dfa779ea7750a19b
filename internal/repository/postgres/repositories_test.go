package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/core/port"
)

func TestRepositories_WithinTxCommits(t *testing.T) {
	mock := newMock(t)
	repos := NewRepositories(mock)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM onboard\.refresh_tokens WHERE id = \$1`).
		WithArgs("old").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`INSERT INTO onboard\.refresh_tokens`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := repos.WithinTx(context.Background(), func(ctx context.Context, tx port.Repositories) error {
		if err := tx.Tokens.Delete(ctx, domain.TokenKindRefresh, "old"); err != nil {
			return err
		}
		return tx.Tokens.Create(ctx, domain.TokenKindRefresh, domain.StoredToken{
			ID: "new", ClientID: "client-1", TokenHash: "h", ExpiresAt: time.Now().Add(time.Hour), CreatedAt: time.Now(),
		})
	})
	if err != nil {
		t.Fatalf("WithinTx returned error: %v", err)
	}
}

func TestRepositories_WithinTxRollsBack(t *testing.T) {
	mock := newMock(t)
	repos := NewRepositories(mock)

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := repos.WithinTx(context.Background(), func(ctx context.Context, tx port.Repositories) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
}
