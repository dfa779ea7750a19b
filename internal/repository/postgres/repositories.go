package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/oneeyedreaper/onboard/internal/core/port"
)

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	db         DB
	Clients    *ClientRepository
	Tokens     *TokenRepository
	Onboarding *OnboardingRepository
	Documents  *DocumentRepository
	Activity   *ActivityRepository
	Stats      *StatsRepository
}

// NewRepositories wires all repositories backed by the provided pool.
func NewRepositories(db DB) *Repositories {
	return &Repositories{
		db:         db,
		Clients:    NewClientRepository(db),
		Tokens:     NewTokenRepository(db),
		Onboarding: NewOnboardingRepository(db),
		Documents:  NewDocumentRepository(db),
		Activity:   NewActivityRepository(db),
		Stats:      NewStatsRepository(db),
	}
}

// WithinTx implements port.TxManager.
func (r *Repositories) WithinTx(ctx context.Context, fn func(ctx context.Context, repos port.Repositories) error) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			err = errors.Join(err, fmt.Errorf("rollback transaction: %w", rbErr))
		}
	}()

	if err = fn(ctx, r.bind(tx)); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *Repositories) bind(tx pgx.Tx) port.Repositories {
	return port.Repositories{
		Clients:    r.Clients.WithTx(tx),
		Tokens:     r.Tokens.WithTx(tx),
		Onboarding: r.Onboarding.WithTx(tx),
		Documents:  r.Documents.WithTx(tx),
		Activity:   r.Activity.WithTx(tx),
	}
}

var _ port.TxManager = (*Repositories)(nil)
