package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// txBeginner is the slice of pgxpool.Pool needed to open transactions.
// pgxmock pools satisfy it as well.
type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ResetExecutor performs the two-step password reset write in a single
// transaction: consume the token, then store the new credential.
type ResetExecutor struct {
	pool   txBeginner
	users  *UserRepository
	tokens *TokenRepository
}

// NewResetExecutor constructs a ResetExecutor over the shared pool.
func NewResetExecutor(pool txBeginner) *ResetExecutor {
	exec, _ := pool.(pgExecutor)
	return &ResetExecutor{
		pool:   pool,
		users:  NewUserRepository(exec),
		tokens: NewTokenRepository(exec),
	}
}

// ConsumeAndSetPassword consumes the token and replaces the user's
// credential atomically. Losing a concurrent consume race surfaces as
// repository.ErrNotFound from the token update and rolls everything back.
func (e *ResetExecutor) ConsumeAndSetPassword(ctx context.Context, tokenID, userID, passwordHash, passwordAlgo string, at time.Time) error {
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reset transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := e.tokens.WithTx(tx).Consume(ctx, tokenID, at); err != nil {
		return err
	}
	if err := e.users.WithTx(tx).UpdatePassword(ctx, userID, passwordHash, passwordAlgo, at); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit reset transaction: %w", err)
	}
	return nil
}
