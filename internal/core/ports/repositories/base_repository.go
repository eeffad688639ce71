package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TransactionManager supplies the single logical transaction boundary all
// state-mutating use cases run inside. The core never begins a transaction
// implicitly; orchestrators call Begin and thread the pgx.Tx through every
// write so the read-validate-write sequence commits or rolls back as one.
type TransactionManager interface {
	// Begin starts a new database transaction.
	Begin(ctx context.Context) (pgx.Tx, error)

	// Commit commits a transaction.
	Commit(ctx context.Context, tx pgx.Tx) error

	// Rollback rolls back a transaction. Safe to call after Commit.
	Rollback(ctx context.Context, tx pgx.Tx) error
}
