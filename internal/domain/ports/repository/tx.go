package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

// TransactionManager executes a function within a database transaction,
// passing the transaction handle via `tx`.
//
// Use-case interfaces stay clean (no driver types leaking out); repository
// methods that accept `tx` detect a transaction handle implementation-side
// and run conditional updates / SELECT ... FOR UPDATE on it as needed.
// Repositories MUST gracefully accept a nil tx (non-transactional path).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
