package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes a function within a database transaction,
// passing the underlying transaction handle via `qx`. Use-case interfaces
// stay free of storage types: repository methods accept `qx Tx` and detect
// the concrete handle (pgx.Tx for Postgres) on the implementation side.
// Repositories MUST gracefully accept nil qx (non-transactional path).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
