package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle passed through use cases into
// repositories. The concrete type is infra-defined (pgx.Tx for Postgres).
// Repositories accept nil for the non-transactional path.
type Tx interface{}

// NoTX is the explicit non-transactional handle.
var NoTX Tx

// TransactionManager runs a function within a database transaction, passing
// the transaction handle via tx. The callback's error triggers a rollback.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
