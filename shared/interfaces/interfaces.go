package interfaces

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX abstracts the pgx querier so repositories work the same against a
// *pgxpool.Pool or a pgx.Tx. Services pass a transaction when several writes
// must commit or roll back together.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxManager runs a function inside a database transaction. The transaction is
// rolled back when fn returns an error or panics, committed otherwise.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error
}
