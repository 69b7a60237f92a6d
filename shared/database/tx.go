package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"story-server/shared/interfaces"
)

// Compile-time check.
var _ interfaces.TxManager = (*TransactionHelper)(nil)

// TransactionHelper provides a unified way to run repository calls inside a
// single database transaction.
type TransactionHelper struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewTransactionHelper creates a transaction helper over the pool.
func NewTransactionHelper(db *pgxpool.Pool, logger *zap.Logger) *TransactionHelper {
	return &TransactionHelper{
		db:     db,
		logger: logger.Named("TxHelper"),
	}
}

// WithTx runs fn inside a transaction with automatic rollback on error.
func (h *TransactionHelper) WithTx(
	ctx context.Context,
	fn func(ctx context.Context, tx interfaces.DBTX) error,
) error {
	tx, err := h.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				h.logger.Error("Failed to rollback transaction after panic",
					zap.Error(rollbackErr),
					zap.Any("panic", p))
			}
			panic(p) // re-throw panic after rollback
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
			h.logger.Error("Failed to rollback transaction",
				zap.Error(rollbackErr),
				zap.NamedError("original_error", err))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
