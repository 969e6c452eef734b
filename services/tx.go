package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gladiator-fit/backend/repositories"
	"github.com/lib/pq"
)

// TxRunner scopes a function to one database transaction: commit on nil,
// rollback on error or panic. Serialization conflicts and deadlocks are
// retried a bounded number of times; business errors are returned as-is on
// the first attempt.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(tx repositories.SQLExecutor) error) error
}

const txMaxAttempts = 3

type sqlTxRunner struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLTxRunner(db *sql.DB, logger *slog.Logger) TxRunner {
	return &sqlTxRunner{db: db, logger: logger}
}

func (r *sqlTxRunner) RunInTx(ctx context.Context, fn func(tx repositories.SQLExecutor) error) error {
	var lastErr error
	for attempt := 1; attempt <= txMaxAttempts; attempt++ {
		lastErr = r.runOnce(ctx, fn)
		if lastErr == nil || !isRetryableTxError(lastErr) {
			return lastErr
		}
		r.logger.Warn("retrying transaction after storage conflict",
			slog.Int("attempt", attempt),
			slog.Any("error", lastErr))
	}
	return fmt.Errorf("%w: %v", ErrTransientStorageFailure, lastErr)
}

func (r *sqlTxRunner) runOnce(ctx context.Context, fn func(tx repositories.SQLExecutor) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				r.logger.Error("rollback failed", slog.Any("error", rbErr))
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	err = fn(tx)
	return err
}

// isRetryableTxError reports whether the error is a transient postgres
// conflict: serialization_failure (40001) or deadlock_detected (40P01).
func isRetryableTxError(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}
