package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type txBeginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// TxRunner executes callbacks inside SERIALIZABLE transactions, retrying the
// whole callback when PostgreSQL reports a serialization failure or deadlock.
type TxRunner struct {
	db          txBeginner
	maxAttempts int
	backoff     time.Duration
}

// NewTxRunner builds a runner. maxAttempts below 1 means a single attempt.
func NewTxRunner(db txBeginner, maxAttempts int) *TxRunner {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &TxRunner{db: db, maxAttempts: maxAttempts, backoff: 5 * time.Millisecond}
}

// Serializable runs fn and commits. Any error from fn rolls back and is
// returned unchanged unless it is a retryable store error.
func (r *TxRunner) Serializable(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	var err error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err = r.once(ctx, fn)
		if err == nil || !IsRetryable(err) || attempt == r.maxAttempts {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(time.Duration(attempt) * r.backoff):
		}
	}
	return err
}

func (r *TxRunner) once(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTxBegin, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return classify(err)
	}
	if err = tx.Commit(); err != nil {
		return classify(fmt.Errorf("commit: %w", err))
	}
	return nil
}
