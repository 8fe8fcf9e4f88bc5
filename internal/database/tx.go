package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"lodging/internal/domain"
)

// TxOptions configures RunInTx.
type TxOptions struct {
	// Isolation is applied on PostgreSQL; SQLite transactions are already serial.
	Isolation sql.IsolationLevel
	// Timeout bounds the whole call, retries included. Zero disables it.
	Timeout time.Duration
	// MaxRetries is the number of extra attempts after a serialization conflict.
	MaxRetries int
	// RetryIf marks additional errors as worth a fresh attempt.
	RetryIf func(err error) bool
	// OnRetry is called before each retry.
	OnRetry func(attempt int, err error)
}

const retryBackoff = 25 * time.Millisecond

// RunInTx runs fn in a transaction and re-runs it from scratch when the
// store reports a serialization conflict. fn must not keep state between
// attempts other than what it rebuilds itself.
func RunInTx(ctx context.Context, db *gorm.DB, opts TxOptions, fn func(tx *gorm.DB) error) error {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var txOpts []*sql.TxOptions
	if opts.Isolation != sql.LevelDefault && !IsSQLite(db) {
		txOpts = append(txOpts, &sql.TxOptions{Isolation: opts.Isolation})
	}

	attempts := opts.MaxRetries + 1
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = db.WithContext(ctx).Transaction(fn, txOpts...)
		if err == nil {
			return nil
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", domain.ErrTransactionTimeout, err)
		}
		if !IsSerializationFailure(err) && (opts.RetryIf == nil || !opts.RetryIf(err)) {
			return err
		}
		if attempt == attempts {
			break
		}
		if opts.OnRetry != nil {
			opts.OnRetry(attempt, err)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", domain.ErrTransactionTimeout, ctx.Err())
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
	return fmt.Errorf("%w after %d attempts: %v", domain.ErrTransactionConflict, attempts, err)
}
