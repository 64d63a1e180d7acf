package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrLockConflict is returned when a transaction kept failing on lock contention.
var ErrLockConflict = errors.New("lock contention: retries exhausted")

var retryableCodes = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
}

type TxOptions struct {
	MaxAttempts int
	LockTimeout time.Duration
	Backoff     time.Duration
}

// Transactor runs units of work in a transaction and retries them a bounded
// number of times when Postgres reports lock contention.
type Transactor struct {
	db   *gorm.DB
	opts TxOptions
}

func NewTransactor(db *gorm.DB, opts TxOptions) *Transactor {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &Transactor{db: db, opts: opts}
}

func (t *Transactor) DB() *gorm.DB {
	return t.db
}

func (t *Transactor) Transact(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= t.opts.MaxAttempts; attempt++ {
		err = t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if t.opts.LockTimeout > 0 && tx.Dialector.Name() == "postgres" {
				stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", t.opts.LockTimeout.Milliseconds())
				if err := tx.Exec(stmt).Error; err != nil {
					return err
				}
			}
			return fn(tx)
		})
		if err == nil || !IsRetryable(err) {
			return err
		}

		log.Printf("[Database] transient failure (attempt %d/%d): %v", attempt, t.opts.MaxAttempts, err)
		if attempt == t.opts.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.opts.Backoff * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("%w: %v", ErrLockConflict, err)
}

func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return retryableCodes[pgErr.Code]
	}
	return false
}
