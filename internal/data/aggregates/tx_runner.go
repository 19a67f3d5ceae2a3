package aggregates

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/findable-backend/internal/pkg/dbctx"
)

const (
	maxTxAttempts = 3
	txRetryDelay  = 25 * time.Millisecond
)

// TxRunner runs multi-table writes as one unit.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db       *gorm.DB
	attempts int
	delay    time.Duration
}

// NewGormTxRunner returns a runner that retries serialization failures and deadlocks a bounded
// number of times before giving up.
func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db, attempts: maxTxAttempts, delay: txRetryDelay}
}

// InTx commits when fn returns nil and rolls back on any error. ErrRollback is returned as is
// and never retried.
func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return errors.New("transaction runner has nil db")
	}
	var err error
	for attempt := 1; ; attempt++ {
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(dbctx.Context{Ctx: ctx, Tx: tx})
		})
		if err == nil || errors.Is(err, ErrRollback) || attempt >= r.attempts || !IsRetryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(time.Duration(attempt) * r.delay):
		}
	}
}
