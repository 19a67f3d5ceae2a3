package aggregates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/findable-backend/internal/data/repos/testutil"
	types "github.com/yungbote/findable-backend/internal/domain"
	"github.com/yungbote/findable-backend/internal/pkg/dbctx"
)

func TestGormTxRunner_CommitAndRollback(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	runner := NewGormTxRunner(db)

	committed := uuid.New()
	if err := runner.InTx(ctx, func(dbc dbctx.Context) error {
		return dbc.Tx.Create(&types.Project{ID: committed, Name: "Resend", Slug: "resend"}).Error
	}); err != nil {
		t.Fatalf("InTx commit: %v", err)
	}

	rolled := uuid.New()
	err := runner.InTx(ctx, func(dbc dbctx.Context) error {
		if err := dbc.Tx.Create(&types.Project{ID: rolled, Name: "Postmark", Slug: "postmark"}).Error; err != nil {
			return err
		}
		return ErrRollback
	})
	if !errors.Is(err, ErrRollback) {
		t.Fatalf("InTx rollback: want ErrRollback got=%v", err)
	}

	var count int64
	if err := db.Model(&types.Project{}).Where("id IN ?", []uuid.UUID{committed, rolled}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("rows after commit+rollback: want=1 got=%d", count)
	}
}

func TestGormTxRunner_NilFnAndDB(t *testing.T) {
	if err := NewGormTxRunner(nil).InTx(context.Background(), nil); err != nil {
		t.Fatalf("nil fn: want nil got=%v", err)
	}
	if err := NewGormTxRunner(nil).InTx(context.Background(), func(dbctx.Context) error { return nil }); err == nil {
		t.Fatalf("nil db: expected error")
	}
}

func TestGormTxRunner_RetriesTransientFailures(t *testing.T) {
	db := testutil.DB(t)
	runner := &gormTxRunner{db: db, attempts: 3, delay: time.Millisecond}

	calls := 0
	id := uuid.New()
	err := runner.InTx(context.Background(), func(dbc dbctx.Context) error {
		calls++
		if calls == 1 {
			return errors.New("database is locked")
		}
		return dbc.Tx.Create(&types.Project{ID: id, Name: "Resend", Slug: "resend"}).Error
	})
	if err != nil {
		t.Fatalf("InTx: %v", err)
	}
	if calls != 2 {
		t.Fatalf("attempts: want=2 got=%d", calls)
	}

	calls = 0
	err = runner.InTx(context.Background(), func(dbctx.Context) error {
		calls++
		return errors.New("deadlock detected")
	})
	if err == nil || calls != 3 {
		t.Fatalf("exhausted retries: want error after 3 attempts got calls=%d err=%v", calls, err)
	}

	calls = 0
	_ = runner.InTx(context.Background(), func(dbctx.Context) error {
		calls++
		return errors.New("constraint failed")
	})
	if calls != 1 {
		t.Fatalf("permanent error: want=1 attempt got=%d", calls)
	}

	calls = 0
	_ = runner.InTx(context.Background(), func(dbctx.Context) error {
		calls++
		return ErrRollback
	})
	if calls != 1 {
		t.Fatalf("rollback: want=1 attempt got=%d", calls)
	}
}
