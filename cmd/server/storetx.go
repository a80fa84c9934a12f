package main

import (
	"context"
	"database/sql"
	"time"

	dErrors "landgrid/pkg/domain-errors"
	pkgtx "landgrid/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// postgresTx runs a mutation inside one database transaction, carried through
// context so every store touched by the mutation joins it. When the context
// already carries a transaction the call joins it instead of opening a second
// one; auction settlement drives registry custody operations inside the
// auction's own transaction and both must commit together.
type postgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newPostgresTx(db *sql.DB) *postgresTx {
	return &postgresTx{db: db}
}

func (t *postgresTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, ok := pkgtx.From(ctx); ok {
		return fn(ctx)
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(pkgtx.WithTx(ctx, tx)); err != nil {
		return err
	}

	return tx.Commit()
}
