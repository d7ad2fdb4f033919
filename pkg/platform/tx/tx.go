// Package tx carries a SQL transaction through context so stores can join a
// service-level transaction without depending on each other. Collaborators
// with no SQL representation (in-memory stores, ledgers, event recorders)
// participate through OnRollback compensations, which every Runner unwinds
// when the wrapped function fails.
package tx

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

type undoKey struct{}

type undoStack struct {
	mu  sync.Mutex
	fns []func()
}

func (u *undoStack) push(fn func()) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.fns = append(u.fns, fn)
}

// unwind runs compensations in reverse registration order.
func (u *undoStack) unwind() {
	u.mu.Lock()
	fns := u.fns
	u.fns = nil
	u.mu.Unlock()
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}

// OnRollback registers a compensation to run if the surrounding RunInTx
// function fails. Outside a Runner it is a no-op: the caller is then a
// single-step operation with nothing to compensate.
func OnRollback(ctx context.Context, fn func()) {
	if u, ok := ctx.Value(undoKey{}).(*undoStack); ok {
		u.push(fn)
	}
}

// Runner executes a function inside a transaction boundary. Services depend
// on this interface so unit tests can run with the no-op implementation.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoopRunner provides no SQL transaction. Failure still unwinds OnRollback
// compensations, which is what keeps in-memory stores consistent when a
// multi-step operation aborts partway.
type NoopRunner struct{}

func (NoopRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	undo := &undoStack{}
	if err := fn(context.WithValue(ctx, undoKey{}, undo)); err != nil {
		undo.unwind()
		return err
	}
	return nil
}

// SQLRunner wraps a *sql.DB and injects the opened transaction into context
// so participating stores execute against it. Non-SQL collaborators are
// reverted through their OnRollback compensations alongside the SQL rollback.
type SQLRunner struct {
	DB *sql.DB
}

func (r SQLRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	sqlTx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	undo := &undoStack{}
	if err := fn(context.WithValue(WithTx(ctx, sqlTx), undoKey{}, undo)); err != nil {
		undo.unwind()
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		undo.unwind()
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
