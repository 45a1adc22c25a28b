package database

import (
	"context"
	"errors"
	"fmt"
)

// Begin opens the handle's single transaction. It is not reentrant.
func (h *Handle) Begin(ctx context.Context) error {
	if err := h.ready(); err != nil {
		return err
	}
	if h.tx != nil {
		return ErrTransactionInProgress
	}
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	h.tx = tx
	return nil
}

// Commit commits the open transaction and persists the result.
func (h *Handle) Commit(ctx context.Context) error {
	if h.tx == nil {
		return ErrNoTransaction
	}
	tx := h.tx
	h.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return h.flush(ctx)
}

// Rollback abandons the open transaction.
func (h *Handle) Rollback() error {
	if h.tx == nil {
		return ErrNoTransaction
	}
	tx := h.tx
	h.tx = nil
	return tx.Rollback()
}

// WithTx runs fn atomically. Inside an open transaction fn joins it, so the
// outer Commit decides; otherwise fn gets its own transaction.
func (h *Handle) WithTx(ctx context.Context, fn func(DBTX) error) error {
	if err := h.ready(); err != nil {
		return err
	}
	if h.tx != nil {
		return fn(h.tx)
	}
	if err := h.Begin(ctx); err != nil {
		return err
	}
	if err := fn(h.tx); err != nil {
		if rbErr := h.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return h.Commit(ctx)
}
