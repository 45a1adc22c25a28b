// Package repository persists one account: metadata, groups and transactions.
package repository

import (
	"context"
	"errors"

	"github.com/jask/moneyvault/internal/database"
)

// ErrNotFound is returned when an update or delete matches no row.
var ErrNotFound = errors.New("record not found")

// Repository is the storage facade for a single account file.
type Repository struct {
	h *database.Handle
}

func New(h *database.Handle) *Repository { return &Repository{h: h} }

// Open claims path and wraps it in a Repository.
func Open(path string, opts database.Options) (*Repository, error) {
	h, err := database.Open(path, opts)
	if err != nil {
		return nil, err
	}
	return New(h), nil
}

func (r *Repository) Path() string      { return r.h.Path() }
func (r *Repository) IsEncrypted() bool { return r.h.IsEncrypted() }
func (r *Repository) Close() error      { return r.h.Close() }

// Login unlocks the account and migrates its schema. A wrong password
// returns false and a nil error.
func (r *Repository) Login(ctx context.Context, password string) (bool, error) {
	return r.h.Unlock(ctx, password)
}

func (r *Repository) ChangePassword(ctx context.Context, password string) error {
	return r.h.ChangePassword(ctx, password)
}

func (r *Repository) BeginTransaction(ctx context.Context) error  { return r.h.Begin(ctx) }
func (r *Repository) CommitTransaction(ctx context.Context) error { return r.h.Commit(ctx) }
func (r *Repository) RollbackTransaction() error                  { return r.h.Rollback() }
func (r *Repository) InTransaction() bool                         { return r.h.InTransaction() }

func affected(res interface{ RowsAffected() (int64, error) }) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
