package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/jask/moneyvault/internal/models"
	"github.com/jask/moneyvault/internal/vault"
)

const driverName = "sqlite3_moneyvault"

var (
	ErrAlreadyOpen           = errors.New("account file is already open")
	ErrLocked                = errors.New("account is locked")
	ErrClosed                = errors.New("account is closed")
	ErrTransactionInProgress = errors.New("a transaction is already in progress")
	ErrNoTransaction         = errors.New("no transaction in progress")
)

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			// fixdate turns stored M/D/YYYY dates into sortable YYYYMMDD keys.
			return conn.RegisterFunc("fixdate", models.USToISO, true)
		},
	})
}

// DBTX is satisfied by Handle, *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Options tune a Handle. Zero values pick defaults.
type Options struct {
	KDF    vault.Params
	Logger *slog.Logger
}

// Handle is a single-owner connection to one account file. Plain files are
// used in place; sealed files are decrypted into an in-memory database and
// written back after every committed change.
type Handle struct {
	path   string
	log    *slog.Logger
	kdf    vault.Params
	db     *sql.DB
	tx     *sql.Tx
	sealer *vault.Sealer

	encrypted bool
	unlocked  bool
	closed    bool
}

var registry = struct {
	sync.Mutex
	paths map[string]struct{}
}{paths: make(map[string]struct{})}

func acquire(path string) error {
	registry.Lock()
	defer registry.Unlock()
	if _, ok := registry.paths[path]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyOpen, path)
	}
	registry.paths[path] = struct{}{}
	return nil
}

func release(path string) {
	registry.Lock()
	defer registry.Unlock()
	delete(registry.paths, path)
}

// Open claims path for this process. A missing file becomes a new plain
// account; a sealed file stays locked until Unlock.
func Open(path string, opts Options) (*Handle, error) {
	abs, err := resolvePath(path)
	if err != nil {
		return nil, err
	}
	if err := acquire(abs); err != nil {
		return nil, err
	}
	h := &Handle{path: abs, log: opts.Logger, kdf: opts.KDF}
	if h.log == nil {
		h.log = slog.Default()
	}
	if h.kdf == (vault.Params{}) {
		h.kdf = vault.DefaultParams
	}
	sealed, err := vault.IsSealed(abs)
	if err != nil {
		release(abs)
		return nil, fmt.Errorf("inspect %s: %w", abs, err)
	}
	h.encrypted = sealed
	if !sealed {
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			release(abs)
			return nil, fmt.Errorf("mkdir account dir: %w", err)
		}
		db, err := openFile(abs)
		if err != nil {
			release(abs)
			return nil, err
		}
		h.db = db
	}
	return h, nil
}

// resolvePath returns the registry key for path. A file that does not exist
// yet is keyed by its resolved parent directory.
func resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		return filepath.Join(dir, filepath.Base(abs)), nil
	}
	return abs, nil
}

// openFile opens sqlite with sensible defaults.
func openFile(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)
	return db, nil
}

// openMemory opens a private in-memory database that lives as long as its
// single pooled connection.
func openMemory() (*sql.DB, error) {
	db, err := sql.Open(driverName, ":memory:")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)
	return db, nil
}

func (h *Handle) Path() string      { return h.path }
func (h *Handle) IsEncrypted() bool { return h.encrypted }
func (h *Handle) IsUnlocked() bool  { return h.unlocked }
func (h *Handle) InTransaction() bool {
	return h.tx != nil
}

// Close rolls back any open transaction and releases the file.
func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	defer release(h.path)
	var errs []error
	if h.tx != nil {
		if err := h.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			errs = append(errs, err)
		}
		h.tx = nil
	}
	if h.db != nil {
		if err := h.db.Close(); err != nil {
			errs = append(errs, err)
		}
		h.db = nil
	}
	return errors.Join(errs...)
}

func (h *Handle) ready() error {
	switch {
	case h.closed:
		return ErrClosed
	case !h.unlocked || h.db == nil:
		return ErrLocked
	}
	return nil
}

func (h *Handle) exec() DBTX {
	if h.tx != nil {
		return h.tx
	}
	return h.db
}

// ExecContext runs a statement in the open transaction, or on its own and
// then persists it.
func (h *Handle) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if err := h.ready(); err != nil {
		return nil, err
	}
	res, err := h.exec().ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if h.tx == nil {
		if err := h.flush(ctx); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (h *Handle) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if err := h.ready(); err != nil {
		return nil, err
	}
	return h.exec().QueryContext(ctx, query, args...)
}

// QueryRowContext on a locked or closed handle yields a row whose Scan reports
// that the database is closed.
func (h *Handle) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	if h.ready() != nil {
		return closedDB().QueryRowContext(ctx, query, args...)
	}
	return h.exec().QueryRowContext(ctx, query, args...)
}

var closedDB = sync.OnceValue(func() *sql.DB {
	db, _ := sql.Open(driverName, ":memory:")
	_ = db.Close()
	return db
})

// Now returns UTC time truncated to seconds (consistent with SQLite default).
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
