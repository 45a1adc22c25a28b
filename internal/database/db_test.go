package database

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/moneyvault/internal/vault"
)

var testOpts = Options{KDF: vault.Params{Time: 1, Memory: 8 * 1024, Threads: 1}}

func openTest(t *testing.T, path string) *Handle {
	t.Helper()
	h, err := Open(path, testOpts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func countRows(t *testing.T, ctx context.Context, h *Handle) int {
	t.Helper()
	var n int
	require.NoError(t, h.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n))
	return n
}

func insertRow(t *testing.T, ctx context.Context, h *Handle, id int) {
	t.Helper()
	_, err := h.ExecContext(ctx, `INSERT INTO transactions(id, date, amount) VALUES(?, '1/2/2024', '5')`, id)
	require.NoError(t, err)
}

func TestPlainUnlockAndMigrate(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	h := openTest(t, filepath.Join(t.TempDir(), "plain.nmoney"))
	require.False(t, h.IsEncrypted())

	ok, err := h.Unlock(ctx, "something")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = h.Unlock(ctx, "")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = h.Unlock(ctx, "")
	require.NoError(t, err)
	require.True(t, ok)

	insertRow(t, ctx, h, 1)
	require.Equal(t, 1, countRows(t, ctx, h))

	var key string
	require.NoError(t, h.QueryRowContext(ctx, `SELECT fixdate(date) FROM transactions WHERE id = 1`).Scan(&key))
	require.Equal(t, "20240102", key)
}

func TestLockedHandleRefusesWork(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := openTest(t, filepath.Join(t.TempDir(), "locked.nmoney"))
	_, err := h.ExecContext(ctx, `SELECT 1`)
	require.ErrorIs(t, err, ErrLocked)
	require.ErrorIs(t, h.Begin(ctx), ErrLocked)

	var n int
	require.Error(t, h.QueryRowContext(ctx, `SELECT 1`).Scan(&n))
}

func TestSecondOpenRejected(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "once.nmoney")
	h, err := Open(path, testOpts)
	require.NoError(t, err)

	_, err = Open(path, testOpts)
	require.ErrorIs(t, err, ErrAlreadyOpen)

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())

	again, err := Open(path, testOpts)
	require.NoError(t, err)
	require.NoError(t, again.Close())
}

func TestOpenResolvesSymlinkedDirForNewFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	real := filepath.Join(dir, "real")
	require.NoError(t, os.Mkdir(real, 0o755))
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(real, link))

	h := openTest(t, filepath.Join(real, "new.nmoney"))
	_, err := Open(filepath.Join(link, "new.nmoney"), testOpts)
	require.ErrorIs(t, err, ErrAlreadyOpen)
	resolved, err := filepath.EvalSymlinks(real)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(resolved, "new.nmoney"), h.Path())
}

func TestGuardIsNotReentrant(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := openTest(t, filepath.Join(t.TempDir(), "guard.nmoney"))
	_, err := h.Unlock(ctx, "")
	require.NoError(t, err)

	require.ErrorIs(t, h.Commit(ctx), ErrNoTransaction)
	require.ErrorIs(t, h.Rollback(), ErrNoTransaction)

	require.NoError(t, h.Begin(ctx))
	require.ErrorIs(t, h.Begin(ctx), ErrTransactionInProgress)
	insertRow(t, ctx, h, 1)
	require.ErrorIs(t, h.ChangePassword(ctx, "pw"), ErrTransactionInProgress)
	require.NoError(t, h.Rollback())
	require.Equal(t, 0, countRows(t, ctx, h))

	require.NoError(t, h.Begin(ctx))
	insertRow(t, ctx, h, 2)
	require.NoError(t, h.Commit(ctx))
	require.Equal(t, 1, countRows(t, ctx, h))
}

func TestChangePasswordTransitions(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	path := filepath.Join(t.TempDir(), "secret.nmoney")

	h, err := Open(path, testOpts)
	require.NoError(t, err)
	_, err = h.Unlock(ctx, "")
	require.NoError(t, err)
	insertRow(t, ctx, h, 1)
	insertRow(t, ctx, h, 2)

	require.NoError(t, h.ChangePassword(ctx, "first"))
	require.True(t, h.IsEncrypted())
	insertRow(t, ctx, h, 3)
	require.NoError(t, h.Close())

	sealed, err := vault.IsSealed(path)
	require.NoError(t, err)
	require.True(t, sealed)

	h, err = Open(path, testOpts)
	require.NoError(t, err)
	require.True(t, h.IsEncrypted())
	ok, err := h.Unlock(ctx, "wrong")
	require.NoError(t, err)
	require.False(t, ok)
	ok, err = h.Unlock(ctx, "")
	require.NoError(t, err)
	require.False(t, ok)
	ok, err = h.Unlock(ctx, "first")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 3, countRows(t, ctx, h))

	require.NoError(t, h.ChangePassword(ctx, "second"))
	require.NoError(t, h.Close())

	h, err = Open(path, testOpts)
	require.NoError(t, err)
	ok, err = h.Unlock(ctx, "first")
	require.NoError(t, err)
	require.False(t, ok)
	ok, err = h.Unlock(ctx, "second")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, h.ChangePassword(ctx, ""))
	require.False(t, h.IsEncrypted())
	insertRow(t, ctx, h, 4)
	require.NoError(t, h.Close())

	h = openTest(t, path)
	require.False(t, h.IsEncrypted())
	ok, err = h.Unlock(ctx, "")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 4, countRows(t, ctx, h))
}

func TestMigrateAddsLegacyColumns(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "legacy.nmoney")

	legacy, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = legacy.Exec(`
	CREATE TABLE metadata (id INTEGER PRIMARY KEY, name TEXT, type INTEGER, useCustomCurrency INTEGER,
	 customSymbol TEXT, customCode TEXT, defaultTransactionType INTEGER, showGroupsList INTEGER, sortFirstToLast INTEGER);
	CREATE TABLE "groups" (id INTEGER PRIMARY KEY, name TEXT, description TEXT, rgba TEXT);
	CREATE TABLE transactions (id INTEGER PRIMARY KEY, date TEXT, description TEXT, type INTEGER, repeat INTEGER,
	 amount TEXT, gid INTEGER, rgba TEXT);
	INSERT INTO transactions VALUES (1, '3/4/2023', 'old', 1, 0, '9.99', -1, '#ffffffff');`)
	require.NoError(t, err)
	require.NoError(t, legacy.Close())

	h := openTest(t, path)
	ok, err := h.Unlock(ctx, "")
	require.NoError(t, err)
	require.True(t, ok)

	cols, err := tableColumns(ctx, h.db, "transactions")
	require.NoError(t, err)
	for _, c := range []string{"receipt", "repeatfrom", "repeatenddate", "usegroupcolor", "notes", "tags"} {
		require.True(t, cols[c], c)
	}
	var tags string
	var from int
	require.NoError(t, h.QueryRowContext(ctx, `SELECT tags, repeatFrom FROM transactions WHERE id = 1`).Scan(&tags, &from))
	require.Equal(t, "", tags)
	require.Equal(t, -1, from)

	changed, err := Migrate(ctx, h.db)
	require.NoError(t, err)
	require.False(t, changed)
}
