package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate brings db to the latest schema and adds columns that older account
// files lack. It never drops data. changed reports whether anything was applied.
func Migrate(ctx context.Context, db *sql.DB) (changed bool, err error) {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return false, err
	}
	defer src.Close()
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return false, err
	}
	// m.Close would close db as well, so only the source is closed.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return false, err
	}
	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
	case err != nil:
		return false, err
	default:
		changed = true
	}
	added, err := ensureColumns(ctx, db)
	if err != nil {
		return changed, err
	}
	return changed || added > 0, nil
}

type column struct {
	name string
	decl string
}

// Columns introduced after the first release of the file format.
var lateColumns = map[string][]column{
	"metadata": {
		{"sortTransactionsBy", "INTEGER NOT NULL DEFAULT 0"},
		{"customDecimalSeparator", "TEXT NOT NULL DEFAULT '.'"},
		{"customGroupSeparator", "TEXT NOT NULL DEFAULT ','"},
		{"customDecimalDigits", "INTEGER NOT NULL DEFAULT 2"},
		{"showTagsList", "INTEGER NOT NULL DEFAULT 1"},
		{"transactionRemindersThreshold", "INTEGER NOT NULL DEFAULT 1"},
		{"customAmountStyle", "INTEGER NOT NULL DEFAULT 0"},
	},
	"groups": {
		{"description", "TEXT NOT NULL DEFAULT ''"},
		{"rgba", "TEXT NOT NULL DEFAULT ''"},
	},
	"transactions": {
		{"gid", "INTEGER NOT NULL DEFAULT -1"},
		{"rgba", "TEXT NOT NULL DEFAULT ''"},
		{"receipt", "TEXT NOT NULL DEFAULT ''"},
		{"repeatFrom", "INTEGER NOT NULL DEFAULT -1"},
		{"repeatEndDate", "TEXT NOT NULL DEFAULT ''"},
		{"useGroupColor", "INTEGER NOT NULL DEFAULT 0"},
		{"notes", "TEXT NOT NULL DEFAULT ''"},
		{"tags", "TEXT NOT NULL DEFAULT ''"},
	},
}

func ensureColumns(ctx context.Context, db *sql.DB) (int, error) {
	added := 0
	for _, table := range []string{"metadata", "groups", "transactions"} {
		have, err := tableColumns(ctx, db, table)
		if err != nil {
			return added, err
		}
		for _, c := range lateColumns[table] {
			if have[strings.ToLower(c.name)] {
				continue
			}
			stmt := fmt.Sprintf(`ALTER TABLE %q ADD COLUMN %s %s`, table, c.name, c.decl)
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return added, fmt.Errorf("add %s.%s: %w", table, c.name, err)
			}
			added++
		}
	}
	// Indexes go last: legacy tables only gain these columns above.
	for _, stmt := range []string{
		`CREATE INDEX IF NOT EXISTS idx_transactions_gid ON transactions(gid)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_repeat_from ON transactions(repeatFrom)`,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return added, err
		}
	}
	return added, nil
}

func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%q)`, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notnull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols[strings.ToLower(name)] = true
	}
	return cols, rows.Err()
}
