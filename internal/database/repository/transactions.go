package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jask/moneyvault/internal/database"
	"github.com/jask/moneyvault/internal/models"
)

// Columns added by ALTER in older files may hold NULL.
const transactionColumns = `id, COALESCE(date, ''), COALESCE(description, ''), COALESCE(type, 0),
 COALESCE(repeat, 0), COALESCE(amount, '0'), COALESCE(gid, -1), COALESCE(rgba, ''),
 COALESCE(receipt, ''), COALESCE(repeatFrom, -1), COALESCE(repeatEndDate, ''),
 COALESCE(useGroupColor, 0), COALESCE(notes, ''), COALESCE(tags, '')`

func (r *Repository) GetTransactions(ctx context.Context) ([]models.Transaction, error) {
	rows, err := r.h.QueryContext(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTransaction returns nil when no row has id.
func (r *Repository) GetTransaction(ctx context.Context, id uint) (*models.Transaction, error) {
	row := r.h.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *Repository) AddTransaction(ctx context.Context, t models.Transaction) error {
	_, err := r.h.ExecContext(ctx, `
	INSERT INTO transactions(
	 id, date, description, type, repeat, amount, gid, rgba, receipt,
	 repeatFrom, repeatEndDate, useGroupColor, notes, tags)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`,
		t.ID, t.Date.String(), t.Description, int(t.Type), int(t.RepeatInterval), t.Amount.String(),
		t.GroupID, t.Color.Hex(), t.Receipt.Encode(), t.RepeatFrom, t.RepeatEndDate.String(),
		boolInt(t.UseGroupColor), t.Notes, models.JoinTags(t.Tags))
	return err
}

// UpdateTransaction rewrites t. When t is a repeat source, its generated rows
// either follow the new values (updateGenerated) or are detached from it.
func (r *Repository) UpdateTransaction(ctx context.Context, t models.Transaction, updateGenerated bool) error {
	return r.h.WithTx(ctx, func(tx database.DBTX) error {
		res, err := tx.ExecContext(ctx, `
		UPDATE transactions SET
		 date = ?, description = ?, type = ?, repeat = ?, amount = ?, gid = ?, rgba = ?,
		 receipt = ?, repeatFrom = ?, repeatEndDate = ?, useGroupColor = ?, notes = ?, tags = ?
		WHERE id = ?`,
			t.Date.String(), t.Description, int(t.Type), int(t.RepeatInterval), t.Amount.String(),
			t.GroupID, t.Color.Hex(), t.Receipt.Encode(), t.RepeatFrom, t.RepeatEndDate.String(),
			boolInt(t.UseGroupColor), t.Notes, models.JoinTags(t.Tags), t.ID)
		if err != nil {
			return err
		}
		if err := affected(res); err != nil {
			return err
		}
		if t.RepeatFrom != models.RepeatSource {
			return nil
		}
		if updateGenerated {
			_, err = tx.ExecContext(ctx, `
			UPDATE transactions SET
			 description = ?, type = ?, repeat = ?, amount = ?, gid = ?, rgba = ?, useGroupColor = ?,
			 receipt = ?, repeatEndDate = ?, notes = ?, tags = ?
			WHERE repeatFrom = ?`,
				t.Description, int(t.Type), int(t.RepeatInterval), t.Amount.String(), t.GroupID,
				t.Color.Hex(), boolInt(t.UseGroupColor), t.Receipt.Encode(), t.RepeatEndDate.String(),
				t.Notes, models.JoinTags(t.Tags), int(t.ID))
			return err
		}
		return detachGenerated(ctx, tx, t.ID)
	})
}

// DeleteTransaction removes the row with id. Rows generated from it are
// deleted as well with deleteGenerated, otherwise detached.
func (r *Repository) DeleteTransaction(ctx context.Context, id uint, deleteGenerated bool) error {
	return r.h.WithTx(ctx, func(tx database.DBTX) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if err := affected(res); err != nil {
			return err
		}
		if deleteGenerated {
			_, err = tx.ExecContext(ctx, `DELETE FROM transactions WHERE repeatFrom = ?`, int(id))
			return err
		}
		return detachGenerated(ctx, tx, id)
	})
}

// DeleteGeneratedTransactions removes every row generated from sourceID.
func (r *Repository) DeleteGeneratedTransactions(ctx context.Context, sourceID uint) error {
	_, err := r.h.ExecContext(ctx, `DELETE FROM transactions WHERE repeatFrom = ?`, int(sourceID))
	return err
}

func detachGenerated(ctx context.Context, tx database.DBTX, sourceID uint) error {
	_, err := tx.ExecContext(ctx, `UPDATE transactions SET repeat = ?, repeatFrom = ?, repeatEndDate = '' WHERE repeatFrom = ?`,
		int(models.RepeatNever), models.NotRepeating, int(sourceID))
	return err
}

// GetTags returns every distinct tag in first-seen order by transaction id.
func (r *Repository) GetTags(ctx context.Context) ([]string, error) {
	rows, err := r.h.QueryContext(ctx, `SELECT tags FROM transactions WHERE tags != '' ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var all []string
	for rows.Next() {
		var joined string
		if err := rows.Scan(&joined); err != nil {
			return nil, err
		}
		all = append(all, models.SplitTags(joined)...)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return models.NormalizeTags(all), nil
}

// scanner handles both Row and Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (models.Transaction, error) {
	var (
		t                          models.Transaction
		id                         int64
		date, amount               string
		typ, repeat, useGroupColor int
		description, notes, tags   sql.NullString
		rgba, receipt, endDate     sql.NullString
	)
	if err := row.Scan(&id, &date, &description, &typ, &repeat, &amount, &t.GroupID, &rgba, &receipt,
		&t.RepeatFrom, &endDate, &useGroupColor, &notes, &tags); err != nil {
		return models.Transaction{}, err
	}
	t.ID = uint(id)
	t.Description = description.String
	t.Type = models.TransactionType(typ)
	t.RepeatInterval = models.RepeatInterval(repeat)
	t.Color = models.ParseColor(rgba.String)
	t.UseGroupColor = useGroupColor != 0
	t.Notes = notes.String
	t.Tags = models.SplitTags(tags.String)

	var err error
	if t.Date, err = models.ParseDate(date); err != nil {
		return models.Transaction{}, fmt.Errorf("transaction %d: %w", id, err)
	}
	if t.RepeatEndDate, err = models.ParseDate(endDate.String); err != nil {
		return models.Transaction{}, fmt.Errorf("transaction %d: %w", id, err)
	}
	if t.Amount, err = parseStoredAmount(amount); err != nil {
		return models.Transaction{}, fmt.Errorf("transaction %d: %w", id, err)
	}
	if t.Receipt, err = models.DecodeReceipt(receipt.String); err != nil {
		return models.Transaction{}, fmt.Errorf("transaction %d: %w", id, err)
	}
	return t, nil
}

// parseStoredAmount also accepts a comma decimal, which older files may hold.
func parseStoredAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	if v, err := decimal.NewFromString(s); err == nil {
		return v, nil
	}
	return decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
}
