package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jask/moneyvault/internal/currency"
	"github.com/jask/moneyvault/internal/models"
)

const metadataID = 0

// GetMetadata reads the account's metadata row, seeding defaults named
// defaultName when the row does not exist yet.
func (r *Repository) GetMetadata(ctx context.Context, defaultName string) (models.AccountMetadata, error) {
	row := r.h.QueryRowContext(ctx, `
	SELECT COALESCE(name, ''), COALESCE(type, 0), COALESCE(useCustomCurrency, 0),
	 COALESCE(customSymbol, ''), COALESCE(customCode, ''), COALESCE(defaultTransactionType, 0),
	 COALESCE(showGroupsList, 1), COALESCE(sortFirstToLast, 1), COALESCE(sortTransactionsBy, 0),
	 COALESCE(customDecimalSeparator, '.'), COALESCE(customGroupSeparator, ','),
	 COALESCE(customDecimalDigits, 2), COALESCE(showTagsList, 1),
	 COALESCE(transactionRemindersThreshold, 1), COALESCE(customAmountStyle, 0)
	FROM metadata WHERE id = ?`, metadataID)

	var (
		m                            models.AccountMetadata
		useCustom, showGroups        int
		firstToLast, showTags        int
		symbol, code, decSep, grpSep string
		digits, style                int
	)
	err := row.Scan(&m.Name, &m.Type, &useCustom, &symbol, &code, &m.DefaultTransactionType,
		&showGroups, &firstToLast, &m.SortTransactionsBy, &decSep, &grpSep, &digits, &showTags,
		&m.RemindersThreshold, &style)
	if errors.Is(err, sql.ErrNoRows) {
		m = models.DefaultMetadata(defaultName)
		if err := r.SetMetadata(ctx, m); err != nil {
			return models.AccountMetadata{}, err
		}
		return m, nil
	}
	if err != nil {
		return models.AccountMetadata{}, err
	}
	m.UseCustomCurrency = useCustom != 0
	m.ShowGroupsList = showGroups != 0
	m.SortFirstToLast = firstToLast != 0
	m.ShowTagsList = showTags != 0

	c := currency.New(symbol, code)
	c.Style = currency.AmountStyle(style)
	c.SetDecimalSeparator(decSep)
	c.SetGroupSeparator(grpSep)
	c.SetDecimalDigits(digits)
	m.CustomCurrency = c
	return m, nil
}

// SetMetadata replaces the metadata row as a whole.
func (r *Repository) SetMetadata(ctx context.Context, m models.AccountMetadata) error {
	c := m.CustomCurrency
	_, err := r.h.ExecContext(ctx, `
	INSERT INTO metadata(
	 id, name, type, useCustomCurrency, customSymbol, customCode, defaultTransactionType,
	 showGroupsList, sortFirstToLast, sortTransactionsBy, customDecimalSeparator,
	 customGroupSeparator, customDecimalDigits, showTagsList, transactionRemindersThreshold,
	 customAmountStyle)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 name=excluded.name,
	 type=excluded.type,
	 useCustomCurrency=excluded.useCustomCurrency,
	 customSymbol=excluded.customSymbol,
	 customCode=excluded.customCode,
	 defaultTransactionType=excluded.defaultTransactionType,
	 showGroupsList=excluded.showGroupsList,
	 sortFirstToLast=excluded.sortFirstToLast,
	 sortTransactionsBy=excluded.sortTransactionsBy,
	 customDecimalSeparator=excluded.customDecimalSeparator,
	 customGroupSeparator=excluded.customGroupSeparator,
	 customDecimalDigits=excluded.customDecimalDigits,
	 showTagsList=excluded.showTagsList,
	 transactionRemindersThreshold=excluded.transactionRemindersThreshold,
	 customAmountStyle=excluded.customAmountStyle;
	`,
		metadataID, m.Name, int(m.Type), boolInt(m.UseCustomCurrency), c.Symbol, c.Code,
		int(m.DefaultTransactionType), boolInt(m.ShowGroupsList), boolInt(m.SortFirstToLast),
		int(m.SortTransactionsBy), c.DecimalSeparator(), c.GroupSeparator(), c.DecimalDigits(),
		boolInt(m.ShowTagsList), int(m.RemindersThreshold), int(c.Style))
	return err
}
