package repository

import (
	"context"
	"sort"

	"github.com/jask/moneyvault/internal/models"
)

// Upcoming is a reminder feed entry: the transaction and the date it is next due.
type Upcoming struct {
	Transaction models.Transaction
	Due         models.Date
}

// GetUpcomingTransactions returns, for each repeat series, its latest
// occurrence when the next occurrence falls on or before threshold (and not
// past the series end), plus one-off transactions dated after today and on or
// before threshold. Results are ordered by due date.
func (r *Repository) GetUpcomingTransactions(ctx context.Context, today, threshold models.Date) ([]Upcoming, error) {
	rows, err := r.h.QueryContext(ctx, `
	SELECT `+transactionColumns+` FROM transactions t
	WHERE t.repeat != 0 AND t.repeatFrom >= 0
	 AND fixdate(t.date) = (
	  SELECT MAX(fixdate(u.date)) FROM transactions u
	  WHERE u.id = CASE WHEN t.repeatFrom = 0 THEN t.id ELSE t.repeatFrom END
	     OR u.repeatFrom = CASE WHEN t.repeatFrom = 0 THEN t.id ELSE t.repeatFrom END)
	ORDER BY fixdate(t.date), t.id`)
	if err != nil {
		return nil, err
	}
	var out []Upcoming
	seen := make(map[uint]struct{})
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		series := t.ID
		if t.IsGenerated() {
			series = uint(t.RepeatFrom)
		}
		if _, ok := seen[series]; ok {
			continue
		}
		seen[series] = struct{}{}
		due := t.RepeatInterval.Next(t.Date)
		if t.Date.After(today) {
			due = t.Date
		}
		if due.After(threshold) || (t.HasEndDate() && due.After(t.RepeatEndDate)) {
			continue
		}
		out = append(out, Upcoming{Transaction: t, Due: due})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	rows, err = r.h.QueryContext(ctx, `
	SELECT `+transactionColumns+` FROM transactions
	WHERE repeat = 0 AND fixdate(date) > ? AND fixdate(date) <= ?
	ORDER BY fixdate(date), id`, today.ISO(), threshold.ISO())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, Upcoming{Transaction: t, Due: t.Date})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Due.Before(out[j].Due) })
	return out, nil
}
