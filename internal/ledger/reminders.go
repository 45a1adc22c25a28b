package ledger

import (
	"context"
	"fmt"

	"github.com/jask/moneyvault/internal/models"
)

// TransactionReminders lists transactions due after today and within the
// account's reminders threshold, soonest first.
func (a *Account) TransactionReminders(ctx context.Context) ([]models.Reminder, error) {
	if !a.loggedIn {
		return nil, ErrLocked
	}
	threshold := a.metadata.RemindersThreshold
	if threshold == models.RemindNever {
		return nil, nil
	}
	today := a.today()
	upcoming, err := a.repo.GetUpcomingTransactions(ctx, today, threshold.Horizon(today))
	if err != nil {
		return nil, fmt.Errorf("upcoming transactions: %w", err)
	}
	out := make([]models.Reminder, 0, len(upcoming))
	for _, u := range upcoming {
		if !u.Due.After(today) {
			continue
		}
		out = append(out, models.Reminder{
			TransactionID: u.Transaction.ID,
			Description:   u.Transaction.Description,
			Amount:        u.Transaction.Amount,
			Type:          u.Transaction.Type,
			Due:           u.Due,
			When:          models.ReminderLabel(today, u.Due),
		})
	}
	return out, nil
}
