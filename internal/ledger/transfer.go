package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jask/moneyvault/internal/models"
)

// SendTransfer records the outgoing side of tr as an expense of SourceAmount.
func (a *Account) SendTransfer(ctx context.Context, tr models.Transfer, description string) (models.Transaction, error) {
	t := models.NewTransaction(a.NextTransactionID())
	t.Date = a.today()
	t.Description = description
	t.Type = models.Expense
	t.Amount = tr.SourceAmount
	if _, err := a.AddTransaction(ctx, t); err != nil {
		return models.Transaction{}, fmt.Errorf("send transfer: %w", err)
	}
	return t, nil
}

// ReceiveTransfer records the incoming side of tr as income of the converted amount.
func (a *Account) ReceiveTransfer(ctx context.Context, tr models.Transfer, description string) (models.Transaction, error) {
	t := models.NewTransaction(a.NextTransactionID())
	t.Date = a.today()
	t.Description = description
	t.Type = models.Income
	t.Amount = tr.DestinationAmount()
	if _, err := a.AddTransaction(ctx, t); err != nil {
		return models.Transaction{}, fmt.Errorf("receive transfer: %w", err)
	}
	return t, nil
}

// Transfer moves tr.SourceAmount from a into the account file at
// tr.DestinationPath. Without an explicit rate, differing currencies are
// converted through the currency service.
func (a *Account) Transfer(ctx context.Context, tr models.Transfer) (sent, received models.Transaction, err error) {
	if !a.loggedIn {
		return sent, received, ErrLocked
	}
	if !tr.SourceAmount.IsPositive() {
		return sent, received, ErrNegativeAmount
	}
	dst, err := Open(tr.DestinationPath, a.opts)
	if err != nil {
		return sent, received, fmt.Errorf("open destination: %w", err)
	}
	defer func() { err = errors.Join(err, dst.Close()) }()

	ok, err := dst.Login(ctx, tr.DestinationPassword)
	if err != nil {
		return sent, received, fmt.Errorf("login destination: %w", err)
	}
	if !ok {
		return sent, received, ErrWrongPassword
	}

	if tr.ConversionRate.IsZero() {
		from, to := a.Currency().Code, dst.Currency().Code
		if from != to && a.opts.Currency != nil {
			rate, err := a.opts.Currency.Rate(ctx, from, to)
			if err != nil {
				return sent, received, fmt.Errorf("conversion rate: %w", err)
			}
			tr.ConversionRate = rate
		}
	}
	if tr.SourceAccountName == "" {
		tr.SourceAccountName = a.metadata.Name
	}

	sent, err = a.SendTransfer(ctx, tr, "Transfer To "+dst.Metadata().Name)
	if err != nil {
		return sent, received, err
	}
	received, err = dst.ReceiveTransfer(ctx, tr, "Transfer From "+tr.SourceAccountName)
	if err != nil {
		return sent, received, err
	}
	a.log.Info("transfer sent", "to", dst.Path(), "amount", tr.SourceAmount.String(), "rate", tr.ConversionRate.String())
	return sent, received, nil
}
