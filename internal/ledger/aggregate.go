package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/jask/moneyvault/internal/models"
)

// Income sums income amounts over every transaction.
func (a *Account) Income() decimal.Decimal { return a.IncomeOf(nil) }

// Expense sums expense amounts over every transaction, as a positive figure.
func (a *Account) Expense() decimal.Decimal { return a.ExpenseOf(nil) }

// Total is income minus expense.
func (a *Account) Total() decimal.Decimal { return a.TotalOf(nil) }

// IncomeOf restricts Income to ids; nil means all. Unknown ids are ignored.
func (a *Account) IncomeOf(ids []uint) decimal.Decimal {
	return a.sum(ids, func(t models.Transaction) decimal.Decimal {
		if t.Type == models.Income {
			return t.Amount
		}
		return decimal.Zero
	})
}

func (a *Account) ExpenseOf(ids []uint) decimal.Decimal {
	return a.sum(ids, func(t models.Transaction) decimal.Decimal {
		if t.Type == models.Expense {
			return t.Amount
		}
		return decimal.Zero
	})
}

func (a *Account) TotalOf(ids []uint) decimal.Decimal {
	return a.sum(ids, models.Transaction.Signed)
}

func (a *Account) sum(ids []uint, value func(models.Transaction) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	if ids == nil {
		for _, t := range a.transactions {
			total = total.Add(value(t))
		}
		return total
	}
	for _, id := range ids {
		if t, ok := a.transactions[id]; ok {
			total = total.Add(value(t))
		}
	}
	return total
}

// GroupIncome reads the balance cache of group gid, restricted to ids unless nil.
func (a *Account) GroupIncome(gid int, ids []uint) decimal.Decimal {
	g, ok := a.groups[gid]
	switch {
	case !ok:
		return decimal.Zero
	case ids == nil:
		return g.Income()
	}
	return g.IncomeOf(ids)
}

// GroupExpense is positive like Expense.
func (a *Account) GroupExpense(gid int, ids []uint) decimal.Decimal {
	g, ok := a.groups[gid]
	switch {
	case !ok:
		return decimal.Zero
	case ids == nil:
		return g.Expense().Neg()
	}
	return g.ExpenseOf(ids).Neg()
}

func (a *Account) GroupTotal(gid int, ids []uint) decimal.Decimal {
	g, ok := a.groups[gid]
	switch {
	case !ok:
		return decimal.Zero
	case ids == nil:
		return g.Balance()
	}
	return g.BalanceOf(ids)
}
