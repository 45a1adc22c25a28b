package models

import "github.com/jask/moneyvault/internal/currency"

type AccountType int

const (
	Checking AccountType = iota
	Savings
	Business
)

func (a AccountType) String() string {
	switch a {
	case Savings:
		return "savings"
	case Business:
		return "business"
	}
	return "checking"
}

type RemindersThreshold int

const (
	RemindNever RemindersThreshold = iota
	RemindOneDayBefore
	RemindOneWeekBefore
	RemindOneMonthBefore
	RemindTwoMonthsBefore
)

// Horizon returns the last date, seen from today, that falls inside the threshold.
func (r RemindersThreshold) Horizon(today Date) Date {
	switch r {
	case RemindOneDayBefore:
		return today.AddDays(1)
	case RemindOneWeekBefore:
		return today.AddDays(7)
	case RemindOneMonthBefore:
		return today.AddMonths(1)
	case RemindTwoMonthsBefore:
		return today.AddMonths(2)
	}
	return today
}

type SortBy int

const (
	SortByID SortBy = iota
	SortByDate
	SortByAmount
)

// AccountMetadata holds per-account preferences. It is replaced as a whole on save.
type AccountMetadata struct {
	Name                   string
	Type                   AccountType
	UseCustomCurrency      bool
	CustomCurrency         currency.Currency
	DefaultTransactionType TransactionType
	RemindersThreshold     RemindersThreshold
	ShowGroupsList         bool
	ShowTagsList           bool
	SortTransactionsBy     SortBy
	SortFirstToLast        bool
}

// DefaultMetadata is what a brand-new account starts with.
func DefaultMetadata(name string) AccountMetadata {
	return AccountMetadata{
		Name:                   name,
		Type:                   Checking,
		CustomCurrency:         currency.New("", ""),
		DefaultTransactionType: Income,
		RemindersThreshold:     RemindOneDayBefore,
		ShowGroupsList:         true,
		ShowTagsList:           true,
		SortTransactionsBy:     SortByID,
		SortFirstToLast:        true,
	}
}

// Currency picks the custom currency when enabled, else system.
func (m AccountMetadata) Currency(system currency.Currency) currency.Currency {
	if m.UseCustomCurrency {
		return m.CustomCurrency
	}
	return system
}
