package models

import "github.com/shopspring/decimal"

// Reminder is an upcoming transaction inside the account's reminder threshold.
type Reminder struct {
	TransactionID uint
	Description   string
	Amount        decimal.Decimal
	Type          TransactionType
	Due           Date
	When          string
}

// ReminderLabel describes how far away due is from today.
func ReminderLabel(today, due Date) string {
	switch {
	case due.Equal(today.AddDays(1)):
		return "Tomorrow"
	case !due.After(today.AddDays(7)):
		return "One week from now"
	case !due.After(today.AddMonths(1)):
		return "One month from now"
	}
	return "Two months from now"
}
