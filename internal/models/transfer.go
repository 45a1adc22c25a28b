package models

import "github.com/shopspring/decimal"

// Transfer moves money from the open account into another account file.
type Transfer struct {
	SourceAccountName   string
	DestinationPath     string
	DestinationPassword string
	SourceAmount        decimal.Decimal
	// ConversionRate is destination units per source unit; zero means 1.
	ConversionRate decimal.Decimal
}

func (t Transfer) DestinationAmount() decimal.Decimal {
	if t.ConversionRate.IsZero() {
		return t.SourceAmount
	}
	return t.SourceAmount.Mul(t.ConversionRate)
}
