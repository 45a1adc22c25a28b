// Package currency describes how amounts are written for an account and
// converts between currencies.
package currency

import "strings"

// AmountStyle controls where the symbol sits relative to the number.
type AmountStyle int

const (
	SymbolNumber AmountStyle = iota
	NumberSymbol
	SymbolSpaceNumber
	NumberSpaceSymbol
)

func (s AmountStyle) template() string {
	switch s {
	case NumberSymbol:
		return "1$"
	case SymbolSpaceNumber:
		return "$ 1"
	case NumberSpaceSymbol:
		return "1 $"
	}
	return "$1"
}

func (s AmountStyle) symbolFirst() bool {
	return s == SymbolNumber || s == SymbolSpaceNumber
}

func styleFromTemplate(tpl string) AmountStyle {
	switch tpl {
	case "1$":
		return NumberSymbol
	case "$ 1":
		return SymbolSpaceNumber
	case "1 $":
		return NumberSpaceSymbol
	}
	return SymbolNumber
}

// CheckStatus is a bit set of validation results.
type CheckStatus int

const (
	Valid                         CheckStatus = 1
	EmptySymbol                   CheckStatus = 2
	EmptyCode                     CheckStatus = 4
	EmptyDecimalSeparator         CheckStatus = 8
	SameSeparators                CheckStatus = 16
	SameSymbolAndDecimalSeparator CheckStatus = 32
	SameSymbolAndGroupSeparator   CheckStatus = 64
)

// Has reports whether flag is set.
func (s CheckStatus) Has(flag CheckStatus) bool { return s&flag != 0 }

func (s CheckStatus) String() string {
	if s == Valid {
		return "valid"
	}
	var parts []string
	names := []struct {
		flag CheckStatus
		name string
	}{
		{EmptySymbol, "empty symbol"},
		{EmptyCode, "empty code"},
		{EmptyDecimalSeparator, "empty decimal separator"},
		{SameSeparators, "decimal and group separators match"},
		{SameSymbolAndDecimalSeparator, "symbol matches decimal separator"},
		{SameSymbolAndGroupSeparator, "symbol matches group separator"},
	}
	for _, n := range names {
		if s.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, ", ")
}

const (
	MinDecimalDigits = 2
	MaxDecimalDigits = 6
)

// Currency is the display definition of an account's money.
type Currency struct {
	Symbol string
	Code   string
	Style  AmountStyle

	decimalSeparator string
	groupSeparator   string
	decimalDigits    int
}

// New returns a currency with "." decimals, "," grouping and two digits.
func New(symbol, code string) Currency {
	return Currency{
		Symbol:           symbol,
		Code:             code,
		decimalSeparator: ".",
		groupSeparator:   ",",
		decimalDigits:    MinDecimalDigits,
	}
}

func (c Currency) DecimalSeparator() string { return c.decimalSeparator }
func (c Currency) GroupSeparator() string   { return c.groupSeparator }

func (c Currency) DecimalDigits() int {
	if c.decimalDigits < MinDecimalDigits {
		return MinDecimalDigits
	}
	return c.decimalDigits
}

// SetDecimalSeparator always applies; Validate reports collisions.
func (c *Currency) SetDecimalSeparator(sep string) {
	c.decimalSeparator = sep
}

// SetGroupSeparator refuses a value equal to the decimal separator.
func (c *Currency) SetGroupSeparator(sep string) bool {
	if sep != "" && sep == c.decimalSeparator {
		return false
	}
	c.groupSeparator = sep
	return true
}

// SetDecimalDigits clamps n into [MinDecimalDigits, MaxDecimalDigits].
func (c *Currency) SetDecimalDigits(n int) {
	switch {
	case n < MinDecimalDigits:
		n = MinDecimalDigits
	case n > MaxDecimalDigits:
		n = MaxDecimalDigits
	}
	c.decimalDigits = n
}

// Validate returns Valid or the union of every failed check.
func (c Currency) Validate() CheckStatus {
	var s CheckStatus
	if strings.TrimSpace(c.Symbol) == "" {
		s |= EmptySymbol
	}
	if strings.TrimSpace(c.Code) == "" {
		s |= EmptyCode
	}
	if c.decimalSeparator == "" {
		s |= EmptyDecimalSeparator
	}
	if c.decimalSeparator != "" && c.decimalSeparator == c.groupSeparator {
		s |= SameSeparators
	}
	if c.Symbol != "" && c.Symbol == c.decimalSeparator {
		s |= SameSymbolAndDecimalSeparator
	}
	if c.Symbol != "" && c.Symbol == c.groupSeparator {
		s |= SameSymbolAndGroupSeparator
	}
	if s == 0 {
		return Valid
	}
	return s
}
