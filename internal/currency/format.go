package currency

import (
	"fmt"
	"math"
	"strings"

	money "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Format renders amount with c's separators and style. With fixedPrecision the
// amount is rounded to c.DecimalDigits(); otherwise up to MaxDecimalDigits are
// kept, never fewer than c.DecimalDigits().
func Format(amount decimal.Decimal, c Currency, showSymbol, fixedPrecision bool) string {
	fraction := c.DecimalDigits()
	if !fixedPrecision {
		fraction = significantDigits(amount, fraction)
	}
	tpl := c.Style.template()
	if !showSymbol {
		tpl = "1"
	}
	minor := amount.Round(int32(fraction)).Shift(int32(fraction))
	if minor.Abs().GreaterThan(maxMinor) {
		return formatLarge(amount, fraction, c, tpl)
	}
	f := money.NewFormatter(fraction, c.DecimalSeparator(), c.GroupSeparator(), c.Symbol, tpl)
	return f.Format(minor.IntPart())
}

var maxMinor = decimal.NewFromInt(math.MaxInt64)

// formatLarge lays out amounts whose minor units overflow int64 the same way
// the money formatter does.
func formatLarge(amount decimal.Decimal, fraction int, c Currency, tpl string) string {
	digits := amount.Abs().StringFixed(int32(fraction))
	whole, frac, _ := strings.Cut(digits, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(c.GroupSeparator())
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteString(c.DecimalSeparator())
		b.WriteString(frac)
	}
	out := strings.Replace(tpl, "1", b.String(), 1)
	out = strings.Replace(out, "$", c.Symbol, 1)
	if amount.IsNegative() {
		out = "-" + out
	}
	return out
}

// FormatWithCode renders the amount followed by the ISO code instead of the symbol.
func FormatWithCode(amount decimal.Decimal, c Currency) string {
	return fmt.Sprintf("%s %s", Format(amount, c, false, true), c.Code)
}

func significantDigits(amount decimal.Decimal, min int) int {
	s := amount.Abs().StringFixed(MaxDecimalDigits)
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return min
	}
	frac := strings.TrimRight(s[i+1:], "0")
	if len(frac) < min {
		return min
	}
	return len(frac)
}

// ParseAmount reads a string written in c's style. It tolerates a missing
// symbol, missing group separators and a leading minus or parentheses.
func ParseAmount(s string, c Currency) (decimal.Decimal, error) {
	in := strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(in, "(") && strings.HasSuffix(in, ")") {
		neg = true
		in = in[1 : len(in)-1]
	}
	if c.Symbol != "" {
		in = strings.ReplaceAll(in, c.Symbol, "")
	}
	if c.Code != "" {
		in = strings.ReplaceAll(in, c.Code, "")
	}
	in = strings.TrimSpace(in)
	if strings.HasPrefix(in, "-") {
		neg = !neg
		in = strings.TrimSpace(in[1:])
	}
	if g := c.GroupSeparator(); g != "" {
		in = strings.ReplaceAll(in, g, "")
	}
	if d := c.DecimalSeparator(); d != "" && d != "." {
		in = strings.ReplaceAll(in, d, ".")
	}
	in = strings.ReplaceAll(in, " ", "")
	v, err := decimal.NewFromString(in)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if neg {
		v = v.Neg()
	}
	return v, nil
}
