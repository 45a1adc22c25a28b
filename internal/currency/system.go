package currency

import (
	"os"
	"strings"

	money "github.com/Rhymond/go-money"
	xcurrency "golang.org/x/text/currency"
	"golang.org/x/text/language"
)

// FromCode builds a Currency from the ISO 4217 table. Unknown codes fall back to USD.
func FromCode(code string) Currency {
	m := money.GetCurrency(strings.ToUpper(strings.TrimSpace(code)))
	if m == nil {
		m = money.GetCurrency(money.USD)
	}
	c := New(m.Grapheme, m.Code)
	c.Style = styleFromTemplate(m.Template)
	c.SetDecimalSeparator(m.Decimal)
	if !c.SetGroupSeparator(m.Thousand) {
		c.SetGroupSeparator("")
	}
	c.SetDecimalDigits(m.Fraction)
	return c
}

// ForLocale resolves the currency used in a POSIX or BCP 47 locale such as
// "de_DE.UTF-8" or "en-GB".
func ForLocale(locale string) Currency {
	tag, ok := parseLocale(locale)
	if !ok {
		return FromCode(money.USD)
	}
	unit, conf := xcurrency.FromTag(tag)
	if conf == language.No {
		return FromCode(money.USD)
	}
	return FromCode(unit.String())
}

// LocaleFromEnv reads LC_ALL, LC_MONETARY and LANG in that order.
func LocaleFromEnv() string {
	for _, key := range []string{"LC_ALL", "LC_MONETARY", "LANG"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

func parseLocale(locale string) (language.Tag, bool) {
	locale = strings.TrimSpace(locale)
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	if locale == "" || locale == "C" || locale == "POSIX" {
		return language.Und, false
	}
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return language.Und, false
	}
	return tag, true
}
