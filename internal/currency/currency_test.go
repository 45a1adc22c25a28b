package currency

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestGroupSeparatorCollisionRejected(t *testing.T) {
	t.Parallel()

	c := New("$", "USD")
	c.SetDecimalSeparator(",")
	require.False(t, c.SetGroupSeparator(","))
	require.Equal(t, ",", c.DecimalSeparator())

	status := c.Validate()
	require.True(t, status.Has(SameSeparators))
	require.False(t, status.Has(Valid))
}

func TestValidateAccumulatesFlags(t *testing.T) {
	t.Parallel()

	c := New("", "")
	c.SetDecimalSeparator("")
	status := c.Validate()
	require.True(t, status.Has(EmptySymbol))
	require.True(t, status.Has(EmptyCode))
	require.True(t, status.Has(EmptyDecimalSeparator))

	c = New(".", "XXX")
	require.True(t, c.Validate().Has(SameSymbolAndDecimalSeparator))
	c = New(",", "XXX")
	require.True(t, c.Validate().Has(SameSymbolAndGroupSeparator))

	require.Equal(t, Valid, New("$", "USD").Validate())
}

func TestDecimalDigitsClamped(t *testing.T) {
	t.Parallel()

	c := New("$", "USD")
	c.SetDecimalDigits(0)
	require.Equal(t, 2, c.DecimalDigits())
	c.SetDecimalDigits(9)
	require.Equal(t, 6, c.DecimalDigits())
}

func TestFormat(t *testing.T) {
	t.Parallel()

	usd := New("$", "USD")
	require.Equal(t, "$12,347.89", Format(decimal.RequireFromString("12347.89"), usd, true, true))
	require.Equal(t, "-$5.50", Format(decimal.RequireFromString("-5.5"), usd, true, true))
	require.Equal(t, "12,347.89", Format(decimal.RequireFromString("12347.89"), usd, false, true))

	after := usd
	after.Style = NumberSymbol
	require.Equal(t, "-5.50$", Format(decimal.RequireFromString("-5.5"), after, true, true))

	spaced := usd
	spaced.Style = NumberSpaceSymbol
	require.Equal(t, "1,000.00 $", Format(decimal.NewFromInt(1000), spaced, true, true))
}

func TestFormatFlexiblePrecision(t *testing.T) {
	t.Parallel()

	usd := New("$", "USD")
	require.Equal(t, "$1.2345", Format(decimal.RequireFromString("1.2345"), usd, true, false))
	require.Equal(t, "$1.20", Format(decimal.RequireFromString("1.2"), usd, true, false))
	require.Equal(t, "$1.23", Format(decimal.RequireFromString("1.2345"), usd, true, true))
}

func TestFormatBeyondInt64MinorUnits(t *testing.T) {
	t.Parallel()

	usd := New("$", "USD")
	usd.SetDecimalDigits(6)
	huge := decimal.RequireFromString("-20000000000000.123456")
	require.Equal(t, "-$20,000,000,000,000.123456", Format(huge, usd, true, true))
	require.Equal(t, "20,000,000,000,000.123456", Format(huge.Abs(), usd, false, true))

	two := New("$", "USD")
	v := decimal.RequireFromString("-12347.89")
	require.Equal(t, Format(v, two, true, true), formatLarge(v, 2, two, two.Style.template()))
}

func TestFormatCustomSeparators(t *testing.T) {
	t.Parallel()

	eur := New("€", "EUR")
	eur.SetDecimalSeparator(",")
	require.True(t, eur.SetGroupSeparator("."))
	eur.Style = NumberSpaceSymbol
	require.Equal(t, "1.567,21 €", Format(decimal.RequireFromString("1567.21"), eur, true, true))
}

func TestParseAmount(t *testing.T) {
	t.Parallel()

	c := New("#", "XTS")
	c.SetDecimalSeparator(",")
	require.True(t, c.SetGroupSeparator("."))

	v, err := ParseAmount("1.567,21 #", c)
	require.NoError(t, err)
	require.True(t, v.Equal(decimal.RequireFromString("1567.21")))

	v, err = ParseAmount("(12,50)", c)
	require.NoError(t, err)
	require.True(t, v.Equal(decimal.RequireFromString("-12.5")))

	_, err = ParseAmount("abc", c)
	require.Error(t, err)
}

func TestForLocale(t *testing.T) {
	t.Parallel()

	require.Equal(t, "USD", ForLocale("en_US.UTF-8").Code)
	require.Equal(t, "EUR", ForLocale("de_DE.UTF-8").Code)
	require.Equal(t, "USD", ForLocale("C").Code)
	require.Equal(t, "USD", ForLocale("").Code)
}

type countingSource struct {
	calls int
	rate  decimal.Decimal
}

func (c *countingSource) Rate(context.Context, string, string) (decimal.Decimal, error) {
	c.calls++
	return c.rate, nil
}

func TestServiceConvertCaches(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	src := &countingSource{rate: decimal.RequireFromString("0.5")}
	svc := NewService(ServiceOptions{System: New("$", "USD"), Source: src, Now: func() time.Time { return now }})

	got, err := svc.Convert(context.Background(), decimal.NewFromInt(10), "usd", "eur")
	require.NoError(t, err)
	require.True(t, got.Equal(decimal.NewFromInt(5)))

	_, err = svc.Convert(context.Background(), decimal.NewFromInt(10), "USD", "EUR")
	require.NoError(t, err)
	require.Equal(t, 1, src.calls)

	same, err := svc.Convert(context.Background(), decimal.NewFromInt(7), "USD", "USD")
	require.NoError(t, err)
	require.True(t, same.Equal(decimal.NewFromInt(7)))
}

func TestServiceWithoutSource(t *testing.T) {
	t.Parallel()

	svc := NewService(ServiceOptions{System: New("$", "USD")})
	_, err := svc.Rate(context.Background(), "USD", "JPY")
	require.ErrorIs(t, err, ErrNoRate)
}

func TestStaticRatesInverse(t *testing.T) {
	t.Parallel()

	rates, err := ParseStaticRates(map[string]string{"usd:eur": "0.5"})
	require.NoError(t, err)
	r, err := rates.Rate(context.Background(), "EUR", "USD")
	require.NoError(t, err)
	require.True(t, r.Equal(decimal.NewFromInt(2)))
}

func TestBoltCacheRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rates.db")
	cache, err := OpenBoltCache(path)
	require.NoError(t, err)

	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	require.NoError(t, cache.Put("USD", "EUR", CachedRate{Rate: decimal.RequireFromString("0.91"), FetchedAt: at}))
	require.NoError(t, cache.Close())

	cache, err = OpenBoltCache(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	got, ok, err := cache.Get("usd", "eur")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, got.Rate.Equal(decimal.RequireFromString("0.91")))
	require.True(t, got.FetchedAt.Equal(at))

	_, ok, err = cache.Get("USD", "GBP")
	require.NoError(t, err)
	require.False(t, ok)
}
