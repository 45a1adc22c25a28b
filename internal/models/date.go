package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date is a calendar day with no time component.
type Date struct {
	t time.Time
}

// NewDate builds a Date, normalising out-of-range values the way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the clock part of t in its own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// Today returns the local calendar day.
func Today() Date {
	return DateOf(time.Now())
}

func (d Date) IsZero() bool      { return d.t.IsZero() }
func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }
func (d Date) Time() time.Time   { return d.t }

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool  { return d.t.Equal(o.t) }

// Compare returns -1, 0 or +1.
func (d Date) Compare(o Date) int { return d.t.Compare(o.t) }

func (d Date) AddDays(n int) Date {
	return DateOf(d.t.AddDate(0, 0, n))
}

// AddMonths moves n months, clamping the day to the last day of the target month
// (Jan 31 + 1 month is Feb 28 or 29).
func (d Date) AddMonths(n int) Date {
	total := int(d.t.Month()) - 1 + n
	year := d.t.Year() + floorDiv(total, 12)
	month := time.Month(total - floorDiv(total, 12)*12 + 1)
	day := d.t.Day()
	if last := daysIn(year, month); day > last {
		day = last
	}
	return NewDate(year, month, day)
}

func (d Date) AddYears(n int) Date {
	return d.AddMonths(12 * n)
}

// String renders the storage form M/D/YYYY.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d/%d/%04d", d.Month(), d.Day(), d.Year())
}

// Padded renders MM/DD/YYYY.
func (d Date) Padded() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format("01/02/2006")
}

// ISO renders the sortable key YYYYMMDD.
func (d Date) ISO() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format("20060102")
}

// ParseDate accepts M/D/YYYY (the storage form), M/D/YY, YYYY-MM-DD and YYYYMMDD.
// An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	if strings.Contains(s, "/") {
		return parseSlashed(s)
	}
	for _, layout := range []string{"2006-01-02", "20060102", "2006.01.02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("parse date %q: unsupported format", s)
}

func parseSlashed(s string) (Date, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("parse date %q: expected month/day/year", s)
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Date{}, fmt.Errorf("parse date %q: %w", s, err)
		}
		nums[i] = n
	}
	month, day, year := nums[0], nums[1], nums[2]
	if len(strings.TrimSpace(parts[2])) <= 2 {
		year += 2000
		if year > time.Now().Year()+20 {
			year -= 100
		}
	}
	if month < 1 || month > 12 || day < 1 || day > daysIn(year, time.Month(month)) {
		return Date{}, fmt.Errorf("parse date %q: out of range", s)
	}
	return NewDate(year, time.Month(month), day), nil
}

// USToISO converts a stored M/D/YYYY string into its YYYYMMDD key. Unparsable
// input is returned unchanged so comparisons degrade instead of failing.
func USToISO(s string) string {
	d, err := ParseDate(s)
	if err != nil || d.IsZero() {
		return s
	}
	return d.ISO()
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
