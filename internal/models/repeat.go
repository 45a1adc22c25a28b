package models

// RepeatInterval is how often a source transaction recurs. Values are persisted.
type RepeatInterval int

const (
	RepeatNever RepeatInterval = iota
	RepeatDaily
	RepeatWeekly
	RepeatMonthly
	RepeatQuarterly
	RepeatYearly
	RepeatBiyearly
	RepeatBiweekly
)

func (r RepeatInterval) String() string {
	switch r {
	case RepeatNever:
		return "never"
	case RepeatDaily:
		return "daily"
	case RepeatWeekly:
		return "weekly"
	case RepeatMonthly:
		return "monthly"
	case RepeatQuarterly:
		return "quarterly"
	case RepeatYearly:
		return "yearly"
	case RepeatBiyearly:
		return "biyearly"
	case RepeatBiweekly:
		return "biweekly"
	}
	return "unknown"
}

// Valid reports whether r is a known interval.
func (r RepeatInterval) Valid() bool {
	return r >= RepeatNever && r <= RepeatBiweekly
}

// Next returns the occurrence after d. Never returns d unchanged.
func (r RepeatInterval) Next(d Date) Date {
	switch r {
	case RepeatDaily:
		return d.AddDays(1)
	case RepeatWeekly:
		return d.AddDays(7)
	case RepeatBiweekly:
		return d.AddDays(14)
	case RepeatMonthly:
		return d.AddMonths(1)
	case RepeatQuarterly:
		return d.AddMonths(3)
	case RepeatYearly:
		return d.AddYears(1)
	case RepeatBiyearly:
		return d.AddYears(2)
	}
	return d
}
