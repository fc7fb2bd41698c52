package repository

// Period represents an indicator's observation cadence.
type Period string

const (
	PeriodDaily     Period = "daily"
	PeriodMonthly   Period = "monthly"
	PeriodQuarterly Period = "quarterly"
	PeriodAnnual    Period = "annual"
)

// IsValidPeriod returns true if p is a supported period.
func IsValidPeriod(p Period) bool {
	switch p {
	case PeriodDaily, PeriodMonthly, PeriodQuarterly, PeriodAnnual:
		return true
	default:
		return false
	}
}

// DefaultPeriod returns the default observation cadence.
func DefaultPeriod() Period { return PeriodMonthly }

// NormalizePeriod converts raw string to a valid period (or default).
func NormalizePeriod(s string) Period {
	if s == "" {
		return DefaultPeriod()
	}
	p := Period(s)
	if IsValidPeriod(p) {
		return p
	}
	return DefaultPeriod()
}
