package util

import (
	"strconv"
	"time"
)

// ParseIntDefault parses s as an int, falling back to def when empty or
// malformed. Used for optional numeric query parameters.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// ParseFloat parses a series value string. Upstream APIs report missing
// observations as "." or an empty string; both return ok=false.
func ParseFloat(s string) (float64, bool) {
	if s == "" || s == "." {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// TruncatePeriod rounds a timestamp down to the start of its observation
// period so intraday ticks and a series point for the same period compare
// equal.
func TruncatePeriod(t time.Time, period string) time.Time {
	t = t.UTC()
	switch period {
	case "monthly":
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case "quarterly":
		q := (int(t.Month()) - 1) / 3
		return time.Date(t.Year(), time.Month(q*3+1), 1, 0, 0, 0, 0, time.UTC)
	case "annual":
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	default: // daily
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
}
