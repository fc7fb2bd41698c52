package repository

import "testing"

func TestIsValidPeriod(t *testing.T) {
	for _, p := range []Period{PeriodDaily, PeriodMonthly, PeriodQuarterly, PeriodAnnual} {
		if !IsValidPeriod(p) {
			t.Errorf("IsValidPeriod(%q) = false, want true", p)
		}
	}
	for _, p := range []Period{"", "weekly", "DAILY"} {
		if IsValidPeriod(p) {
			t.Errorf("IsValidPeriod(%q) = true, want false", p)
		}
	}
}

func TestNormalizePeriod(t *testing.T) {
	cases := []struct {
		in   string
		want Period
	}{
		{"daily", PeriodDaily},
		{"quarterly", PeriodQuarterly},
		{"", DefaultPeriod()},
		{"fortnightly", DefaultPeriod()},
	}
	for _, c := range cases {
		if got := NormalizePeriod(c.in); got != c.want {
			t.Errorf("NormalizePeriod(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
