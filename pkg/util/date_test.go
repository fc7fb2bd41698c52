package util

import (
	"testing"
	"time"
)

func TestTruncatePeriod(t *testing.T) {
	ts := time.Date(2025, 8, 17, 14, 30, 0, 0, time.UTC)
	cases := []struct {
		period string
		want   time.Time
	}{
		{"daily", time.Date(2025, 8, 17, 0, 0, 0, 0, time.UTC)},
		{"monthly", time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)},
		{"quarterly", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)},
		{"annual", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"", time.Date(2025, 8, 17, 0, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		if got := TruncatePeriod(ts, c.period); !got.Equal(c.want) {
			t.Errorf("%s: got %v want %v", c.period, got, c.want)
		}
	}
}

func TestParseFloatMissing(t *testing.T) {
	if _, ok := ParseFloat("."); ok {
		t.Fatalf("dot must report missing")
	}
	if _, ok := ParseFloat(""); ok {
		t.Fatalf("empty must report missing")
	}
	v, ok := ParseFloat("4.25")
	if !ok || v != 4.25 {
		t.Fatalf("got %v ok=%v", v, ok)
	}
}

func TestParseIntDefault(t *testing.T) {
	if got := ParseIntDefault("", 12); got != 12 {
		t.Fatalf("empty: got %d", got)
	}
	if got := ParseIntDefault("oops", 12); got != 12 {
		t.Fatalf("malformed: got %d", got)
	}
	if got := ParseIntDefault("7", 12); got != 7 {
		t.Fatalf("valid: got %d", got)
	}
}
