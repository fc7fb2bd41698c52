package trend

import (
	"math"
	"testing"
	"time"

	"RiskPulse/internal/domain/models"
)

// series builds a newest-first series from oldest-to-newest values.
func series(values ...float64) []models.SeriesPoint {
	pts := make([]models.SeriesPoint, len(values))
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range values {
		pts[len(values)-1-i] = models.SeriesPoint{
			Date:  base.AddDate(0, i, 0),
			Value: v,
		}
	}
	return pts
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDirectionBoundary(t *testing.T) {
	// slope 0.5, mean 100 -> normalized slope exactly 0.5: not stable
	if got := Direction(series(99.5, 100, 100.5), false); got != models.TrendImproving {
		t.Fatalf("slope 0.5 must not be stable, got %d", got)
	}
	// slope 0.49, mean 100 -> stable
	if got := Direction(series(99.51, 100, 100.49), false); got != models.TrendStable {
		t.Fatalf("slope 0.49 must be stable, got %d", got)
	}
}

func TestDirectionInverted(t *testing.T) {
	rising := series(100, 110, 120)
	if got := Direction(rising, false); got != models.TrendImproving {
		t.Errorf("rising raw values: got %d, want improving", got)
	}
	if got := Direction(rising, true); got != models.TrendWorsening {
		t.Errorf("rising inverted: got %d, want worsening", got)
	}
}

func TestDirectionInsufficientPoints(t *testing.T) {
	a := NewAnalyzer(DefaultParams(), nil)
	stats := a.Analyze("UNRATE", series(1, 500), true)
	if stats.Direction != models.TrendStable {
		t.Errorf("two points: direction = %d, want 0", stats.Direction)
	}
	if stats.Multiplier != 1.0 {
		t.Errorf("two points: multiplier = %v, want 1.0", stats.Multiplier)
	}
}

func TestVelocityEndpoints(t *testing.T) {
	// ((110-100)/100)*100 / 2 periods = 5% per period
	if got := Velocity(series(100, 105, 110)); !almostEqual(got, 5.0) {
		t.Errorf("velocity = %v, want 5.0", got)
	}
	if got := Velocity(series(42)); got != 0 {
		t.Errorf("single point velocity = %v, want 0", got)
	}
	if got := Velocity(nil); got != 0 {
		t.Errorf("empty velocity = %v, want 0", got)
	}
}

func TestVelocityZeroBaseline(t *testing.T) {
	if got := Velocity(series(0, 50, 100)); got != 0 {
		t.Errorf("zero baseline velocity = %v, want 0", got)
	}
}

func TestAcceleration(t *testing.T) {
	// oldest half 70,80,90 -> ((90-70)/70)*100/2
	// recent half 100,110,120 -> ((120-100)/100)*100/2
	pts := series(70, 80, 90, 100, 110, 120)
	older := (90.0 - 70.0) / 70.0 * 100 / 2
	recent := (120.0 - 100.0) / 100.0 * 100 / 2
	if got := Acceleration(pts); !almostEqual(got, recent-older) {
		t.Errorf("acceleration = %v, want %v", got, recent-older)
	}
	if got := Acceleration(series(1, 2, 3, 4, 5)); got != 0 {
		t.Errorf("five points acceleration = %v, want 0", got)
	}
}

func TestMultiplierMapping(t *testing.T) {
	p := DefaultParams()
	cases := []struct {
		dir  models.TrendDirection
		vel  float64
		want float64
	}{
		{models.TrendWorsening, 1.0, 1.3},
		{models.TrendStable, 1.0, 1.0},
		{models.TrendImproving, 1.0, 0.7},
		// high velocity: worsening boosted and capped, improving deepened
		{models.TrendWorsening, 3.0, 1.5},
		{models.TrendImproving, -3.0, 0.56},
		// stable ignores velocity
		{models.TrendStable, 10.0, 1.0},
	}
	for _, c := range cases {
		if got := Multiplier(c.dir, c.vel, p); !almostEqual(got, c.want) {
			t.Errorf("dir=%d vel=%v: got %v, want %v", c.dir, c.vel, got, c.want)
		}
	}
}

func TestMultiplierBounds(t *testing.T) {
	p := DefaultParams()
	dirs := []models.TrendDirection{models.TrendWorsening, models.TrendStable, models.TrendImproving}
	for _, d := range dirs {
		for _, v := range []float64{-50, -2.1, -1, 0, 1, 2.1, 50} {
			m := Multiplier(d, v, p)
			if m < p.MultiplierFloor || m > p.MultiplierCeil {
				t.Fatalf("multiplier %v out of bounds for dir=%d vel=%v", m, d, v)
			}
		}
	}
}

func TestAnalyzeDegenerateSeries(t *testing.T) {
	a := NewAnalyzer(DefaultParams(), nil)
	stats := a.Analyze("CPIYoY", series(math.NaN(), 100, 101), true)
	if stats.Direction != models.TrendStable {
		t.Errorf("NaN series: direction = %d, want 0", stats.Direction)
	}
	if stats.Multiplier != 1.0 {
		t.Errorf("NaN series: multiplier = %v, want 1.0", stats.Multiplier)
	}
}
