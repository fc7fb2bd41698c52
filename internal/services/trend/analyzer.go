package trend

import (
	"math"

	"RiskPulse/internal/domain/models"
	"RiskPulse/pkg/logger"
)

const (
	// stableBand is the normalized-slope band treated as no trend, in
	// percent of mean per period. The band is exclusive: exactly 0.5 counts
	// as a trend.
	stableBand = 0.5

	minDirectionPoints    = 3
	minVelocityPoints     = 2
	minAccelerationPoints = 6
)

// Params carries the tunable bounds for multiplier computation.
type Params struct {
	HighVelocityThreshold float64 // percent per period
	MultiplierFloor       float64
	MultiplierCeil        float64
}

// DefaultParams returns the standard multiplier bounds.
func DefaultParams() Params {
	return Params{HighVelocityThreshold: 2.0, MultiplierFloor: 0.5, MultiplierCeil: 1.5}
}

// Analyzer computes trend statistics per indicator. A nil logger is allowed.
type Analyzer struct {
	params Params
	log    *logger.Logger
}

func NewAnalyzer(params Params, log *logger.Logger) *Analyzer {
	return &Analyzer{params: params, log: log}
}

// Analyze computes the full trend statistics for one indicator. Points are
// newest-first. Degenerate inputs degrade to a neutral result (direction 0,
// multiplier 1.0) for this indicator only, never an error.
func (a *Analyzer) Analyze(id string, points []models.SeriesPoint, inverted bool) models.TrendStats {
	if n := len(points); n >= minVelocityPoints && points[n-1].Value == 0 && a.log != nil {
		a.log.Warn("velocity baseline is zero, treating as flat",
			logger.String("indicator", id),
		)
	}

	dir := Direction(points, inverted)
	vel := Velocity(points)

	return models.TrendStats{
		IndicatorID:  id,
		Direction:    dir,
		Velocity:     vel,
		Acceleration: Acceleration(points),
		Multiplier:   Multiplier(dir, vel, a.params),
	}
}

// Direction fits an ordinary least-squares line over the series reindexed
// oldest to newest (x = 0..n-1) and classifies the slope normalized to
// percent-of-mean per period. Rising raw values map to improving (+1),
// falling to worsening (-1); inverted flips the mapping so that +1 always
// means probability-reducing. Requires at least 3 points.
func Direction(points []models.SeriesPoint, inverted bool) models.TrendDirection {
	if len(points) < minDirectionPoints {
		return models.TrendStable
	}
	slope, mean := olsSlope(points)
	if mean == 0 {
		return models.TrendStable
	}
	normalized := slope / mean * 100
	if math.IsNaN(normalized) || math.IsInf(normalized, 0) {
		return models.TrendStable
	}
	if math.Abs(normalized) < stableBand {
		return models.TrendStable
	}
	dir := models.TrendImproving
	if normalized < 0 {
		dir = models.TrendWorsening
	}
	if inverted {
		dir = -dir
	}
	return dir
}

// Velocity is the average percent-per-period change across the window,
// measured on the two endpoints only. Requires at least 2 points; a zero
// oldest value makes the percentage undefined and yields 0.
func Velocity(points []models.SeriesPoint) float64 {
	n := len(points)
	if n < minVelocityPoints {
		return 0
	}
	oldest := points[n-1].Value
	newest := points[0].Value
	if oldest == 0 {
		return 0
	}
	v := (newest - oldest) / oldest * 100 / float64(n-1)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Acceleration splits the newest-first series at the midpoint and compares
// the endpoint velocity of the recent half against the older half. Requires
// at least 6 points.
func Acceleration(points []models.SeriesPoint) float64 {
	n := len(points)
	if n < minAccelerationPoints {
		return 0
	}
	mid := n / 2
	return Velocity(points[:mid]) - Velocity(points[mid:])
}

// Multiplier maps a direction to its base multiplier and applies the
// high-velocity boost: worsening trends moving faster than the threshold
// are amplified (x1.2, capped), improving ones deepened (x0.8, floored).
// A stable direction ignores velocity. The result stays within the bounds.
func Multiplier(dir models.TrendDirection, velocity float64, p Params) float64 {
	m := 1.0
	switch dir {
	case models.TrendWorsening:
		m = 1.3
	case models.TrendImproving:
		m = 0.7
	}
	if dir != models.TrendStable && math.Abs(velocity) > p.HighVelocityThreshold {
		if dir == models.TrendWorsening {
			m *= 1.2
		} else {
			m *= 0.8
		}
	}
	if m > p.MultiplierCeil {
		m = p.MultiplierCeil
	}
	if m < p.MultiplierFloor {
		m = p.MultiplierFloor
	}
	return m
}

// olsSlope returns the least-squares slope and the series mean. Points are
// newest-first; x is assigned so the oldest point sits at x=0.
func olsSlope(points []models.SeriesPoint) (float64, float64) {
	n := len(points)
	var sumX, sumY, sumXY, sumXX float64
	for i, pt := range points {
		x := float64(n - 1 - i)
		y := pt.Value
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	fn := float64(n)
	mean := sumY / fn
	den := fn*sumXX - sumX*sumX
	if den == 0 {
		return 0, mean
	}
	return (fn*sumXY - sumX*sumY) / den, mean
}
