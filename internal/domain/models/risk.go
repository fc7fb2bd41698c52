package models

import "time"

// EventID names one of the tracked macroeconomic risk events.
type EventID string

const (
	EventRecession           EventID = "recessionLike"
	EventDepression          EventID = "depressionLike"
	EventReserveStatusLoss   EventID = "reserveStatusLoss"
	EventSovereignDefault    EventID = "sovereignDefault"
	EventCurrencyDevaluation EventID = "currencyDevaluation"
)

// AllEvents returns the tracked events in reporting order.
func AllEvents() []EventID {
	return []EventID{
		EventRecession,
		EventDepression,
		EventReserveStatusLoss,
		EventSovereignDefault,
		EventCurrencyDevaluation,
	}
}

// RiskEvent carries the static priors and classification thresholds for one
// event. High and moderate are fixed fractions of critical.
type RiskEvent struct {
	ID        EventID
	BasePrior float64
	Critical  float64
	High      float64
	Moderate  float64
}

// NewRiskEvent derives the high and moderate cutoffs from the critical one.
func NewRiskEvent(id EventID, basePrior, critical float64) RiskEvent {
	return RiskEvent{
		ID:        id,
		BasePrior: basePrior,
		Critical:  critical,
		High:      0.7 * critical,
		Moderate:  0.4 * critical,
	}
}

// Classify labels a probability against the event's cutoffs. Boundaries
// belong to the higher band.
func (e RiskEvent) Classify(p float64) RiskLevel {
	switch {
	case p >= e.Critical:
		return RiskCritical
	case p >= e.High:
		return RiskHigh
	case p >= e.Moderate:
		return RiskModerate
	default:
		return RiskLow
	}
}

// CompositeOp derives a scalar from two indicators before comparison.
type CompositeOp string

const (
	CompositeSpread CompositeOp = "spread" // a - b
	CompositeRatio  CompositeOp = "ratio"  // a / b
)

// RiskRule is one validated row of the rule table.
type RiskRule struct {
	Event            EventID
	Indicator        string
	Operator         string
	Value            float64
	BaseFactor       float64 // always > 1
	Description      string
	InvertedForTrend bool
	CompositeOp      CompositeOp // empty for plain rules
	SecondIndicator  string
}

// TrendDirection classifies an indicator's recent drift after polarity
// normalization: -1 worsening, 0 stable, +1 improving.
type TrendDirection int

const (
	TrendWorsening TrendDirection = -1
	TrendStable    TrendDirection = 0
	TrendImproving TrendDirection = 1
)

// TrendStats is the per-indicator output of trend analysis.
type TrendStats struct {
	IndicatorID  string
	Direction    TrendDirection
	Velocity     float64 // percent per period, endpoint-based
	Acceleration float64 // percent per period squared
	Multiplier   float64 // in [0.5, 1.5]
}

// ContributingFactor explains one triggered rule's effect on an event.
type ContributingFactor struct {
	Event           EventID
	Indicator       string
	BaseFactor      float64
	TrendMultiplier float64
	EffectiveFactor float64
	Reason          string
}

// RiskLevel is the classification label for a probability.
type RiskLevel string

const (
	RiskCritical RiskLevel = "critical"
	RiskHigh     RiskLevel = "high"
	RiskModerate RiskLevel = "moderate"
	RiskLow      RiskLevel = "low"
)

// RiskAssessment is the complete result of one scoring cycle. Every tracked
// event is always present, whatever data was missing.
type RiskAssessment struct {
	Timestamp      time.Time
	Probabilities  map[EventID]float64
	Factors        map[EventID][]ContributingFactor
	RiskLevels     map[EventID]RiskLevel
	CriticalEvents []EventID
	TrendAdjusted  bool              // false when trend adjustment was skipped or disabled
	Errors         map[string]string // per-indicator history fetch failures
}
