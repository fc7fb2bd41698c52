package scoring

import (
	"RiskPulse/internal/domain/models"
)

// AggregatorParams holds the multi-factor discounts applied before the prior.
type AggregatorParams struct {
	DiscountTwoFactors  float64
	DiscountManyFactors float64
}

func DefaultAggregatorParams() AggregatorParams {
	return AggregatorParams{DiscountTwoFactors: 0.7, DiscountManyFactors: 0.5}
}

// Outcome is the aggregation result for one scoring cycle. Maps always carry
// an entry for every configured event, triggered or not.
type Outcome struct {
	Probabilities map[models.EventID]float64
	RiskLevels    map[models.EventID]models.RiskLevel
	Critical      []models.EventID
}

// Aggregator folds contributing factors into final event probabilities.
type Aggregator struct {
	events []models.RiskEvent
	params AggregatorParams
}

func NewAggregator(events []models.RiskEvent, params AggregatorParams) *Aggregator {
	return &Aggregator{events: events, params: params}
}

// Aggregate computes the probability and severity label for every configured
// event. Events appear in configuration order, so the critical list is stable
// across cycles.
func (a *Aggregator) Aggregate(factors map[models.EventID][]models.ContributingFactor) Outcome {
	out := Outcome{
		Probabilities: make(map[models.EventID]float64, len(a.events)),
		RiskLevels:    make(map[models.EventID]models.RiskLevel, len(a.events)),
	}
	for _, ev := range a.events {
		p := a.Probability(ev, factors[ev.ID])
		out.Probabilities[ev.ID] = p
		level := ev.Classify(p)
		out.RiskLevels[ev.ID] = level
		if level == models.RiskCritical {
			out.Critical = append(out.Critical, ev.ID)
		}
	}
	return out
}

// Probability multiplies the event's base prior by the combined factor and
// clamps to [0, 1].
func (a *Aggregator) Probability(ev models.RiskEvent, factors []models.ContributingFactor) float64 {
	p := ev.BasePrior * a.Combine(factors)
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}

// Combine multiplies the effective factors together and discounts the product
// when several indicators fire at once. Correlated triggers would otherwise
// compound into implausible probabilities.
func (a *Aggregator) Combine(factors []models.ContributingFactor) float64 {
	combined := 1.0
	for _, f := range factors {
		combined *= f.EffectiveFactor
	}
	switch {
	case len(factors) >= 3:
		combined *= a.params.DiscountManyFactors
	case len(factors) == 2:
		combined *= a.params.DiscountTwoFactors
	}
	return combined
}
