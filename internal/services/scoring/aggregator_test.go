package scoring

import (
	"testing"

	"RiskPulse/internal/domain/models"
)

func testEvents() []models.RiskEvent {
	return []models.RiskEvent{
		models.NewRiskEvent(models.EventRecession, 0.15, 0.70),
		models.NewRiskEvent(models.EventDepression, 0.02, 0.45),
	}
}

// fixed builds neutral-trend factors from effective values.
func fixed(values ...float64) []models.ContributingFactor {
	out := make([]models.ContributingFactor, 0, len(values))
	for _, v := range values {
		out = append(out, models.ContributingFactor{BaseFactor: v, TrendMultiplier: 1.0, EffectiveFactor: v})
	}
	return out
}

func TestAggregateZeroTriggersKeepsPrior(t *testing.T) {
	agg := NewAggregator(testEvents(), DefaultAggregatorParams())

	out := agg.Aggregate(nil)
	if len(out.Probabilities) != 2 || len(out.RiskLevels) != 2 {
		t.Fatalf("every configured event must be present: %+v", out)
	}
	if p := out.Probabilities[models.EventRecession]; p != 0.15 {
		t.Errorf("recession probability = %v, want exact prior 0.15", p)
	}
	if p := out.Probabilities[models.EventDepression]; p != 0.02 {
		t.Errorf("depression probability = %v, want exact prior 0.02", p)
	}
	if out.RiskLevels[models.EventRecession] != models.RiskLow {
		t.Errorf("recession level = %v, want low", out.RiskLevels[models.EventRecession])
	}
	if len(out.Critical) != 0 {
		t.Errorf("no event should be critical: %v", out.Critical)
	}
}

func TestCombineDiscountTiers(t *testing.T) {
	agg := NewAggregator(testEvents(), DefaultAggregatorParams())

	if c := agg.Combine(nil); c != 1.0 {
		t.Errorf("empty combine = %v, want 1.0", c)
	}
	if c := agg.Combine(fixed(1.8)); c != 1.8 {
		t.Errorf("single factor = %v, want undiscounted 1.8", c)
	}
	if c := agg.Combine(fixed(1.8, 2.0)); !almostEqual(c, 2.52) {
		t.Errorf("two factors = %v, want 1.8*2.0*0.7 = 2.52", c)
	}
	if c := agg.Combine(fixed(1.8, 2.0, 1.5)); !almostEqual(c, 2.7) {
		t.Errorf("three factors = %v, want 1.8*2.0*1.5*0.5 = 2.7", c)
	}
}

func TestProbabilityTwoFactorExample(t *testing.T) {
	agg := NewAggregator(testEvents(), DefaultAggregatorParams())
	recession := testEvents()[0]

	p := agg.Probability(recession, fixed(1.8, 2.0))
	if !almostEqual(p, 0.378) {
		t.Errorf("probability = %v, want 0.378", p)
	}
}

func TestProbabilityTrendAdjustedExample(t *testing.T) {
	agg := NewAggregator(testEvents(), DefaultAggregatorParams())
	recession := testEvents()[0]

	factors := []models.ContributingFactor{
		{BaseFactor: 1.8, TrendMultiplier: 1.3, EffectiveFactor: 2.34},
		{BaseFactor: 2.0, TrendMultiplier: 1.0, EffectiveFactor: 2.0},
	}
	p := agg.Probability(recession, factors)
	if !almostEqual(p, 0.4914) {
		t.Errorf("probability = %v, want 0.4914", p)
	}
}

func TestProbabilityClampsToOne(t *testing.T) {
	agg := NewAggregator(testEvents(), DefaultAggregatorParams())
	recession := testEvents()[0]

	p := agg.Probability(recession, fixed(3.0, 3.0, 3.0))
	if p != 1.0 {
		t.Errorf("probability = %v, want exactly 1.0", p)
	}
}

func TestCombineMonotonicWithinTier(t *testing.T) {
	agg := NewAggregator(testEvents(), DefaultAggregatorParams())

	base := agg.Combine(fixed(1.5, 1.5, 1.5))
	grown := agg.Combine(fixed(1.5, 1.5, 1.5, 1.2))
	if grown < base {
		t.Errorf("adding a factor shrank the product: %v -> %v", base, grown)
	}
}

func TestClassifyBoundaries(t *testing.T) {
	ev := models.NewRiskEvent(models.EventRecession, 0.15, 0.70)
	cases := []struct {
		p    float64
		want models.RiskLevel
	}{
		{ev.Critical, models.RiskCritical},
		{ev.High, models.RiskHigh},
		{ev.Moderate, models.RiskModerate},
		{ev.Moderate - 1e-9, models.RiskLow},
		{0, models.RiskLow},
		{1, models.RiskCritical},
	}
	for _, tc := range cases {
		if got := ev.Classify(tc.p); got != tc.want {
			t.Errorf("Classify(%v) = %v, want %v", tc.p, got, tc.want)
		}
	}
}

func TestAggregateCriticalOrder(t *testing.T) {
	agg := NewAggregator(testEvents(), DefaultAggregatorParams())

	factors := map[models.EventID][]models.ContributingFactor{
		models.EventDepression: fixed(5.0, 5.0, 2.0),
		models.EventRecession:  fixed(2.5, 2.5, 2.0),
	}
	out := agg.Aggregate(factors)
	if out.RiskLevels[models.EventRecession] != models.RiskCritical {
		t.Fatalf("recession at %v should be critical", out.Probabilities[models.EventRecession])
	}
	if out.RiskLevels[models.EventDepression] != models.RiskCritical {
		t.Fatalf("depression at %v should be critical", out.Probabilities[models.EventDepression])
	}
	if len(out.Critical) != 2 || out.Critical[0] != models.EventRecession || out.Critical[1] != models.EventDepression {
		t.Errorf("critical list must follow configuration order: %v", out.Critical)
	}
}
