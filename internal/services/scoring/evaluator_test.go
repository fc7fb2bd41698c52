package scoring

import (
	"math"
	"testing"
	"time"

	"RiskPulse/internal/domain/models"
)

func snapWith(values map[string]float64) *models.Snapshot {
	snap := &models.Snapshot{
		Values:    make(map[string]models.IndicatorValue, len(values)),
		CreatedAt: time.Now(),
	}
	for id, v := range values {
		snap.Values[id] = models.IndicatorValue{Raw: v, Source: models.SourceLive}
	}
	return snap
}

func TestEvaluateDeclarationOrder(t *testing.T) {
	rules := []models.RiskRule{
		{Event: models.EventRecession, Indicator: "UNRATE", Operator: ">", Value: 4.5, BaseFactor: 1.5, Description: "unemployment elevated"},
		{Event: models.EventRecession, Indicator: "GDPGrowth", Operator: "<", Value: 0, BaseFactor: 1.8, Description: "growth negative"},
		{Event: models.EventRecession, Indicator: "VIX", Operator: ">", Value: 25, BaseFactor: 1.3, Description: "volatility elevated"},
	}
	ev := NewEvaluator(rules, nil)

	snap := snapWith(map[string]float64{"UNRATE": 5.1, "GDPGrowth": 2.0, "VIX": 31.0})
	factors := ev.Evaluate(snap, nil)

	got := factors[models.EventRecession]
	if len(got) != 2 {
		t.Fatalf("expected 2 factors, got %d", len(got))
	}
	if got[0].Indicator != "UNRATE" || got[1].Indicator != "VIX" {
		t.Errorf("factors out of declaration order: %s, %s", got[0].Indicator, got[1].Indicator)
	}
	if got[0].Reason != "unemployment elevated" {
		t.Errorf("reason = %q", got[0].Reason)
	}
}

func TestEvaluateMissingIndicatorSkipped(t *testing.T) {
	rules := []models.RiskRule{
		{Event: models.EventRecession, Indicator: "UNRATE", Operator: ">", Value: 4.5, BaseFactor: 1.5},
	}
	ev := NewEvaluator(rules, nil)

	factors := ev.Evaluate(snapWith(map[string]float64{"VIX": 40}), nil)
	if len(factors[models.EventRecession]) != 0 {
		t.Fatalf("rule on missing indicator must not trigger, got %v", factors)
	}
}

func TestEvaluateMalformedValueSkipped(t *testing.T) {
	rules := []models.RiskRule{
		{Event: models.EventRecession, Indicator: "UNRATE", Operator: ">", Value: 4.5, BaseFactor: 1.5},
	}
	ev := NewEvaluator(rules, nil)

	for name, v := range map[string]float64{
		"nan":    math.NaN(),
		"posInf": math.Inf(1),
		"negInf": math.Inf(-1),
	} {
		t.Run(name, func(t *testing.T) {
			factors := ev.Evaluate(snapWith(map[string]float64{"UNRATE": v}), nil)
			if len(factors[models.EventRecession]) != 0 {
				t.Fatalf("malformed value %v must not trigger", v)
			}
		})
	}
}

func TestEvaluateCompositeSpread(t *testing.T) {
	rules := []models.RiskRule{
		{
			Event: models.EventRecession, Indicator: "DGS10", Operator: "<", Value: 0, BaseFactor: 2.0,
			CompositeOp: models.CompositeSpread, SecondIndicator: "DGS2",
			Description: "yield curve inverted",
		},
	}
	ev := NewEvaluator(rules, nil)

	factors := ev.Evaluate(snapWith(map[string]float64{"DGS10": 4.0, "DGS2": 4.6}), nil)
	if len(factors[models.EventRecession]) != 1 {
		t.Fatalf("inverted curve (spread -0.6) must trigger")
	}

	factors = ev.Evaluate(snapWith(map[string]float64{"DGS10": 4.0, "DGS2": 3.5}), nil)
	if len(factors[models.EventRecession]) != 0 {
		t.Fatalf("positive spread must not trigger")
	}

	// Missing second leg skips the rule silently.
	factors = ev.Evaluate(snapWith(map[string]float64{"DGS10": 4.0}), nil)
	if len(factors[models.EventRecession]) != 0 {
		t.Fatalf("spread with missing leg must not trigger")
	}
}

func TestEvaluateCompositeRatio(t *testing.T) {
	rules := []models.RiskRule{
		{
			Event: models.EventSovereignDefault, Indicator: "InterestOutlays", Operator: ">", Value: 0.03, BaseFactor: 1.5,
			CompositeOp: models.CompositeRatio, SecondIndicator: "NominalGDP",
		},
	}
	ev := NewEvaluator(rules, nil)

	factors := ev.Evaluate(snapWith(map[string]float64{"InterestOutlays": 950, "NominalGDP": 28000}), nil)
	if len(factors[models.EventSovereignDefault]) != 1 {
		t.Fatalf("ratio 0.0339 > 0.03 must trigger")
	}

	factors = ev.Evaluate(snapWith(map[string]float64{"InterestOutlays": 950, "NominalGDP": 0}), nil)
	if len(factors[models.EventSovereignDefault]) != 0 {
		t.Fatalf("zero denominator must skip the rule")
	}
}

func TestEvaluateTrendMultiplier(t *testing.T) {
	rules := []models.RiskRule{
		{Event: models.EventRecession, Indicator: "UNRATE", Operator: ">", Value: 4.5, BaseFactor: 1.5},
		{Event: models.EventRecession, Indicator: "VIX", Operator: ">", Value: 25, BaseFactor: 1.3},
	}
	ev := NewEvaluator(rules, nil)
	snap := snapWith(map[string]float64{"UNRATE": 5.0, "VIX": 30})

	factors := ev.Evaluate(snap, map[string]float64{"UNRATE": 1.3})
	got := factors[models.EventRecession]
	if len(got) != 2 {
		t.Fatalf("expected 2 factors, got %d", len(got))
	}
	if !almostEqual(got[0].EffectiveFactor, 1.95) {
		t.Errorf("UNRATE effective = %v, want 1.95", got[0].EffectiveFactor)
	}
	if got[0].TrendMultiplier != 1.3 {
		t.Errorf("UNRATE multiplier = %v", got[0].TrendMultiplier)
	}
	// No entry for VIX defaults to 1.0.
	if got[1].TrendMultiplier != 1.0 || !almostEqual(got[1].EffectiveFactor, 1.3) {
		t.Errorf("VIX factor = %+v, want neutral multiplier", got[1])
	}
}

func TestEvaluateOperators(t *testing.T) {
	cases := []struct {
		op      string
		raw     float64
		value   float64
		trigger bool
	}{
		{">", 5.0, 4.5, true},
		{">", 4.5, 4.5, false},
		{">=", 4.5, 4.5, true},
		{"<", 4.0, 4.5, true},
		{"<", 4.5, 4.5, false},
		{"<=", 4.5, 4.5, true},
		{"==", 4.5, 4.5, true},
		{"==", 4.51, 4.5, false},
	}
	for _, tc := range cases {
		t.Run(tc.op, func(t *testing.T) {
			rules := []models.RiskRule{
				{Event: models.EventRecession, Indicator: "X", Operator: tc.op, Value: tc.value, BaseFactor: 1.5},
			}
			ev := NewEvaluator(rules, nil)
			factors := ev.Evaluate(snapWith(map[string]float64{"X": tc.raw}), nil)
			triggered := len(factors[models.EventRecession]) == 1
			if triggered != tc.trigger {
				t.Errorf("%v %s %v: triggered=%v, want %v", tc.raw, tc.op, tc.value, triggered, tc.trigger)
			}
		})
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
