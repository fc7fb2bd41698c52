package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"RiskPulse/internal/domain/models"
	"RiskPulse/pkg/config"
	"RiskPulse/pkg/logger"
)

type fakeHistory struct {
	series map[string][]models.SeriesPoint
	errs   map[string]error
}

func (f *fakeHistory) GetHistory(_ context.Context, id string, periods int) (models.HistoricalSeries, error) {
	if err, ok := f.errs[id]; ok {
		return models.HistoricalSeries{}, err
	}
	pts := f.series[id]
	if len(pts) > periods {
		pts = pts[:periods]
	}
	return models.HistoricalSeries{IndicatorID: id, Points: pts}, nil
}

type nopMetrics struct{}

func (nopMetrics) RecordObservation(string, string)     {}
func (nopMetrics) RecordError(string)                   {}
func (nopMetrics) RecordIndicatorValue(string, float64) {}
func (nopMetrics) RecordProbability(string, float64)    {}
func (nopMetrics) RecordLatency(string, float64)        {}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func testConfig() *config.Config {
	c := &config.Config{
		Events: []config.EventConfig{
			{ID: "recessionLike", BasePrior: 0.15, CriticalThreshold: 0.70},
			{ID: "depressionLike", BasePrior: 0.02, CriticalThreshold: 0.45},
			{ID: "reserveStatusLoss", BasePrior: 0.05, CriticalThreshold: 0.40},
			{ID: "sovereignDefault", BasePrior: 0.01, CriticalThreshold: 0.30},
			{ID: "currencyDevaluation", BasePrior: 0.10, CriticalThreshold: 0.50},
		},
		Rules: []config.RuleConfig{
			{Event: "recessionLike", Indicator: "GDPGrowth", Operator: "<", Value: 0, BaseFactor: 1.8, Description: "growth negative"},
			{Event: "recessionLike", Indicator: "UNRATE", Operator: ">", Value: 4.5, BaseFactor: 2.0, InvertedForTrend: true, Description: "unemployment elevated"},
		},
	}
	c.Engine.TrendWindow = 12
	c.Engine.HighVelocityThreshold = 2.0
	c.Engine.MultiplierFloor = 0.5
	c.Engine.MultiplierCeil = 1.5
	c.Engine.DiscountTwoFactors = 0.7
	c.Engine.DiscountManyFactors = 0.5
	return c
}

// monthly builds a newest-first series from values given oldest to newest.
func monthly(values ...float64) []models.SeriesPoint {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.SeriesPoint, len(values))
	for i, v := range values {
		out[len(values)-1-i] = models.SeriesPoint{Date: base.AddDate(0, i, 0), Value: v}
	}
	return out
}

func triggeringSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Values: map[string]models.IndicatorValue{
			"GDPGrowth": {Raw: -1.0, Source: models.SourceLive},
			"UNRATE":    {Raw: 5.0, Source: models.SourceLive},
		},
		CreatedAt: time.Now(),
	}
}

// flatHistory keeps every indicator stable so multipliers stay at 1.0.
func flatHistory() *fakeHistory {
	return &fakeHistory{series: map[string][]models.SeriesPoint{
		"GDPGrowth": monthly(2.0, 2.0, 2.0, 2.0),
		"UNRATE":    monthly(4.9, 4.9, 4.9, 4.9),
	}}
}

func newTestEngine(t *testing.T, cfg *config.Config, history *fakeHistory) *Engine {
	t.Helper()
	return NewEngine(cfg, nil, history, nopMetrics{}, newTestLogger(t))
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeZeroTriggersKeepsPriors(t *testing.T) {
	e := newTestEngine(t, testConfig(), flatHistory())
	snap := &models.Snapshot{Values: map[string]models.IndicatorValue{
		"GDPGrowth": {Raw: 2.5},
		"UNRATE":    {Raw: 3.9},
	}}

	a := e.ComputeRiskAssessment(context.Background(), snap)
	want := map[models.EventID]float64{
		models.EventRecession:           0.15,
		models.EventDepression:          0.02,
		models.EventReserveStatusLoss:   0.05,
		models.EventSovereignDefault:    0.01,
		models.EventCurrencyDevaluation: 0.10,
	}
	for id, p := range want {
		if a.Probabilities[id] != p {
			t.Errorf("%s = %v, want exact prior %v", id, a.Probabilities[id], p)
		}
		if a.Factors[id] == nil {
			t.Errorf("%s: factor list must be present even when empty", id)
		}
	}
	if len(a.CriticalEvents) != 0 {
		t.Errorf("critical events = %v", a.CriticalEvents)
	}
	if !a.TrendAdjusted {
		t.Error("trend adjustment should have applied")
	}
}

func TestComputeNeutralTrends(t *testing.T) {
	e := newTestEngine(t, testConfig(), flatHistory())

	a := e.ComputeRiskAssessment(context.Background(), triggeringSnapshot())
	if p := a.Probabilities[models.EventRecession]; !almostEqual(p, 0.378) {
		t.Errorf("probability = %v, want 0.378", p)
	}
	factors := a.Factors[models.EventRecession]
	if len(factors) != 2 {
		t.Fatalf("factors = %+v", factors)
	}
	if factors[0].Indicator != "GDPGrowth" || factors[1].Indicator != "UNRATE" {
		t.Errorf("factor order: %s, %s", factors[0].Indicator, factors[1].Indicator)
	}
}

func TestComputeWorseningTrendRaisesProbability(t *testing.T) {
	history := flatHistory()
	// Steadily falling growth, gentle enough to stay under the velocity bump.
	history.series["GDPGrowth"] = monthly(100, 99, 98, 97)

	e := newTestEngine(t, testConfig(), history)
	a := e.ComputeRiskAssessment(context.Background(), triggeringSnapshot())

	factors := a.Factors[models.EventRecession]
	if len(factors) != 2 {
		t.Fatalf("factors = %+v", factors)
	}
	if !almostEqual(factors[0].TrendMultiplier, 1.3) || !almostEqual(factors[0].EffectiveFactor, 2.34) {
		t.Errorf("growth factor = %+v, want worsening 1.3", factors[0])
	}
	if p := a.Probabilities[models.EventRecession]; !almostEqual(p, 0.4914) {
		t.Errorf("probability = %v, want 0.4914", p)
	}
	if !a.TrendAdjusted {
		t.Error("trend adjustment should have applied")
	}
	if len(a.Errors) != 0 {
		t.Errorf("errors = %v", a.Errors)
	}
}

func TestComputeTrendDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Engine.DisableTrendAdjustment = true
	e := newTestEngine(t, cfg, flatHistory())

	a := e.ComputeRiskAssessment(context.Background(), triggeringSnapshot())
	if a.TrendAdjusted {
		t.Error("trend adjustment must be off")
	}
	if p := a.Probabilities[models.EventRecession]; !almostEqual(p, 0.378) {
		t.Errorf("probability = %v, want threshold-only 0.378", p)
	}
}

func TestComputeWholesaleHistoryFailure(t *testing.T) {
	down := errors.New("history backend unreachable")
	history := &fakeHistory{errs: map[string]error{"GDPGrowth": down, "UNRATE": down}}
	e := newTestEngine(t, testConfig(), history)

	a := e.ComputeRiskAssessment(context.Background(), triggeringSnapshot())
	if a.TrendAdjusted {
		t.Error("wholesale failure must disable trend adjustment")
	}
	if p := a.Probabilities[models.EventRecession]; !almostEqual(p, 0.378) {
		t.Errorf("probability = %v, want threshold-only 0.378", p)
	}
	if len(a.Errors) != 2 {
		t.Errorf("errors = %v, want both indicators recorded", a.Errors)
	}
}

func TestComputePartialHistoryFailure(t *testing.T) {
	history := flatHistory()
	history.errs = map[string]error{"GDPGrowth": errors.New("timeout")}
	e := newTestEngine(t, testConfig(), history)

	a := e.ComputeRiskAssessment(context.Background(), triggeringSnapshot())
	if !a.TrendAdjusted {
		t.Error("partial failure keeps trend adjustment on")
	}
	factors := a.Factors[models.EventRecession]
	if len(factors) != 2 {
		t.Fatalf("factors = %+v", factors)
	}
	// The failed indicator scores neutral, the healthy one normally.
	if factors[0].TrendMultiplier != 1.0 {
		t.Errorf("failed indicator multiplier = %v, want neutral", factors[0].TrendMultiplier)
	}
	if _, ok := a.Errors["GDPGrowth"]; !ok {
		t.Errorf("errors = %v, want GDPGrowth recorded", a.Errors)
	}
}

func TestComputeMissingIndicator(t *testing.T) {
	e := newTestEngine(t, testConfig(), flatHistory())
	snap := &models.Snapshot{Values: map[string]models.IndicatorValue{
		"GDPGrowth": {Raw: -1.0},
	}}

	a := e.ComputeRiskAssessment(context.Background(), snap)
	factors := a.Factors[models.EventRecession]
	if len(factors) != 1 {
		t.Fatalf("factors = %+v, want only the present indicator", factors)
	}
	if p := a.Probabilities[models.EventRecession]; !almostEqual(p, 0.27) {
		t.Errorf("probability = %v, want single-factor 0.27", p)
	}
}

func TestComputeOverlappingCycles(t *testing.T) {
	e := newTestEngine(t, testConfig(), flatHistory())
	snap := triggeringSnapshot()

	done := make(chan *models.RiskAssessment, 2)
	for i := 0; i < 2; i++ {
		go func() {
			done <- e.ComputeRiskAssessment(context.Background(), snap)
		}()
	}
	first, second := <-done, <-done
	if !almostEqual(first.Probabilities[models.EventRecession], second.Probabilities[models.EventRecession]) {
		t.Errorf("concurrent cycles diverged: %v vs %v",
			first.Probabilities[models.EventRecession], second.Probabilities[models.EventRecession])
	}
	if len(first.Factors[models.EventRecession]) != 2 || len(second.Factors[models.EventRecession]) != 2 {
		t.Error("factor lists must not interleave across cycles")
	}
}
