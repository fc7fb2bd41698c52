package usecase

import (
	"testing"

	drepo "RiskPulse/internal/domain/repository"
	"RiskPulse/pkg/config"
)

func TestCollectorNormalizesTickPeriods(t *testing.T) {
	cfg := &config.Config{Indicators: []config.IndicatorConfig{
		{ID: "VIX", Source: config.SourceQuotes, Symbol: "^VIX", Period: "daily"},
		{ID: "SPX", Source: config.SourceQuotes, Symbol: "^GSPC", Period: ""},
		{ID: "DGS10", Source: config.SourceFred, SeriesID: "DGS10", Period: "daily"},
	}}

	c := NewObservationCollector(cfg, nil, nil, nil, nil)

	target, ok := c.bySymbol["^VIX"]
	if !ok {
		t.Fatal("^VIX not mapped")
	}
	if target.period != drepo.PeriodDaily {
		t.Errorf("^VIX period = %q, want %q", target.period, drepo.PeriodDaily)
	}

	target, ok = c.bySymbol["^GSPC"]
	if !ok {
		t.Fatal("^GSPC not mapped")
	}
	if target.period != drepo.DefaultPeriod() {
		t.Errorf("^GSPC period = %q, want default %q", target.period, drepo.DefaultPeriod())
	}

	if _, ok := c.bySymbol[""]; ok {
		t.Error("fred-sourced indicator must not be tick-mapped")
	}
}
