package datasource

import (
	"context"
	"errors"
	"testing"
	"time"

	"RiskPulse/internal/domain/models"
	domsvc "RiskPulse/internal/domain/service"
	"RiskPulse/pkg/config"
	"RiskPulse/pkg/logger"
)

type fakeSeries struct {
	latest map[string]models.SeriesPoint
	errs   map[string]error
}

func (f *fakeSeries) FetchSeries(_ context.Context, q domsvc.SeriesQuery) ([]models.SeriesPoint, error) {
	p, err := f.FetchLatest(context.Background(), q)
	if err != nil {
		return nil, err
	}
	return []models.SeriesPoint{p}, nil
}

func (f *fakeSeries) FetchLatest(_ context.Context, q domsvc.SeriesQuery) (models.SeriesPoint, error) {
	if err, ok := f.errs[q.SeriesID]; ok {
		return models.SeriesPoint{}, err
	}
	p, ok := f.latest[q.SeriesID]
	if !ok {
		return models.SeriesPoint{}, errors.New("series not found")
	}
	return p, nil
}

type fakeQuotes struct {
	prices map[string]float64
}

func (f *fakeQuotes) Latest(symbol string) (models.Quote, bool) {
	p, ok := f.prices[symbol]
	if !ok {
		return models.Quote{}, false
	}
	return models.Quote{Symbol: symbol, Price: p, Timestamp: time.Now().Unix()}, true
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

func testIndicators() []config.IndicatorConfig {
	return []config.IndicatorConfig{
		{ID: "UNRATE", Source: "fred", SeriesID: "UNRATE", Period: "monthly", Unit: "%", Decimals: 1},
		{ID: "GDPGrowth", Source: "fred", SeriesID: "A191RL1Q225SBEA", Period: "quarterly", Unit: "%", Decimals: 1},
		{ID: "FedDeficit", Source: "fred", SeriesID: "FYFSD", Period: "annual", Unit: "$M", Decimals: 0},
		{ID: "NominalGDP", Source: "fred", SeriesID: "GDP", Period: "quarterly", Unit: "$B", Decimals: 0},
		{ID: "ReserveShare", Source: "estimated", Estimate: 58.4, Period: "quarterly", Unit: "%", Decimals: 1},
		{ID: "VIX", Source: "quotes", Symbol: "VIX", Period: "daily", Decimals: 1},
		{ID: "GoldPrice", Source: "quotes", Symbol: "XAUUSD", Period: "daily", Unit: "$", Decimals: 0},
		{ID: "DeficitGDP", Source: "derived", Period: "quarterly", Unit: "%", Decimals: 1},
	}
}

func newTestSource(t *testing.T, series *fakeSeries, quotes *fakeQuotes) *Source {
	t.Helper()
	cfg := &config.Config{Indicators: testIndicators()}
	cfg.Engine.SnapshotTTL = time.Minute
	return NewSource(cfg, series, quotes, nil, nopMetrics{}, newTestLogger(t))
}

func TestRefreshMergesFeeds(t *testing.T) {
	asOf := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	series := &fakeSeries{latest: map[string]models.SeriesPoint{
		"UNRATE":          {Date: asOf, Value: 4.1},
		"A191RL1Q225SBEA": {Date: asOf, Value: 2.8},
		"FYFSD":           {Date: asOf, Value: -1800000},
		"GDP":             {Date: asOf, Value: 28000},
	}}
	quotes := &fakeQuotes{prices: map[string]float64{"VIX": 17.3, "XAUUSD": 2350}}

	snap, err := newTestSource(t, series, quotes).Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	unrate, ok := snap.Get("UNRATE")
	if !ok || unrate.Source != models.SourceLive {
		t.Fatalf("UNRATE = %+v, want live value", unrate)
	}
	if unrate.Raw != 4.1 || unrate.DisplayValue != "4.1%" || !unrate.AsOf.Equal(asOf) {
		t.Errorf("UNRATE = %+v", unrate)
	}

	reserve, ok := snap.Get("ReserveShare")
	if !ok || reserve.Source != models.SourceEstimated || reserve.Raw != 58.4 {
		t.Errorf("ReserveShare = %+v, want estimated 58.4", reserve)
	}

	vix, ok := snap.Get("VIX")
	if !ok || vix.Source != models.SourceLive || vix.Raw != 17.3 {
		t.Errorf("VIX = %+v, want live 17.3", vix)
	}
	gold, _ := snap.Get("GoldPrice")
	if gold.DisplayValue != "$2350" {
		t.Errorf("GoldPrice display = %q", gold.DisplayValue)
	}

	deficit, ok := snap.Get("DeficitGDP")
	if !ok || deficit.Source != models.SourceCalculated {
		t.Fatalf("DeficitGDP = %+v, want calculated entry", deficit)
	}
	if deficit.Raw < 6.42 || deficit.Raw > 6.44 {
		t.Errorf("DeficitGDP raw = %v, want ~6.43", deficit.Raw)
	}
}

func TestRefreshDegradesPerIndicator(t *testing.T) {
	asOf := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	series := &fakeSeries{
		latest: map[string]models.SeriesPoint{
			"UNRATE": {Date: asOf, Value: 4.1},
			"GDP":    {Date: asOf, Value: 28000},
		},
		errs: map[string]error{
			"A191RL1Q225SBEA": errors.New("upstream 502"),
			"FYFSD":           errors.New("upstream 502"),
		},
	}
	quotes := &fakeQuotes{prices: map[string]float64{"VIX": 17.3}}

	snap, err := newTestSource(t, series, quotes).Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh must not fail on per-indicator errors: %v", err)
	}

	if _, ok := snap.Get("GDPGrowth"); ok {
		t.Error("failed series without estimate must be absent")
	}
	// Derived entry loses an input and is skipped, not zeroed.
	if _, ok := snap.Get("DeficitGDP"); ok {
		t.Error("derived entry with missing input must be absent")
	}
	// Quote with no tick seen and no estimate is absent.
	if _, ok := snap.Get("GoldPrice"); ok {
		t.Error("quote indicator without tick or estimate must be absent")
	}
	if unrate, ok := snap.Get("UNRATE"); !ok || unrate.Raw != 4.1 {
		t.Errorf("healthy indicator must survive: %+v", unrate)
	}
}

func TestRefreshFallsBackToEstimate(t *testing.T) {
	inds := testIndicators()
	for i := range inds {
		if inds[i].ID == "UNRATE" {
			inds[i].Estimate = 4.0
		}
	}
	cfg := &config.Config{Indicators: inds}
	cfg.Engine.SnapshotTTL = time.Minute
	series := &fakeSeries{errs: map[string]error{"UNRATE": errors.New("down")}}
	src := NewSource(cfg, series, &fakeQuotes{}, nil, nopMetrics{}, newTestLogger(t))

	snap, err := src.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	unrate, ok := snap.Get("UNRATE")
	if !ok || unrate.Source != models.SourceMock || unrate.Raw != 4.0 {
		t.Errorf("UNRATE = %+v, want mock fallback 4.0", unrate)
	}
}
