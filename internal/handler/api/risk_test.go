package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"RiskPulse/internal/domain/models"
	icache "RiskPulse/internal/service/cache"
	"RiskPulse/internal/usecase"
	"RiskPulse/pkg/config"
	"RiskPulse/pkg/logger"
)

type stubSource struct {
	snap     *models.Snapshot
	refreshN int
}

func (s *stubSource) GetSnapshot(context.Context) (*models.Snapshot, error) {
	return s.snap, nil
}

func (s *stubSource) Refresh(context.Context) (*models.Snapshot, error) {
	s.refreshN++
	return s.snap, nil
}

type stubHistory struct {
	series map[string][]models.SeriesPoint
}

func (s *stubHistory) GetHistory(_ context.Context, id string, periods int) (models.HistoricalSeries, error) {
	pts := s.series[id]
	if len(pts) > periods {
		pts = pts[:periods]
	}
	return models.HistoricalSeries{IndicatorID: id, Points: pts}, nil
}

type noMetrics struct{}

func (noMetrics) RecordObservation(string, string)     {}
func (noMetrics) RecordError(string)                   {}
func (noMetrics) RecordIndicatorValue(string, float64) {}
func (noMetrics) RecordProbability(string, float64)    {}
func (noMetrics) RecordLatency(string, float64)        {}

func handlerConfig() *config.Config {
	c := &config.Config{
		Events: []config.EventConfig{
			{ID: "recessionLike", BasePrior: 0.15, CriticalThreshold: 0.70},
		},
		Rules: []config.RuleConfig{
			{Event: "recessionLike", Indicator: "GDPGrowth", Operator: "<", Value: 0, BaseFactor: 1.8, Description: "growth negative"},
		},
		Indicators: []config.IndicatorConfig{
			{ID: "GDPGrowth", Name: "Real GDP Growth", Source: "fred", Period: "quarterly"},
		},
	}
	c.Engine.TrendWindow = 12
	c.Engine.HighVelocityThreshold = 2.0
	c.Engine.MultiplierFloor = 0.5
	c.Engine.MultiplierCeil = 1.5
	c.Engine.DiscountTwoFactors = 0.7
	c.Engine.DiscountManyFactors = 0.5
	c.Engine.AssessmentTTL = time.Minute
	return c
}

func newTestRiskHandler(t *testing.T) (*RiskHandler, *stubSource) {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	cfg := handlerConfig()
	source := &stubSource{snap: &models.Snapshot{
		Values: map[string]models.IndicatorValue{
			"GDPGrowth": {Raw: -1.2, Source: models.SourceLive},
		},
		CreatedAt: time.Now(),
	}}
	hist := &stubHistory{series: map[string][]models.SeriesPoint{
		"GDPGrowth": {
			{Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Value: -1.2},
			{Date: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), Value: -0.8},
			{Date: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), Value: -0.3},
		},
	}}
	engine := usecase.NewEngine(cfg, source, hist, noMetrics{}, log)
	svc := usecase.NewAssessmentService(cfg, engine, source, nil, nil, nil, log)
	uc := usecase.NewHistoryUseCase(cfg, hist)

	h := NewRiskHandler(svc, uc)
	h.SetLogger(log)
	return h, source
}

func TestRiskHandlerAssessment(t *testing.T) {
	h, _ := newTestRiskHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/assessment", nil)
	rec := httptest.NewRecorder()
	h.Assessment()(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got models.RiskAssessment
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	p, ok := got.Probabilities["recessionLike"]
	if !ok {
		t.Fatal("recessionLike probability missing")
	}
	if p <= 0.15 {
		t.Errorf("probability %v should exceed the prior with a triggered rule", p)
	}
}

func TestRiskHandlerAssessmentCacheHit(t *testing.T) {
	h, source := newTestRiskHandler(t)
	h.SetCache(icache.NewTTLCache())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/assessment", nil)
		rec := httptest.NewRecorder()
		h.Assessment()(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}
	if source.refreshN != 1 {
		t.Errorf("refreshN = %d, second request should be served from cache", source.refreshN)
	}
}

func TestRiskHandlerAssessmentFreshBypassesCache(t *testing.T) {
	h, source := newTestRiskHandler(t)
	h.SetCache(icache.NewTTLCache())

	for _, url := range []string{"/api/assessment", "/api/assessment?fresh=true"} {
		req := httptest.NewRequest(http.MethodGet, url, nil)
		rec := httptest.NewRecorder()
		h.Assessment()(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", url, rec.Code)
		}
	}
	if source.refreshN != 2 {
		t.Errorf("refreshN = %d, fresh=true must force a recompute", source.refreshN)
	}
}

func TestRiskHandlerHistory(t *testing.T) {
	h, _ := newTestRiskHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/history?indicator=GDPGrowth&periods=2", nil)
	rec := httptest.NewRecorder()
	h.History()(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got usecase.GetHistoryResult
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Count != 2 {
		t.Errorf("count = %d, want 2", got.Count)
	}
	if got.IndicatorID != "GDPGrowth" {
		t.Errorf("indicator = %q", got.IndicatorID)
	}
}

func TestRiskHandlerHistoryRequiresIndicator(t *testing.T) {
	h, _ := newTestRiskHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rec := httptest.NewRecorder()
	h.History()(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRiskHandlerHistoryUnknownIndicator(t *testing.T) {
	h, _ := newTestRiskHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/history?indicator=Nope", nil)
	rec := httptest.NewRecorder()
	h.History()(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestRiskHandlerRateLimit(t *testing.T) {
	h, _ := newTestRiskHandler(t)

	var limited bool
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/assessment", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.Assessment()(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("burst of requests from one address never hit the limiter")
	}
}
