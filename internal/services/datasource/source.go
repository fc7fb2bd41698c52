package datasource

import (
	"context"
	"strconv"
	"sync"
	"time"

	"RiskPulse/internal/domain/models"
	domrepo "RiskPulse/internal/domain/repository"
	domsvc "RiskPulse/internal/domain/service"
	"RiskPulse/pkg/cache"
	"RiskPulse/pkg/config"
	"RiskPulse/pkg/logger"
)

const snapshotKey = "snapshot:current"

// QuoteSource exposes the last seen tick per symbol.
type QuoteSource interface {
	Latest(symbol string) (models.Quote, bool)
}

// Source assembles the per-cycle indicator snapshot: REST series values,
// last-seen live quotes and static estimates first, derived entries on top.
// A short-TTL cache serves read paths between refreshes.
type Source struct {
	indicators []config.IndicatorConfig
	series     domsvc.SeriesClient
	quotes     QuoteSource
	cache      cache.Service
	ttl        time.Duration
	log        *logger.Logger
	metrics    domrepo.Metrics
}

var _ domrepo.IndicatorSource = (*Source)(nil)

func NewSource(cfg *config.Config, series domsvc.SeriesClient, quotes QuoteSource, c cache.Service, m domrepo.Metrics, log *logger.Logger) *Source {
	return &Source{
		indicators: cfg.Indicators,
		series:     series,
		quotes:     quotes,
		cache:      c,
		ttl:        cfg.Engine.SnapshotTTL,
		log:        log,
		metrics:    m,
	}
}

// GetSnapshot returns the cached snapshot when one is fresh enough,
// rebuilding on miss.
func (s *Source) GetSnapshot(ctx context.Context) (*models.Snapshot, error) {
	if s.cache != nil {
		var snap models.Snapshot
		if err := s.cache.Get(ctx, snapshotKey, &snap); err == nil && len(snap.Values) > 0 {
			return &snap, nil
		}
	}
	return s.Refresh(ctx)
}

// Refresh rebuilds the snapshot from the upstream feeds and caches it.
func (s *Source) Refresh(ctx context.Context) (*models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	snap := s.build(ctx)
	s.metrics.RecordLatency("snapshot_build", time.Since(start).Seconds())
	if s.cache != nil {
		if err := s.cache.Set(ctx, snapshotKey, snap, s.ttl); err != nil {
			s.log.Warn("snapshot cache write failed", logger.Error(err))
		}
	}
	return snap, nil
}

type fetchResult struct {
	id    string
	value models.IndicatorValue
	ok    bool
}

func (s *Source) build(ctx context.Context) *models.Snapshot {
	values := make(map[string]models.IndicatorValue, len(s.indicators))

	// Series fetches go out concurrently; one slow or failing series must not
	// hold up the rest.
	var wg sync.WaitGroup
	results := make(chan fetchResult, len(s.indicators))
	for _, ind := range s.indicators {
		if ind.Source != config.SourceFred {
			continue
		}
		wg.Add(1)
		go func(ind config.IndicatorConfig) {
			defer wg.Done()
			v, ok := s.fetchSeries(ctx, ind)
			results <- fetchResult{id: ind.ID, value: v, ok: ok}
		}(ind)
	}
	wg.Wait()
	close(results)
	for r := range results {
		if r.ok {
			values[r.id] = r.value
		}
	}

	for _, ind := range s.indicators {
		switch ind.Source {
		case config.SourceQuotes:
			if v, ok := s.fetchQuote(ind); ok {
				values[ind.ID] = v
			}
		case config.SourceEstimated:
			values[ind.ID] = s.estimateValue(ind, models.SourceEstimated, "static estimate")
		}
	}

	// Derived entries need the rest of the snapshot in place first.
	for _, ind := range s.indicators {
		if ind.Source != config.SourceDerived {
			continue
		}
		if v, ok := s.deriveValue(ind, values); ok {
			values[ind.ID] = v
		} else {
			s.log.Warn("derived indicator skipped, inputs missing", logger.String("indicator", ind.ID))
		}
	}

	for id, v := range values {
		s.metrics.RecordIndicatorValue(id, v.Raw)
	}
	return &models.Snapshot{Values: values, CreatedAt: time.Now().UTC()}
}

func (s *Source) fetchSeries(ctx context.Context, ind config.IndicatorConfig) (models.IndicatorValue, bool) {
	point, err := s.series.FetchLatest(ctx, domsvc.SeriesQuery{SeriesID: ind.SeriesID, Transform: ind.Transform})
	if err != nil {
		s.metrics.RecordError("series_fetch")
		if ind.Estimate != 0 {
			s.log.Warn("series fetch failed, using fallback estimate",
				logger.String("indicator", ind.ID), logger.Error(err))
			return s.estimateValue(ind, models.SourceMock, "live fetch unavailable"), true
		}
		s.log.Warn("series fetch failed, indicator unavailable",
			logger.String("indicator", ind.ID), logger.Error(err))
		return models.IndicatorValue{}, false
	}
	return s.newValue(ind, point.Value, models.SourceLive, point.Date, ""), true
}

func (s *Source) fetchQuote(ind config.IndicatorConfig) (models.IndicatorValue, bool) {
	q, ok := s.quotes.Latest(ind.Symbol)
	if !ok {
		if ind.Estimate != 0 {
			return s.estimateValue(ind, models.SourceMock, "no live quote seen"), true
		}
		return models.IndicatorValue{}, false
	}
	return s.newValue(ind, q.Price, models.SourceLive, time.Unix(q.Timestamp, 0).UTC(), ""), true
}

func (s *Source) deriveValue(ind config.IndicatorConfig, values map[string]models.IndicatorValue) (models.IndicatorValue, bool) {
	switch ind.ID {
	case "DXY":
		rates := make(map[string]float64, len(dxyLegs))
		for _, leg := range dxyLegs {
			v, ok := values[leg.id]
			if !ok {
				return models.IndicatorValue{}, false
			}
			rates[leg.id] = v.Raw
		}
		idx, ok := DollarIndex(rates)
		if !ok {
			return models.IndicatorValue{}, false
		}
		return s.newValue(ind, idx, models.SourceCalculated, time.Now().UTC(), "derived from six FX legs"), true
	case "DeficitGDP":
		balance, okB := values["FedDeficit"]
		gdp, okG := values["NominalGDP"]
		if !okB || !okG {
			return models.IndicatorValue{}, false
		}
		// FYFSD reports the balance in millions, GDP in billions.
		share, ok := DeficitShare(balance.Raw/1000, gdp.Raw)
		if !ok {
			return models.IndicatorValue{}, false
		}
		return s.newValue(ind, share, models.SourceCalculated, time.Now().UTC(), "deficit as percent of GDP"), true
	default:
		return models.IndicatorValue{}, false
	}
}

func (s *Source) estimateValue(ind config.IndicatorConfig, label models.SourceLabel, note string) models.IndicatorValue {
	return s.newValue(ind, ind.Estimate, label, time.Now().UTC(), note)
}

func (s *Source) newValue(ind config.IndicatorConfig, raw float64, label models.SourceLabel, asOf time.Time, note string) models.IndicatorValue {
	return models.IndicatorValue{
		Raw:          raw,
		DisplayValue: formatValue(raw, ind),
		Threshold:    ind.ThresholdText,
		Source:       label,
		AsOf:         asOf,
		Note:         note,
	}
}

func formatValue(v float64, ind config.IndicatorConfig) string {
	s := strconv.FormatFloat(v, 'f', ind.Decimals, 64)
	switch ind.Unit {
	case "":
		return s
	case "$":
		return "$" + s
	case "%":
		return s + "%"
	default:
		return s + " " + ind.Unit
	}
}
