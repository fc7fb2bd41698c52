package repository

import (
	"context"
	"fmt"

	"RiskPulse/internal/domain/models"
	domrepo "RiskPulse/internal/domain/repository"
	domsvc "RiskPulse/internal/domain/service"
	"RiskPulse/pkg/config"
	applogger "RiskPulse/pkg/logger"
)

// localHistoryStore is the slice of CHHistoryStore the provider needs.
type localHistoryStore interface {
	GetHistory(ctx context.Context, indicatorID string, periods int) (models.HistoricalSeries, error)
}

// HistoryProvider answers history reads from the local observation store
// first, which the refresh cycle keeps fed. When the store errors or has no
// points yet, fred-backed indicators fall back to the upstream series API;
// everything else (quotes, estimates, derived values) is local-only.
type HistoryProvider struct {
	series    domsvc.SeriesClient
	local     localHistoryStore
	byID      map[string]config.IndicatorConfig
	maxWindow int
	l         *applogger.Logger
}

var _ domrepo.HistoryProvider = (*HistoryProvider)(nil)

func NewHistoryProvider(cfg *config.Config, series domsvc.SeriesClient, local *CHHistoryStore) *HistoryProvider {
	byID := make(map[string]config.IndicatorConfig, len(cfg.Indicators))
	for _, ind := range cfg.Indicators {
		byID[ind.ID] = ind
	}
	h := &HistoryProvider{
		series:    series,
		byID:      byID,
		maxWindow: cfg.Engine.TrendWindow,
	}
	if local != nil {
		h.local = local
	}
	return h
}

// SetLogger injects a structured logger.
func (h *HistoryProvider) SetLogger(l *applogger.Logger) { h.l = l }

// GetHistory returns up to `periods` points, newest-first. Unknown indicators
// are an error; an empty series from a known non-fred indicator is not.
func (h *HistoryProvider) GetHistory(ctx context.Context, indicatorID string, periods int) (models.HistoricalSeries, error) {
	ind, ok := h.byID[indicatorID]
	if !ok {
		return models.HistoricalSeries{}, fmt.Errorf("unknown indicator '%s'", indicatorID)
	}
	if periods <= 0 {
		periods = h.maxWindow
	}

	var localErr error
	if h.local != nil {
		series, err := h.local.GetHistory(ctx, indicatorID, periods)
		if err == nil && len(series.Points) > 0 {
			return series, nil
		}
		localErr = err
	}

	if ind.Source != config.SourceFred {
		if localErr != nil {
			return models.HistoricalSeries{}, localErr
		}
		if h.local == nil {
			return models.HistoricalSeries{}, fmt.Errorf("no history backend for indicator '%s'", indicatorID)
		}
		return models.HistoricalSeries{IndicatorID: indicatorID}, nil
	}

	if localErr != nil && h.l != nil {
		h.l.Warn("local history unavailable, falling back to series API",
			applogger.String("indicator", indicatorID),
			applogger.Error(localErr),
		)
	}
	points, err := h.series.FetchSeries(ctx, domsvc.SeriesQuery{
		SeriesID:  ind.SeriesID,
		Transform: ind.Transform,
		Limit:     periods,
	})
	if err != nil {
		return models.HistoricalSeries{}, err
	}
	return models.HistoricalSeries{IndicatorID: indicatorID, Points: points}, nil
}
