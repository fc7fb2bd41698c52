package usecase

import (
	"context"
	"errors"
	"fmt"

	"RiskPulse/internal/domain/models"
	domrepo "RiskPulse/internal/domain/repository"
	"RiskPulse/pkg/config"
)

const maxHistoryPeriods = 120

// ErrUnknownIndicator marks a history request for an indicator that is not
// in the registry.
var ErrUnknownIndicator = errors.New("unknown indicator")

// HistoryUseCase provides business logic for reading indicator history.
type HistoryUseCase struct {
	provider domrepo.HistoryProvider
	window   int
	known    map[string]bool
}

func NewHistoryUseCase(cfg *config.Config, provider domrepo.HistoryProvider) *HistoryUseCase {
	known := make(map[string]bool, len(cfg.Indicators))
	for _, ind := range cfg.Indicators {
		known[ind.ID] = true
	}
	return &HistoryUseCase{provider: provider, window: cfg.Engine.TrendWindow, known: known}
}

type GetHistoryParams struct {
	IndicatorID string
	Periods     int
}

type GetHistoryResult struct {
	IndicatorID string
	Periods     int
	Count       int
	Points      []models.SeriesPoint
}

func (uc *HistoryUseCase) GetHistory(ctx context.Context, p GetHistoryParams) (*GetHistoryResult, error) {
	if p.IndicatorID == "" {
		return nil, fmt.Errorf("indicator required")
	}
	if !uc.known[p.IndicatorID] {
		return nil, fmt.Errorf("%w '%s'", ErrUnknownIndicator, p.IndicatorID)
	}
	if p.Periods <= 0 {
		p.Periods = uc.window
	}
	if p.Periods > maxHistoryPeriods {
		p.Periods = maxHistoryPeriods
	}

	series, err := uc.provider.GetHistory(ctx, p.IndicatorID, p.Periods)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}

	return &GetHistoryResult{
		IndicatorID: p.IndicatorID,
		Periods:     p.Periods,
		Count:       len(series.Points),
		Points:      series.Points,
	}, nil
}
