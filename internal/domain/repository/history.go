package repository

import (
	"context"

	"RiskPulse/internal/domain/models"
)

// IndicatorSource supplies the current snapshot, derived entries included.
// GetSnapshot may serve a recent cached snapshot; Refresh always rebuilds
// from the upstream feeds.
type IndicatorSource interface {
	GetSnapshot(ctx context.Context) (*models.Snapshot, error)
	Refresh(ctx context.Context) (*models.Snapshot, error)
}

// HistoryProvider supplies recent per-indicator history, newest-first,
// best-effort per indicator.
type HistoryProvider interface {
	GetHistory(ctx context.Context, indicatorID string, periods int) (models.HistoricalSeries, error)
}
