package service

import (
	"context"

	"RiskPulse/internal/domain/models"
)

// SeriesQuery selects a slice of one upstream series.
type SeriesQuery struct {
	SeriesID  string
	Transform string // "" for raw values, "yoy" for percent change from a year ago
	Limit     int    // max points returned, newest-first
}

// SeriesClient reads observation series from the upstream REST API.
type SeriesClient interface {
	// FetchSeries returns up to q.Limit points, newest-first.
	FetchSeries(ctx context.Context, q SeriesQuery) ([]models.SeriesPoint, error)
	// FetchLatest returns the most recent point.
	FetchLatest(ctx context.Context, q SeriesQuery) (models.SeriesPoint, error)
}
