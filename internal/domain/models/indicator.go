package models

import "time"

// SourceLabel tells where a snapshot value came from.
type SourceLabel string

const (
	SourceLive       SourceLabel = "Live"
	SourceEstimated  SourceLabel = "Estimated"
	SourceMock       SourceLabel = "Mock"
	SourceCalculated SourceLabel = "Calculated"
)

// IndicatorValue is one entry of a snapshot.
type IndicatorValue struct {
	Raw          float64
	DisplayValue string
	Threshold    string // descriptive, e.g. "danger above 120%"
	Source       SourceLabel
	AsOf         time.Time
	Note         string
}

// Snapshot holds the current value of every configured indicator for one
// refresh cycle. Built once, then treated as read-only; derived entries
// (DXY, DeficitGDP) are filled in before the snapshot is handed to scoring.
type Snapshot struct {
	Values    map[string]IndicatorValue
	CreatedAt time.Time
}

// Get returns the entry for an indicator id.
func (s *Snapshot) Get(id string) (IndicatorValue, bool) {
	if s == nil || s.Values == nil {
		return IndicatorValue{}, false
	}
	v, ok := s.Values[id]
	return v, ok
}

// SeriesPoint is one dated observation of an indicator.
type SeriesPoint struct {
	Date  time.Time
	Value float64
}

// HistoricalSeries is the recent history of one indicator, newest-first,
// at most the configured trend window long.
type HistoricalSeries struct {
	IndicatorID string
	Points      []SeriesPoint
}

// Observation is the persisted form of a series point.
type Observation struct {
	IndicatorID string
	Date        time.Time
	Value       float64
	Source      string
}

// Quote is a live market tick from the quote stream.
type Quote struct {
	Symbol    string
	Price     float64
	Timestamp int64
}
