package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"RiskPulse/internal/domain/models"
	pkgch "RiskPulse/pkg/clickhouse"
	applogger "RiskPulse/pkg/logger"
)

// CHHistoryStore reads per-indicator history out of ClickHouse, newest-first,
// deduplicated to one point per observation date.
type CHHistoryStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHHistoryStore(ch *pkgch.Client, table string) *CHHistoryStore {
	return &CHHistoryStore{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (s *CHHistoryStore) SetLogger(l *applogger.Logger) { s.l = l }

// GetHistory returns up to `periods` points for one indicator, newest-first.
func (s *CHHistoryStore) GetHistory(ctx context.Context, indicatorID string, periods int) (models.HistoricalSeries, error) {
	start := time.Now()
	if periods <= 0 {
		periods = 12
	}
	const qtpl = `
		SELECT obs_date, argMax(value, obs_date) AS value
		FROM %s
		WHERE indicator = ?
		GROUP BY obs_date
		ORDER BY obs_date DESC
		LIMIT ?
	`
	q := fmt.Sprintf(qtpl, s.table)
	rows, err := s.db.QueryContext(ctx, q, indicatorID, periods)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse history query error",
				applogger.String("indicator", indicatorID),
				applogger.Int("periods", periods),
				applogger.Error(err),
			)
		}
		return models.HistoricalSeries{}, fmt.Errorf("get history: %w", err)
	}
	defer rows.Close()

	points := make([]models.SeriesPoint, 0, periods)
	for rows.Next() {
		var p models.SeriesPoint
		if err := rows.Scan(&p.Date, &p.Value); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse history scan error",
					applogger.String("indicator", indicatorID),
					applogger.Error(err),
				)
			}
			return models.HistoricalSeries{}, fmt.Errorf("scan point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse history rows error",
				applogger.String("indicator", indicatorID),
				applogger.Error(err),
			)
		}
		return models.HistoricalSeries{}, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse history ok",
			applogger.String("indicator", indicatorID),
			applogger.Int("rows", len(points)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return models.HistoricalSeries{IndicatorID: indicatorID, Points: points}, nil
}
