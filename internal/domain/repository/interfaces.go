package repository

import (
	"context"
	"time"

	"RiskPulse/internal/domain/models"
)

type QuoteStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Quote, <-chan error)
	Reconnect(ctx context.Context) error
	Latest(symbol string) (models.Quote, bool)
	Close() error
	IsConnected() bool
}

type Publisher interface {
	Publish(ctx context.Context, o *models.Observation) error
	PublishBatch(ctx context.Context, obs []*models.Observation) error
	Close() error
}

type AssessmentPublisher interface {
	PublishAssessment(ctx context.Context, a *models.RiskAssessment) error
	Close() error
}

type Storage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, o *models.Observation) error
	StoreBatch(ctx context.Context, obs []*models.Observation) error
	Query(ctx context.Context, indicatorID string, from, to time.Time, limit int) ([]*models.Observation, error)
	Health(ctx context.Context) error // ping
	Close() error
}

type Metrics interface {
	RecordObservation(backend, indicator string)
	RecordError(kind string)
	RecordIndicatorValue(indicator string, value float64)
	RecordProbability(event string, p float64)
	RecordLatency(op string, seconds float64)
}
