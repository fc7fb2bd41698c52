package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"RiskPulse/internal/domain/models"
	"RiskPulse/internal/domain/repository"
	pkgkafka "RiskPulse/pkg/kafka"
)

// ClickHouseStorage implements Storage for ClickHouse.
type ClickHouseStorage struct {
	db    *sql.DB
	table string
}

// NewClickHouseStorage creates ClickHouse storage.
func NewClickHouseStorage(db *sql.DB, table string) repository.Storage {
	return &ClickHouseStorage{db: db, table: table}
}

func (s *ClickHouseStorage) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseStorage) Store(ctx context.Context, o *models.Observation) error {
	q := fmt.Sprintf("INSERT INTO %s (indicator, obs_date, value, source, event_id) VALUES (?, ?, ?, ?, ?)", s.table)
	// Idempotency key: one row per indicator and observation date.
	eventID := fmt.Sprintf("%s-%s", o.IndicatorID, o.Date.Format("2006-01-02"))
	_, err := s.db.ExecContext(ctx, q,
		o.IndicatorID,
		o.Date,
		o.Value,
		o.Source,
		eventID,
	)
	return err
}

func (s *ClickHouseStorage) StoreBatch(ctx context.Context, obs []*models.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	// Batch insert using VALUES multi-row to reduce round-trips. Observations
	// arrive at snapshot cadence, so one chunk almost always suffices.
	const chunkSize = 2000
	for start := 0; start < len(obs); start += chunkSize {
		end := start + chunkSize
		if end > len(obs) {
			end = len(obs)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*5)
		for _, o := range obs[start:end] {
			if o == nil || o.IndicatorID == "" || o.Date.IsZero() {
				continue
			}
			eventID := fmt.Sprintf("%s-%s", o.IndicatorID, o.Date.Format("2006-01-02"))
			values = append(values, "(?, ?, ?, ?, ?)")
			args = append(args,
				o.IndicatorID,
				o.Date,
				o.Value,
				o.Source,
				eventID,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (indicator, obs_date, value, source, event_id) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseStorage) Query(ctx context.Context, indicatorID string, from, to time.Time, limit int) ([]*models.Observation, error) {
	q := fmt.Sprintf("SELECT indicator, obs_date, value, source FROM %s WHERE indicator = ? AND obs_date >= ? AND obs_date <= ? ORDER BY obs_date DESC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, indicatorID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var obs []*models.Observation
	for rows.Next() {
		var o models.Observation
		if err := rows.Scan(&o.IndicatorID, &o.Date, &o.Value, &o.Source); err != nil {
			return nil, err
		}
		obs = append(obs, &o)
	}
	return obs, rows.Err()
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseStorage) Close() error {
	return nil // Managed by pkg
}

// KafkaPublisher implements Publisher for Kafka.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, o *models.Observation) error {
	return p.producer.Publish(ctx, p.topic, []byte(o.IndicatorID), map[string]interface{}{
		"indicator": o.IndicatorID,
		"d":         o.Date.Unix(),
		"v":         o.Value,
		"src":       o.Source,
	})
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, obs []*models.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(obs))
	for i, o := range obs {
		msgs[i] = pkgkafka.Message{
			Key: []byte(o.IndicatorID),
			Value: map[string]interface{}{
				"indicator": o.IndicatorID,
				"d":         o.Date.Unix(),
				"v":         o.Value,
				"src":       o.Source,
			},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// KafkaAssessmentPublisher emits completed risk assessments for downstream
// consumers (alerting, dashboards).
type KafkaAssessmentPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaAssessmentPublisher creates the assessments publisher.
func NewKafkaAssessmentPublisher(producer *pkgkafka.Producer, topic string) repository.AssessmentPublisher {
	return &KafkaAssessmentPublisher{producer: producer, topic: topic}
}

func (p *KafkaAssessmentPublisher) PublishAssessment(ctx context.Context, a *models.RiskAssessment) error {
	if a == nil {
		return fmt.Errorf("assessment is nil")
	}
	return p.producer.Publish(ctx, p.topic, []byte(a.Timestamp.Format(time.RFC3339)), a)
}

func (p *KafkaAssessmentPublisher) Close() error {
	// Producer is shared with the observation publisher; closed there.
	return nil
}
