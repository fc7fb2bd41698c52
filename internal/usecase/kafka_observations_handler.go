package usecase

import (
	"context"
	"encoding/json"
	"time"

	"RiskPulse/internal/domain/models"
	domrepo "RiskPulse/internal/domain/repository"
	pkgkafka "RiskPulse/pkg/kafka"
)

// KafkaObservationsHandler consumes observation messages and writes them to
// storage. It is the landing half of the kafka backend mode: producers put
// observations on the topic, this handler drains it into ClickHouse.
type KafkaObservationsHandler struct {
	topic   string
	storage domrepo.Storage
	metrics domrepo.Metrics
}

func NewKafkaObservationsHandler(topic string, storage domrepo.Storage, metrics domrepo.Metrics) *KafkaObservationsHandler {
	return &KafkaObservationsHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaObservationsHandler) Topic() string { return h.topic }

// incoming message schema: {indicator, d, v, src}
func (h *KafkaObservationsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Indicator string  `json:"indicator"`
		D         int64   `json:"d"`
		V         float64 `json:"v"`
		Src       string  `json:"src"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.D > 1e11 { // ms
		m.D = m.D / 1000
	}
	// E2E latency from observation time to now (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.Unix(m.D, 0)).Seconds())

	start := time.Now()
	err := h.storage.Store(ctx, &models.Observation{
		IndicatorID: m.Indicator,
		Date:        time.Unix(m.D, 0).UTC(),
		Value:       m.V,
		Source:      m.Src,
	})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordObservation("clickhouse", m.Indicator)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaObservationsHandler)(nil)
