package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	observations   *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	indicatorValue *prometheus.GaugeVec
	probability    *prometheus.GaugeVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		observations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskpulse_observations_total",
				Help: "Total number of observations written to a backend",
			},
			[]string{"backend", "indicator"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		indicatorValue: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "riskpulse_indicator_value",
				Help: "Last snapshot value per indicator",
			},
			[]string{"indicator"},
		),
		probability: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "riskpulse_event_probability",
				Help: "Latest assessed probability per risk event",
			},
			[]string{"event"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "riskpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordObservation records an observation written to a backend.
func (r *Recorder) RecordObservation(backend, indicator string) {
	r.observations.WithLabelValues(backend, indicator).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordIndicatorValue records the last snapshot value for an indicator.
func (r *Recorder) RecordIndicatorValue(indicator string, value float64) {
	r.indicatorValue.WithLabelValues(indicator).Set(value)
}

// RecordProbability records the assessed probability for a risk event.
func (r *Recorder) RecordProbability(event string, p float64) {
	r.probability.WithLabelValues(event).Set(p)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
