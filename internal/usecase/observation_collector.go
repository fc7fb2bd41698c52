package usecase

import (
	"context"
	"time"

	"RiskPulse/internal/domain/models"
	drepo "RiskPulse/internal/domain/repository"
	mid "RiskPulse/internal/middleware"
	"RiskPulse/pkg/config"
	"RiskPulse/pkg/util"
)

type tickTarget struct {
	indicatorID string
	period      drepo.Period
}

// ObservationCollector turns live market ticks into dated observations and
// feeds them through the validation pipeline. Only ticks for symbols mapped
// to a configured indicator are kept.
type ObservationCollector struct {
	stream   drepo.QuoteStream
	proc     *ObservationProcessor
	metrics  drepo.Metrics
	pipe     *mid.ObservationPipeline
	bySymbol map[string]tickTarget
}

// NewObservationCollector creates a new ObservationCollector instance.
func NewObservationCollector(cfg *config.Config, stream drepo.QuoteStream, proc *ObservationProcessor, metrics drepo.Metrics, pipe *mid.ObservationPipeline) *ObservationCollector {
	bySymbol := make(map[string]tickTarget)
	for _, ind := range cfg.Indicators {
		if ind.Source == config.SourceQuotes {
			bySymbol[ind.Symbol] = tickTarget{indicatorID: ind.ID, period: drepo.NormalizePeriod(ind.Period)}
		}
	}
	return &ObservationCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe, bySymbol: bySymbol}
}

// IsConnected returns true if the quote stream is connected.
func (c *ObservationCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *ObservationCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	qCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, qCh, errCh)
	return nil
}

func (c *ObservationCollector) consume(ctx context.Context, qCh <-chan *models.Quote, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case q := <-qCh:
			if q == nil {
				continue
			}
			target, ok := c.bySymbol[q.Symbol]
			if !ok {
				continue
			}
			// One row per indicator and period; the storage engine
			// keeps the latest value for the bucket.
			o := &models.Observation{
				IndicatorID: target.indicatorID,
				Date:        util.TruncatePeriod(time.Unix(q.Timestamp, 0), string(target.period)),
				Value:       q.Price,
				Source:      "quotes",
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, o)
			} else {
				_ = c.proc.Process(ctx, o)
			}
			c.metrics.RecordIndicatorValue(target.indicatorID, q.Price)
		}
	}
}

func (c *ObservationCollector) Stop() error { return c.stream.Close() }

// Processor returns the underlying ObservationProcessor for lifecycle management.
func (c *ObservationCollector) Processor() *ObservationProcessor { return c.proc }

// Shutdown stops pipeline and closes stream.
func (c *ObservationCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
