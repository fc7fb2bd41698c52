package middleware

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"RiskPulse/internal/domain/models"
	domrepo "RiskPulse/internal/domain/repository"
)

// Proc is the minimal downstream interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, o *models.Observation) error
}

// ObservationPipeline sits between the feeds and the storage backend.
// It validates and throttles incoming observation points, and buffers them
// when the backend is unavailable.
type ObservationPipeline struct {
	proc     Proc
	metrics  domrepo.Metrics
	interval time.Duration
	bufSize  int
	bufCh    chan *models.Observation
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time // per-indicator last accepted time
	// optional format transform hook
	transform func(*models.Observation) *models.Observation
}

type PipelineOption func(*ObservationPipeline)

// WithThrottleInterval sets the minimum spacing between accepted points of
// one indicator. High-frequency feeds collapse to at most one point per
// interval; slower feeds pass through untouched.
func WithThrottleInterval(d time.Duration) PipelineOption {
	return func(p *ObservationPipeline) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithBufferSize sets the retry buffer capacity used when downstream fails.
func WithBufferSize(n int) PipelineOption {
	return func(p *ObservationPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithTransform sets a transformation hook applied before validation of the
// transformed point.
func WithTransform(fn func(*models.Observation) *models.Observation) PipelineOption {
	return func(p *ObservationPipeline) { p.transform = fn }
}

// NewObservationPipeline creates a pipeline in front of proc.
func NewObservationPipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *ObservationPipeline {
	p := &ObservationPipeline{
		proc:     proc,
		metrics:  metrics,
		interval: time.Second,
		bufSize:  1000,
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.Observation, p.bufSize)
	return p
}

// Start launches background flushing of buffered observations.
func (p *ObservationPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case o := <-p.bufCh:
				if o == nil {
					continue
				}
				if err := p.proc.Process(ctx, o); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- o:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *ObservationPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, throttles, and forwards an observation downstream,
// buffering it when the backend errors.
func (p *ObservationPipeline) Process(ctx context.Context, o *models.Observation) error {
	start := time.Now()
	if err := validateObservation(o); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if p.transform != nil {
		o = p.transform(o)
		if err := validateObservation(o); err != nil {
			p.metrics.RecordError("pipeline_transform_invalid")
			return err
		}
	}
	if !p.allow(o.IndicatorID, start) {
		// throttled; drop silently
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, o); err != nil {
		p.metrics.RecordError("pipeline_process")
		select {
		case p.bufCh <- o:
			p.metrics.RecordLatency("pipeline_buffer_depth", float64(len(p.bufCh)))
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateObservation(o *models.Observation) error {
	if o == nil {
		return fmt.Errorf("observation nil")
	}
	if o.IndicatorID == "" {
		return fmt.Errorf("indicator empty")
	}
	if o.Date.IsZero() {
		return fmt.Errorf("date missing")
	}
	if math.IsNaN(o.Value) || math.IsInf(o.Value, 0) {
		return fmt.Errorf("value not finite")
	}
	return nil
}

func (p *ObservationPipeline) allow(indicator string, now time.Time) bool {
	if p.interval <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[indicator]
	if !last.IsZero() && now.Sub(last) < p.interval {
		return false
	}
	p.lastSeen[indicator] = now
	return true
}
