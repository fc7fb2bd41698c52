package middleware

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"RiskPulse/internal/domain/models"
)

type recordingProc struct {
	mu   sync.Mutex
	got  []*models.Observation
	fail bool
}

func (r *recordingProc) Process(_ context.Context, o *models.Observation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("backend down")
	}
	r.got = append(r.got, o)
	return nil
}

func (r *recordingProc) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

type countingMetrics struct {
	mu   sync.Mutex
	errs map[string]int
}

func (m *countingMetrics) RecordObservation(string, string)     {}
func (m *countingMetrics) RecordIndicatorValue(string, float64) {}
func (m *countingMetrics) RecordProbability(string, float64)    {}
func (m *countingMetrics) RecordLatency(string, float64)        {}

func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errs == nil {
		m.errs = make(map[string]int)
	}
	m.errs[kind]++
}

func (m *countingMetrics) errCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errs[kind]
}

func obs(indicator string, v float64) *models.Observation {
	return &models.Observation{
		IndicatorID: indicator,
		Date:        time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		Value:       v,
		Source:      "live",
	}
}

func TestPipelineRejectsInvalidObservations(t *testing.T) {
	proc := &recordingProc{}
	m := &countingMetrics{}
	p := NewObservationPipeline(proc, m)

	cases := []*models.Observation{
		nil,
		obs("", 1.0),
		{IndicatorID: "UNRATE", Value: 4.2}, // no date
		obs("UNRATE", math.NaN()),
		obs("UNRATE", math.Inf(1)),
	}
	for i, o := range cases {
		if err := p.Process(context.Background(), o); err == nil {
			t.Errorf("case %d: invalid observation accepted", i)
		}
	}
	if proc.count() != 0 {
		t.Errorf("downstream saw %d observations, want 0", proc.count())
	}
	if m.errCount("pipeline_validate") != len(cases) {
		t.Errorf("pipeline_validate = %d, want %d", m.errCount("pipeline_validate"), len(cases))
	}
}

func TestPipelineThrottlesPerIndicator(t *testing.T) {
	proc := &recordingProc{}
	m := &countingMetrics{}
	p := NewObservationPipeline(proc, m, WithThrottleInterval(time.Hour))

	for i := 0; i < 3; i++ {
		if err := p.Process(context.Background(), obs("VIX", float64(i))); err != nil {
			t.Fatalf("process: %v", err)
		}
	}
	// a different indicator is not subject to VIX's window
	if err := p.Process(context.Background(), obs("DXY", 104.0)); err != nil {
		t.Fatalf("process: %v", err)
	}

	if proc.count() != 2 {
		t.Errorf("downstream saw %d observations, want 2 (first VIX + DXY)", proc.count())
	}
	if m.errCount("pipeline_throttle") != 2 {
		t.Errorf("pipeline_throttle = %d, want 2", m.errCount("pipeline_throttle"))
	}
}

func TestPipelineTransformRunsBeforeValidation(t *testing.T) {
	proc := &recordingProc{}
	m := &countingMetrics{}
	p := NewObservationPipeline(proc, m, WithTransform(func(o *models.Observation) *models.Observation {
		o.Value = o.Value * 100
		return o
	}))

	if err := p.Process(context.Background(), obs("GDPGrowth", 0.5)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if proc.count() != 1 {
		t.Fatal("observation not forwarded")
	}
	if got := proc.got[0].Value; got != 50 {
		t.Errorf("value = %v, want 50", got)
	}
}

func TestPipelineBuffersOnBackendFailure(t *testing.T) {
	proc := &recordingProc{fail: true}
	m := &countingMetrics{}
	p := NewObservationPipeline(proc, m, WithBufferSize(4))

	if err := p.Process(context.Background(), obs("UNRATE", 4.4)); err == nil {
		t.Fatal("expected downstream error")
	}
	if m.errCount("pipeline_process") != 1 {
		t.Errorf("pipeline_process = %d, want 1", m.errCount("pipeline_process"))
	}

	// recover the backend and let the flusher drain the buffer
	proc.mu.Lock()
	proc.fail = false
	proc.mu.Unlock()

	p.Start(context.Background())
	defer p.Stop()

	deadline := time.After(2 * time.Second)
	for proc.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("buffered observation never flushed")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}
