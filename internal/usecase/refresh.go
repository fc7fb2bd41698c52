package usecase

import (
	"context"
	"fmt"
	"time"

	"RiskPulse/internal/domain/models"
	domrepo "RiskPulse/internal/domain/repository"
	"RiskPulse/pkg/cache"
	"RiskPulse/pkg/config"
	"RiskPulse/pkg/logger"
	"RiskPulse/pkg/queue"
)

const (
	assessmentKey  = "assessment:current"
	refreshLockKey = "assessment:refresh:lock"
	refreshLockTTL = 30 * time.Second
)

// AssessmentService serves assessments to callers and drives the refresh
// cycle: rebuild the snapshot, score it, cache and publish the result, and
// persist the snapshot values as observations so local history accrues.
type AssessmentService struct {
	engine *Engine
	source domrepo.IndicatorSource
	proc   *ObservationProcessor
	pub    domrepo.AssessmentPublisher
	cache  cache.Service
	ttl    time.Duration
	log    *logger.Logger
}

func NewAssessmentService(
	cfg *config.Config,
	engine *Engine,
	source domrepo.IndicatorSource,
	proc *ObservationProcessor,
	pub domrepo.AssessmentPublisher,
	c cache.Service,
	log *logger.Logger,
) *AssessmentService {
	return &AssessmentService{
		engine: engine,
		source: source,
		proc:   proc,
		pub:    pub,
		cache:  c,
		ttl:    cfg.Engine.AssessmentTTL,
		log:    log,
	}
}

// Current returns the cached assessment when fresh enough, computing one
// otherwise. Read paths go through here.
func (s *AssessmentService) Current(ctx context.Context) (*models.RiskAssessment, error) {
	if s.cache != nil {
		var a models.RiskAssessment
		if err := s.cache.Get(ctx, assessmentKey, &a); err == nil && len(a.Probabilities) > 0 {
			return &a, nil
		}
	}
	return s.Refresh(ctx)
}

// Refresh runs one full cycle against a freshly built snapshot. Publish and
// persistence failures are logged, never returned: the assessment itself is
// already complete at that point.
func (s *AssessmentService) Refresh(ctx context.Context) (*models.RiskAssessment, error) {
	// Single-flight across replicas: if another refresh holds the lock and
	// its result has already landed in the cache, serve that instead of
	// hitting the upstream feeds again.
	if s.cache != nil {
		ok, err := s.cache.TryLock(ctx, refreshLockKey, refreshLockTTL)
		if err == nil && !ok {
			var a models.RiskAssessment
			if err := s.cache.Get(ctx, assessmentKey, &a); err == nil && len(a.Probabilities) > 0 {
				return &a, nil
			}
		}
		if ok {
			defer func() {
				if err := s.cache.Unlock(context.WithoutCancel(ctx), refreshLockKey); err != nil {
					s.log.Warn("refresh lock release failed", logger.Error(err))
				}
			}()
		}
	}

	snap, err := s.source.Refresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh snapshot: %w", err)
	}
	a := s.engine.ComputeRiskAssessment(ctx, snap)

	if s.cache != nil {
		if err := s.cache.Set(ctx, assessmentKey, a, s.ttl); err != nil {
			s.log.Warn("assessment cache write failed", logger.Error(err))
		}
	}
	if s.pub != nil {
		if err := s.pub.PublishAssessment(ctx, a); err != nil {
			s.log.Warn("assessment publish failed", logger.Error(err))
		}
	}
	if s.proc != nil {
		if err := s.proc.ProcessBatch(ctx, snapshotObservations(snap)); err != nil {
			s.log.Warn("observation persist failed", logger.Error(err))
		}
	}
	return a, nil
}

// snapshotObservations flattens a snapshot into dated observation points.
func snapshotObservations(snap *models.Snapshot) []*models.Observation {
	if snap == nil {
		return nil
	}
	out := make([]*models.Observation, 0, len(snap.Values))
	for id, v := range snap.Values {
		out = append(out, &models.Observation{
			IndicatorID: id,
			Date:        v.AsOf,
			Value:       v.Raw,
			Source:      string(v.Source),
		})
	}
	return out
}

// Scheduler reruns the refresh cycle on a fixed interval. A manual refresh
// may land between ticks; cycles keep their state on the stack, so overlap
// is harmless and the cache ends up holding whichever finished last.
type Scheduler struct {
	svc      *AssessmentService
	interval time.Duration
	log      *logger.Logger
	stopCh   chan struct{}
}

func NewScheduler(cfg *config.Config, svc *AssessmentService, log *logger.Logger) *Scheduler {
	return &Scheduler{
		svc:      svc,
		interval: cfg.Engine.RefreshInterval,
		log:      log,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the first cycle immediately, then ticks until Stop.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		s.runOnce(ctx)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()
}

func (s *Scheduler) runOnce(ctx context.Context) {
	start := time.Now()
	a, err := s.svc.Refresh(ctx)
	if err != nil {
		s.log.Error("scheduled refresh failed", logger.Error(err))
		return
	}
	s.log.Info("scheduled refresh complete",
		logger.Int("critical_events", len(a.CriticalEvents)),
		logger.Bool("trend_adjusted", a.TrendAdjusted),
		logger.Duration("duration_ms", time.Since(start)),
	)
}

func (s *Scheduler) Stop() { close(s.stopCh) }

// RefreshMessageType names the queue message that triggers a refresh.
const RefreshMessageType = "assessment.refresh"

// RefreshJob runs queued refresh requests, decoupling HTTP callers from the
// cycle latency.
type RefreshJob struct {
	svc *AssessmentService
	log *logger.Logger
}

func NewRefreshJob(svc *AssessmentService, log *logger.Logger) *RefreshJob {
	return &RefreshJob{svc: svc, log: log}
}

func (j *RefreshJob) Name() string { return "assessment-refresh" }
func (j *RefreshJob) Type() string { return RefreshMessageType }

// refreshRequest is the payload the HTTP handler enqueues.
type refreshRequest struct {
	RequestedAt string `json:"requested_at"`
}

func (j *RefreshJob) Handle(ctx context.Context, payload interface{}) error {
	if req, err := queue.ParsePayload[refreshRequest](payload); err == nil && req.RequestedAt != "" {
		if t, perr := time.Parse(time.RFC3339, req.RequestedAt); perr == nil {
			j.log.Info("queued refresh starting", logger.Duration("queued_for", time.Since(t)))
		}
	}
	_, err := j.svc.Refresh(ctx)
	if err != nil {
		j.log.Error("queued refresh failed", logger.Error(err))
	}
	return err
}

var _ queue.Job = (*RefreshJob)(nil)
