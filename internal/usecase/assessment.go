package usecase

import (
	"context"
	"sync"
	"time"

	"RiskPulse/internal/domain/models"
	"RiskPulse/pkg/logger"
)

// Cycle phases, logged as an assessment advances.
const (
	phaseTrends     = "analyzing-trends"
	phaseThresholds = "evaluating-thresholds"
	phaseAggregate  = "aggregating"
	phaseDone       = "done"
)

type trendResult struct {
	id    string
	stats models.TrendStats
	err   error
}

// Assess computes an assessment for the current snapshot.
func (e *Engine) Assess(ctx context.Context) (*models.RiskAssessment, error) {
	snap, err := e.source.GetSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return e.ComputeRiskAssessment(ctx, snap), nil
}

// ComputeRiskAssessment runs one scoring pass over an immutable snapshot.
// The result always covers every configured event; missing data degrades
// precision, never the shape of the output.
func (e *Engine) ComputeRiskAssessment(ctx context.Context, snap *models.Snapshot) *models.RiskAssessment {
	start := time.Now()

	e.logPhase(phaseTrends)
	multipliers, trendErrs, adjusted := e.analyzeTrends(ctx)

	e.logPhase(phaseThresholds)
	factors := e.eval.Evaluate(snap, multipliers)
	for _, ev := range e.events {
		if factors[ev.ID] == nil {
			factors[ev.ID] = []models.ContributingFactor{}
		}
	}

	e.logPhase(phaseAggregate)
	out := e.agg.Aggregate(factors)

	e.logPhase(phaseDone)
	for id, p := range out.Probabilities {
		e.metrics.RecordProbability(string(id), p)
	}
	e.metrics.RecordLatency("risk_assessment", time.Since(start).Seconds())

	return &models.RiskAssessment{
		Timestamp:      time.Now().UTC(),
		Probabilities:  out.Probabilities,
		Factors:        factors,
		RiskLevels:     out.RiskLevels,
		CriticalEvents: out.Critical,
		TrendAdjusted:  adjusted,
		Errors:         trendErrs,
	}
}

// analyzeTrends fans out one history fetch per rule indicator and folds the
// results into a multiplier map. Individual failures leave that indicator
// neutral; only a full collaborator outage turns trend adjustment off.
func (e *Engine) analyzeTrends(ctx context.Context) (map[string]float64, map[string]string, bool) {
	if e.disableTrend {
		e.log.Debug("trend adjustment disabled by configuration")
		return nil, nil, false
	}

	ids := e.trendIndicators()
	results := make(chan trendResult, len(ids))
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			series, err := e.history.GetHistory(ctx, id, e.trendWindow)
			if err != nil {
				results <- trendResult{id: id, err: err}
				return
			}
			results <- trendResult{id: id, stats: e.analyzer.Analyze(id, series.Points, e.inverted[id])}
		}(id)
	}
	wg.Wait()
	close(results)

	multipliers := make(map[string]float64, len(ids))
	var errs map[string]string
	failed := 0
	for r := range results {
		if r.err != nil {
			failed++
			if errs == nil {
				errs = make(map[string]string)
			}
			errs[r.id] = r.err.Error()
			e.metrics.RecordError("history_fetch")
			e.log.Warn("history unavailable, trend neutral for indicator",
				logger.String("indicator", r.id), logger.Error(r.err))
			continue
		}
		multipliers[r.id] = r.stats.Multiplier
	}
	if len(ids) > 0 && failed == len(ids) {
		e.log.Warn("history collaborator down, scoring without trend adjustment")
		return nil, errs, false
	}
	return multipliers, errs, true
}

// trendIndicators lists the unique primary indicators of the rule table in
// declaration order.
func (e *Engine) trendIndicators() []string {
	seen := make(map[string]bool, len(e.rules))
	out := make([]string, 0, len(e.rules))
	for _, r := range e.rules {
		if !seen[r.Indicator] {
			seen[r.Indicator] = true
			out = append(out, r.Indicator)
		}
	}
	return out
}

func (e *Engine) logPhase(phase string) {
	e.log.Debug("assessment phase", logger.String("phase", phase))
}
