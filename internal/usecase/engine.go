package usecase

import (
	"RiskPulse/internal/domain/models"
	domrepo "RiskPulse/internal/domain/repository"
	"RiskPulse/internal/services/scoring"
	"RiskPulse/internal/services/trend"
	"RiskPulse/pkg/config"
	"RiskPulse/pkg/logger"
)

// Engine turns one indicator snapshot plus per-indicator history into a full
// risk assessment. Configuration is resolved once at construction; each call
// keeps its working state on the stack, so overlapping cycles cannot
// interfere with each other.
type Engine struct {
	source   domrepo.IndicatorSource
	history  domrepo.HistoryProvider
	analyzer *trend.Analyzer
	eval     *scoring.Evaluator
	agg      *scoring.Aggregator

	events       []models.RiskEvent
	rules        []models.RiskRule
	inverted     map[string]bool
	trendWindow  int
	disableTrend bool

	log     *logger.Logger
	metrics domrepo.Metrics
}

func NewEngine(cfg *config.Config, source domrepo.IndicatorSource, history domrepo.HistoryProvider, m domrepo.Metrics, log *logger.Logger) *Engine {
	events := buildEvents(cfg.Events)
	rules := buildRules(cfg.Rules)
	return &Engine{
		source:  source,
		history: history,
		analyzer: trend.NewAnalyzer(trend.Params{
			HighVelocityThreshold: cfg.Engine.HighVelocityThreshold,
			MultiplierFloor:       cfg.Engine.MultiplierFloor,
			MultiplierCeil:        cfg.Engine.MultiplierCeil,
		}, log),
		eval: scoring.NewEvaluator(rules, log),
		agg: scoring.NewAggregator(events, scoring.AggregatorParams{
			DiscountTwoFactors:  cfg.Engine.DiscountTwoFactors,
			DiscountManyFactors: cfg.Engine.DiscountManyFactors,
		}),
		events:       events,
		rules:        rules,
		inverted:     cfg.InvertedIndicators(),
		trendWindow:  cfg.Engine.TrendWindow,
		disableTrend: cfg.Engine.DisableTrendAdjustment,
		log:          log,
		metrics:      m,
	}
}

// Events returns the configured risk events in reporting order.
func (e *Engine) Events() []models.RiskEvent { return e.events }

// Rules returns the static rule table in declaration order.
func (e *Engine) Rules() []models.RiskRule { return e.rules }

func buildEvents(evs []config.EventConfig) []models.RiskEvent {
	out := make([]models.RiskEvent, 0, len(evs))
	for _, ev := range evs {
		out = append(out, models.NewRiskEvent(models.EventID(ev.ID), ev.BasePrior, ev.CriticalThreshold))
	}
	return out
}

func buildRules(rules []config.RuleConfig) []models.RiskRule {
	out := make([]models.RiskRule, 0, len(rules))
	for _, r := range rules {
		rule := models.RiskRule{
			Event:            models.EventID(r.Event),
			Indicator:        r.Indicator,
			Operator:         r.Operator,
			Value:            r.Value,
			BaseFactor:       r.BaseFactor,
			Description:      r.Description,
			InvertedForTrend: r.InvertedForTrend,
		}
		if r.Composite != nil {
			rule.CompositeOp = models.CompositeOp(r.Composite.Op)
			rule.SecondIndicator = r.Composite.Second
		}
		out = append(out, rule)
	}
	return out
}
