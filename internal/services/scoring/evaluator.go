package scoring

import (
	"math"

	"RiskPulse/internal/domain/models"
	"RiskPulse/pkg/logger"
)

// Evaluator scans the static rule table against a snapshot and emits a
// contributing factor per triggered rule. Rules are applied in declaration
// order, so factor lists are deterministic across cycles.
type Evaluator struct {
	rules []models.RiskRule
	log   *logger.Logger
}

func NewEvaluator(rules []models.RiskRule, log *logger.Logger) *Evaluator {
	return &Evaluator{rules: rules, log: log}
}

// Evaluate produces per-event factor lists. multipliers maps indicator id to
// its trend multiplier and may be nil or partial; rules whose indicator has
// no entry use 1.0. Rules referencing indicators absent from the snapshot
// are skipped silently, malformed values are skipped with a warning.
func (e *Evaluator) Evaluate(snap *models.Snapshot, multipliers map[string]float64) map[models.EventID][]models.ContributingFactor {
	out := make(map[models.EventID][]models.ContributingFactor)
	for _, r := range e.rules {
		raw, ok := e.ruleValue(snap, r)
		if !ok {
			continue
		}
		if math.IsNaN(raw) || math.IsInf(raw, 0) {
			e.warn("malformed indicator value, rule skipped", r)
			continue
		}
		if !compare(raw, r.Operator, r.Value) {
			continue
		}
		mult := 1.0
		if m, found := multipliers[r.Indicator]; found {
			mult = m
		}
		out[r.Event] = append(out[r.Event], models.ContributingFactor{
			Event:           r.Event,
			Indicator:       r.Indicator,
			BaseFactor:      r.BaseFactor,
			TrendMultiplier: mult,
			EffectiveFactor: r.BaseFactor * mult,
			Reason:          r.Description,
		})
	}
	return out
}

// ruleValue resolves the scalar a rule compares against: the indicator's raw
// value for plain rules, the derived spread or ratio for composite rules.
func (e *Evaluator) ruleValue(snap *models.Snapshot, r models.RiskRule) (float64, bool) {
	first, ok := snap.Get(r.Indicator)
	if !ok {
		return 0, false
	}
	if r.CompositeOp == "" {
		return first.Raw, true
	}
	second, ok := snap.Get(r.SecondIndicator)
	if !ok {
		return 0, false
	}
	switch r.CompositeOp {
	case models.CompositeSpread:
		return first.Raw - second.Raw, true
	case models.CompositeRatio:
		if second.Raw == 0 {
			e.warn("ratio denominator is zero, rule skipped", r)
			return 0, false
		}
		return first.Raw / second.Raw, true
	default:
		return 0, false
	}
}

func (e *Evaluator) warn(msg string, r models.RiskRule) {
	if e.log == nil {
		return
	}
	e.log.Warn(msg,
		logger.String("event", string(r.Event)),
		logger.String("indicator", r.Indicator),
	)
}

// compare applies an operator under IEEE semantics. NaN is rejected by the
// caller before this point; every comparison with NaN would be false anyway.
func compare(raw float64, op string, cmp float64) bool {
	switch op {
	case ">":
		return raw > cmp
	case "<":
		return raw < cmp
	case ">=":
		return raw >= cmp
	case "<=":
		return raw <= cmp
	case "==":
		return raw == cmp
	default:
		return false
	}
}
