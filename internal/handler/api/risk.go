package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	icache "RiskPulse/internal/service/cache"
	"RiskPulse/internal/service/metrics"
	"RiskPulse/internal/service/ratelimit"
	"RiskPulse/internal/usecase"
	applogger "RiskPulse/pkg/logger"
	"RiskPulse/pkg/util"
)

// RiskHandler is the plain net/http variant of the risk endpoints, used when
// the Echo stack is not wired (embedded deployments, tests).
type RiskHandler struct {
	svc     *usecase.AssessmentService
	history *usecase.HistoryUseCase
	cache   icache.BytesCache
	rl      *ratelimit.Limiter
	l       *applogger.Logger
}

func NewRiskHandler(svc *usecase.AssessmentService, history *usecase.HistoryUseCase) *RiskHandler {
	metrics.Register()
	return &RiskHandler{svc: svc, history: history, rl: ratelimit.New()}
}

func (h *RiskHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetLogger injects a structured logger.
func (h *RiskHandler) SetLogger(l *applogger.Logger) { h.l = l }

func (h *RiskHandler) Assessment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "assessment"
		defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		if !h.rl.Allow(r.RemoteAddr+":assessment", 5, 2) {
			if h.l != nil {
				h.l.Warn("risk.assessment rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		fresh := r.URL.Query().Get("fresh") == "true"
		cacheKey := "api:assessment"
		if h.cache != nil && !fresh {
			if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
				if h.l != nil {
					h.l.Warn("risk.assessment cache_get_error", applogger.Error(err))
				}
			} else if ok {
				w.Header().Set("Content-Type", "application/json")
				if _, err := w.Write(b); err != nil && h.l != nil {
					h.l.Warn("risk.assessment write_error", applogger.Error(err))
				}
				return
			}
		}

		res, err := h.svc.Current(r.Context())
		if fresh {
			res, err = h.svc.Refresh(r.Context())
		}
		if err != nil {
			metrics.APIErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("risk.assessment error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		b, err := json.Marshal(res)
		if err != nil {
			if h.l != nil {
				h.l.Error("risk.assessment marshal_error", applogger.Error(err))
			}
			http.Error(w, "encode error", http.StatusInternalServerError)
			return
		}
		if h.cache != nil {
			if err := h.cache.SetBytes(cacheKey, b, 30*time.Second); err != nil && h.l != nil {
				h.l.Warn("risk.assessment cache_set_error", applogger.Error(err))
			}
		}
		if _, err := w.Write(b); err != nil && h.l != nil {
			h.l.Warn("risk.assessment write_error", applogger.Error(err))
		}
	}
}

func (h *RiskHandler) History() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "history"
		defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		indicator := r.URL.Query().Get("indicator")
		if indicator == "" {
			if h.l != nil {
				h.l.Warn("risk.history missing indicator")
			}
			http.Error(w, "indicator required", http.StatusBadRequest)
			return
		}
		periods := util.ParseIntDefault(r.URL.Query().Get("periods"), 12)
		if !h.rl.Allow(r.RemoteAddr+":history", 5, 2) {
			if h.l != nil {
				h.l.Warn("risk.history rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		cacheKey := "api:history:" + indicator + ":" + strconv.Itoa(periods)
		if h.cache != nil {
			if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
				if h.l != nil {
					h.l.Warn("risk.history cache_get_error", applogger.Error(err))
				}
			} else if ok {
				w.Header().Set("Content-Type", "application/json")
				if _, err := w.Write(b); err != nil && h.l != nil {
					h.l.Warn("risk.history write_error", applogger.Error(err))
				}
				return
			}
		}

		res, err := h.history.GetHistory(r.Context(), usecase.GetHistoryParams{IndicatorID: indicator, Periods: periods})
		if err != nil {
			metrics.APIErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("risk.history error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		b, err := json.Marshal(res)
		if err != nil {
			if h.l != nil {
				h.l.Error("risk.history marshal_error", applogger.Error(err))
			}
			http.Error(w, "encode error", http.StatusInternalServerError)
			return
		}
		if h.cache != nil {
			if err := h.cache.SetBytes(cacheKey, b, 60*time.Second); err != nil && h.l != nil {
				h.l.Warn("risk.history cache_set_error", applogger.Error(err))
			}
		}
		if _, err := w.Write(b); err != nil && h.l != nil {
			h.l.Warn("risk.history write_error", applogger.Error(err))
		}
	}
}
