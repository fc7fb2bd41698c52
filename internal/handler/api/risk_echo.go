package api

import (
	"errors"
	"time"

	models "RiskPulse/internal/domain/models"
	domrepo "RiskPulse/internal/domain/repository"
	"RiskPulse/internal/usecase"
	xhttp "RiskPulse/pkg/http"
	xlogger "RiskPulse/pkg/logger"
	"RiskPulse/pkg/queue"

	"github.com/labstack/echo/v4"
)

// RiskEchoHandler implements Echo-based HTTP handlers following Clean Architecture.
type RiskEchoHandler struct {
	logger  *xlogger.Logger
	svc     *usecase.AssessmentService
	history *usecase.HistoryUseCase
	engine  *usecase.Engine
	source  domrepo.IndicatorSource
	jobs    queue.QueueService // nil disables async refresh
}

func NewRiskEchoHandler(
	logger *xlogger.Logger,
	svc *usecase.AssessmentService,
	history *usecase.HistoryUseCase,
	engine *usecase.Engine,
	source domrepo.IndicatorSource,
) *RiskEchoHandler {
	return &RiskEchoHandler{logger: logger, svc: svc, history: history, engine: engine, source: source}
}

// SetQueue enables async refresh via the job queue.
func (h *RiskEchoHandler) SetQueue(q queue.QueueService) { h.jobs = q }

func (h *RiskEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1/risk")
	g.GET("/assessment", h.Assessment)
	g.POST("/assessment/refresh", h.Refresh)
	g.GET("/indicators", h.Indicators)
	g.GET("/indicators/:id/history", h.History)
	g.GET("/events", h.Events)
}

// Assessment returns the current risk assessment, recomputing when fresh=true.
func (h *RiskEchoHandler) Assessment(c echo.Context) error {
	req := &models.AssessmentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	var (
		res *models.RiskAssessment
		err error
	)
	if req.Fresh {
		res, err = h.svc.Refresh(c.Request().Context())
	} else {
		res, err = h.svc.Current(c.Request().Context())
	}
	if err != nil {
		h.logger.Error("assessment usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

// Indicators returns the current snapshot values.
func (h *RiskEchoHandler) Indicators(c echo.Context) error {
	snap, err := h.source.GetSnapshot(c.Request().Context())
	if err != nil {
		h.logger.Error("snapshot usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, snap)
}

// History returns recent points for one indicator, newest-first.
func (h *RiskEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.history.GetHistory(c.Request().Context(), usecase.GetHistoryParams{
		IndicatorID: c.Param("id"),
		Periods:     req.Periods,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrUnknownIndicator) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("indicator '%s' is not tracked", c.Param("id")))
		}
		h.logger.Error("history usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// eventInfo is the static configuration view of one tracked event.
type eventInfo struct {
	Event models.RiskEvent
	Rules []models.RiskRule
}

// Events lists the tracked risk events with their priors, thresholds, and rules.
func (h *RiskEchoHandler) Events(c echo.Context) error {
	rules := h.engine.Rules()
	out := make([]eventInfo, 0, len(h.engine.Events()))
	for _, ev := range h.engine.Events() {
		info := eventInfo{Event: ev}
		for _, r := range rules {
			if r.Event == ev.ID {
				info.Rules = append(info.Rules, r)
			}
		}
		out = append(out, info)
	}
	return xhttp.SuccessResponse(c, out)
}

// Refresh triggers a new cycle: async enqueues a job, sync blocks for the result.
func (h *RiskEchoHandler) Refresh(c echo.Context) error {
	req := &models.RefreshRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if req.Mode == "async" && h.jobs != nil {
		if err := h.jobs.PublishMessage(c.Request().Context(), usecase.RefreshMessageType, map[string]interface{}{
			"requested_at": time.Now().UTC().Format(time.RFC3339),
		}); err != nil {
			h.logger.Error("refresh enqueue error", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, err)
		}
		return xhttp.SuccessResponse(c, map[string]string{"status": "queued"})
	}

	res, err := h.svc.Refresh(c.Request().Context())
	if err != nil {
		h.logger.Error("refresh usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}
