package api

import (
	"errors"
	"time"

	"StratCore/internal/domain/repository"
	"StratCore/internal/evaluator"
	"StratCore/internal/policy"
	"StratCore/internal/usecase"
	"StratCore/pkg/cache"
	xhttp "StratCore/pkg/http"
	xlogger "StratCore/pkg/logger"

	"github.com/labstack/echo/v4"
)

// StrategyHandler exposes the operational API: signal and position
// inspection, candle history, policy introspection, entry confirmation,
// and the two reload endpoints.
type StrategyHandler struct {
	logger *xlogger.Logger
	engine *usecase.Engine
	eval   *evaluator.Evaluator
	holds  *policy.HoldResolver
	store  repository.CandleStore
}

func NewStrategyHandler(logger *xlogger.Logger, engine *usecase.Engine, eval *evaluator.Evaluator, holds *policy.HoldResolver, store repository.CandleStore) *StrategyHandler {
	return &StrategyHandler{logger: logger, engine: engine, eval: eval, holds: holds, store: store}
}

func (h *StrategyHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api/v1")
	g.GET("/signals/latest", h.LatestSignal)
	g.GET("/positions", h.Positions)
	g.GET("/candles", h.Candles)
	g.GET("/policy/short", h.ShortPolicy)
	g.GET("/conditions", h.Conditions)
	g.POST("/confirm/entry", h.ConfirmEntry)
	g.POST("/reload/holds", h.ReloadHolds)
	g.POST("/reload/conditions", h.ReloadConditions)
}

func (h *StrategyHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

type latestSignalReq struct {
	Pair string `query:"pair" validate:"required"`
}

func (h *StrategyHandler) LatestSignal(c echo.Context) error {
	req := &latestSignalReq{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	sig, err := h.engine.LatestSignal(c.Request().Context(), req.Pair)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return xhttp.NotFoundResponse(c, map[string]string{"pair": req.Pair})
		}
		h.logger.Error("latest signal lookup error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, sig)
}

func (h *StrategyHandler) Positions(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.engine.Positions())
}

type candlesReq struct {
	Pair string `query:"pair" validate:"required"`
	TF   string `query:"tf" validate:"required"`
}

// Candles serves historical candles from the store. From/to default to
// the last 24 hours and limit trims the newest rows when set.
func (h *StrategyHandler) Candles(c echo.Context) error {
	req := &candlesReq{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := repository.Timeframe(req.TF)
	if !repository.IsValidTimeframe(tf) {
		return xhttp.BadRequestResponse(c, map[string]string{"tf": req.TF})
	}
	now := time.Now().UTC()
	from := xhttp.ParseTimeDefault(c.QueryParam("from"), now.Add(-24*time.Hour))
	to := xhttp.ParseTimeDefault(c.QueryParam("to"), now)
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 0)

	candles, err := h.store.GetCandles(c.Request().Context(), req.Pair, from, to, tf)
	if err != nil {
		h.logger.Error("candle lookup error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return xhttp.SuccessResponse(c, candles)
}

func (h *StrategyHandler) ShortPolicy(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.eval.ShortPolicy())
}

func (h *StrategyHandler) Conditions(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.engine.Conditions())
}

type confirmEntryReq struct {
	Pair string  `json:"pair" validate:"required"`
	Rate float64 `json:"rate" validate:"required,gt=0"`
}

// ConfirmEntry lets an executor verify its fill rate against the cached
// entry signal before placing the order.
func (h *StrategyHandler) ConfirmEntry(c echo.Context) error {
	req := &confirmEntryReq{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ok, err := h.engine.ConfirmEntry(c.Request().Context(), req.Pair, req.Rate)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return xhttp.NotFoundResponse(c, map[string]string{"pair": req.Pair})
		}
		h.logger.Error("entry confirm error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]bool{"confirmed": ok})
}

// ReloadHolds re-reads the hold file. The reload itself never fails
// the process; a parse problem reports as a bad request so operators
// see it, while the engine keeps running on an empty table.
func (h *StrategyHandler) ReloadHolds(c echo.Context) error {
	if err := h.holds.Reload(); err != nil {
		return xhttp.BadRequestResponse(c, map[string]string{"error": err.Error()})
	}
	return xhttp.SuccessResponse(c, map[string]int{"holds": h.holds.Current().Size()})
}

type reloadConditionsReq struct {
	Overrides map[int]bool `json:"overrides" validate:"required"`
}

// ReloadConditions swaps the condition enable table. Unknown ids are
// reported back but do not reject the known ones.
func (h *StrategyHandler) ReloadConditions(c echo.Context) error {
	req := &reloadConditionsReq{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	unknown := h.eval.ApplyOverrides(req.Overrides)
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"applied": len(req.Overrides) - len(unknown),
		"unknown": unknown,
	})
}
