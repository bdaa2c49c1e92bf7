package api

import (
	"errors"
	"time"

	"FlowICT/internal/backtest"
	"FlowICT/internal/domain/models"
	domrepo "FlowICT/internal/domain/repository"
	"FlowICT/internal/notify"
	"FlowICT/internal/service/ratelimit"
	"FlowICT/internal/usecase"
	pkgcache "FlowICT/pkg/cache"
	xhttp "FlowICT/pkg/http"
	applogger "FlowICT/pkg/logger"
	"FlowICT/pkg/util"

	"github.com/labstack/echo/v4"
)

const (
	biasCacheTTL   = 60 * time.Second
	levelsCacheTTL = 30 * time.Second
)

// AnalysisHandler is the Echo surface over the analysis pipeline.
type AnalysisHandler struct {
	pipeline *usecase.Pipeline
	bias     *usecase.HTFBiasAggregator
	levels   *usecase.KeyLevelFilter
	candles  *usecase.CandlesUseCase
	store    domrepo.CandleStore
	synth    *usecase.Synthesizer
	hub      *notify.Hub
	cache    pkgcache.Service
	rl       *ratelimit.Limiter
	l        *applogger.Logger
}

var _ xhttp.Handler = (*AnalysisHandler)(nil)

func NewAnalysisHandler(
	pipeline *usecase.Pipeline,
	bias *usecase.HTFBiasAggregator,
	levels *usecase.KeyLevelFilter,
	store domrepo.CandleStore,
	synth *usecase.Synthesizer,
	hub *notify.Hub,
	l *applogger.Logger,
) *AnalysisHandler {
	return &AnalysisHandler{
		pipeline: pipeline,
		bias:     bias,
		levels:   levels,
		candles:  usecase.NewCandlesUseCase(store),
		store:    store,
		synth:    synth,
		hub:      hub,
		rl:       ratelimit.New(),
		l:        l,
	}
}

// SetCache enables response caching on the bias and levels endpoints.
func (h *AnalysisHandler) SetCache(c pkgcache.Service) { h.cache = c }

func (h *AnalysisHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	e.GET("/debug/logs", h.DebugLogs)
	e.GET("/ws/signals", h.SignalsWS)

	g := e.Group("/api/v1")
	g.GET("/analysis/:symbol", h.Analysis)
	g.GET("/bias/:symbol", h.Bias)
	g.GET("/levels/:symbol", h.Levels)
	g.GET("/candles/:symbol", h.Candles)
	g.POST("/backtest", h.Backtest)
}

// Analysis runs the full pipeline for one symbol on demand. Signals that
// survive processing are also delivered through the configured sinks.
func (h *AnalysisHandler) Analysis(c echo.Context) error {
	req := &models.AnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":analysis", 5, 2) {
		h.l.Warn("analysis rate limited", applogger.String("remote", c.RealIP()))
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limited"))
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	res, err := h.pipeline.Run(c.Request().Context(), usecase.AnalyzeParams{
		Symbol:    req.Symbol,
		Timeframe: tf,
		Limit:     req.N,
	})
	if err != nil {
		h.l.Error("analysis pipeline error", applogger.String("symbol", req.Symbol), applogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Bias serves the fused higher-timeframe read on its own.
func (h *AnalysisHandler) Bias(c echo.Context) error {
	req := &models.BiasRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx := c.Request().Context()

	cacheKey := pkgcache.GenerateKey("bias", req.Symbol)
	if h.cache != nil {
		var cached models.BiasSnapshot
		if err := h.cache.Get(ctx, cacheKey, &cached); err == nil {
			return xhttp.SuccessResponse(c, cached)
		} else if !errors.Is(err, pkgcache.ErrCacheMiss) {
			h.l.Warn("bias cache read failed", applogger.Error(err))
		}
	}

	overall, reads, err := h.bias.Aggregate(ctx, req.Symbol)
	if err != nil {
		h.l.Error("bias aggregate error", applogger.String("symbol", req.Symbol), applogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	snap := models.BiasSnapshot{Symbol: req.Symbol, Overall: overall, Reads: reads}

	if h.cache != nil {
		if err := h.cache.Set(ctx, cacheKey, snap, biasCacheTTL); err != nil {
			h.l.Warn("bias cache write failed", applogger.Error(err))
		}
	}
	return xhttp.SuccessResponse(c, snap)
}

// Levels serves the key levels proximate to the latest close.
func (h *AnalysisHandler) Levels(c echo.Context) error {
	req := &models.LevelsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)
	ctx := c.Request().Context()

	cacheKey := pkgcache.GenerateKeyWithParams("levels", req.Symbol, tf)
	if h.cache != nil {
		var cached models.LevelsSnapshot
		if err := h.cache.Get(ctx, cacheKey, &cached); err == nil {
			return xhttp.SuccessResponse(c, cached)
		} else if !errors.Is(err, pkgcache.ErrCacheMiss) {
			h.l.Warn("levels cache read failed", applogger.Error(err))
		}
	}

	window, err := h.store.GetLatestCandles(ctx, req.Symbol, 1, tf)
	if err != nil {
		h.l.Error("levels candle fetch error", applogger.String("symbol", req.Symbol), applogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if len(window) == 0 {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no candles for %s %s", req.Symbol, tf))
	}
	ref := window[len(window)-1]

	levels, err := h.levels.Proximate(ctx, req.Symbol, ref.Close, ref.Timestamp)
	if err != nil {
		h.l.Error("levels filter error", applogger.String("symbol", req.Symbol), applogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	snap := models.LevelsSnapshot{Symbol: req.Symbol, ReferencePrice: ref.Close, Levels: levels}

	if h.cache != nil {
		if err := h.cache.Set(ctx, cacheKey, snap, levelsCacheTTL); err != nil {
			h.l.Warn("levels cache write failed", applogger.Error(err))
		}
	}
	return xhttp.SuccessResponse(c, snap)
}

// Candles serves a raw candle range. The window defaults to the last
// seven days ending now.
func (h *AnalysisHandler) Candles(c echo.Context) error {
	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":candles", 5, 2) {
		h.l.Warn("candles rate limited", applogger.String("remote", c.RealIP()))
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limited"))
	}

	now := time.Now().UTC()
	to := util.ParseTimeDefault(req.To, now)
	from := util.ParseTimeDefault(req.From, to.Add(-7*24*time.Hour))
	if from.After(to) {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("from must be before to"))
	}

	res, err := h.candles.GetCandles(c.Request().Context(), usecase.GetCandlesParams{
		Symbol:    req.Symbol,
		From:      from,
		To:        to,
		Timeframe: domrepo.NormalizeTimeframe(req.TF),
		Limit:     req.Limit,
	})
	if err != nil {
		h.l.Error("candles fetch error", applogger.String("symbol", req.Symbol), applogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Backtest replays signal synthesis over the latest n candles and
// returns the realized trades with their statistics.
func (h *AnalysisHandler) Backtest(c echo.Context) error {
	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":backtest", 3, 1) {
		h.l.Warn("backtest rate limited", applogger.String("remote", c.RealIP()))
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limited"))
	}
	tf := domrepo.NormalizeTimeframe(req.TF)
	ctx := c.Request().Context()

	candles, err := h.store.GetLatestCandles(ctx, req.Symbol, req.N, tf)
	if err != nil {
		h.l.Error("backtest candle fetch error", applogger.String("symbol", req.Symbol), applogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if len(candles) == 0 {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no candles for %s %s", req.Symbol, tf))
	}

	eng := backtest.NewEngine(h.synth, backtest.Config{Spread: req.Spread})
	eng.SetLogger(h.l)
	res := eng.Run(req.Symbol, tf, candles)

	return xhttp.SuccessResponse(c, BacktestReport{Results: res, Statistics: res.Calculate()})
}

// SignalsWS upgrades the connection and attaches it to the signal hub.
func (h *AnalysisHandler) SignalsWS(c echo.Context) error {
	if h.hub == nil {
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("signal stream disabled"))
	}
	h.hub.ServeWS(c.Response(), c.Request())
	return nil
}

// Health pings the candle store.
func (h *AnalysisHandler) Health(c echo.Context) error {
	if err := h.store.Health(c.Request().Context()); err != nil {
		h.l.Error("health check failed", applogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("candle store unreachable").WithError(err))
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// DebugLogs dumps the aggregated entries the log collector is holding.
func (h *AnalysisHandler) DebugLogs(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.l.CollectorSnapshot())
}

// BacktestReport pairs the replay outcome with its derived statistics.
type BacktestReport struct {
	Results    *backtest.Results
	Statistics *backtest.Statistics
}
