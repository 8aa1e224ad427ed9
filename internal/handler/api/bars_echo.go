package api

import (
	"encoding/json"
	"net/http"
	"time"

	models "BarPull/internal/domain/models"
	icache "BarPull/internal/service/cache"
	xhttp "BarPull/pkg/http"
	xlogger "BarPull/pkg/logger"
	"BarPull/pkg/util"

	"github.com/labstack/echo/v4"

	domrepo "BarPull/internal/domain/repository"
)

// BarsEchoHandler serves the read-only market data API.
type BarsEchoHandler struct {
	logger   *xlogger.Logger
	store    domrepo.MarketStore
	cache    icache.BytesCache
	cacheTTL time.Duration
}

func NewBarsEchoHandler(logger *xlogger.Logger, store domrepo.MarketStore) *BarsEchoHandler {
	return &BarsEchoHandler{logger: logger, store: store, cacheTTL: 30 * time.Second}
}

// SetCache injects a byte cache for bar-history responses.
func (h *BarsEchoHandler) SetCache(c icache.BytesCache, ttl time.Duration) {
	h.cache = c
	if ttl > 0 {
		h.cacheTTL = ttl
	}
}

func (h *BarsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/health", h.Health)
	g := e.Group("/api")
	g.GET("/instruments", h.Instruments)
	g.GET("/bars", h.Bars)
}

// Root answers a liveness banner so probes and humans get a cheap 200.
func (h *BarsEchoHandler) Root(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{
		"service": "barpull",
		"message": "BarPull API is running",
	})
}

// Health pings the store. Unreachable storage reports 503 so load balancers
// can rotate the instance out.
func (h *BarsEchoHandler) Health(c echo.Context) error {
	if err := h.store.Health(c.Request().Context()); err != nil {
		h.logger.Error("health check failed", xlogger.Error(err))
		return c.JSON(http.StatusServiceUnavailable, xhttp.APIResponse{
			Status:  http.StatusServiceUnavailable,
			Message: http.StatusText(http.StatusServiceUnavailable),
			Data:    map[string]string{"status": "unhealthy"},
		})
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "healthy"})
}

func (h *BarsEchoHandler) Instruments(c echo.Context) error {
	req := &models.ListInstrumentsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows, err := h.store.ListInstruments(c.Request().Context(), req.Offset, req.Limit)
	if err != nil {
		h.logger.Error("list instruments error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// BarsResponse is the bar-history payload.
type BarsResponse struct {
	Symbol       string     `json:"symbol"`
	InstrumentID int64      `json:"instrument_id"`
	Count        int        `json:"count"`
	Bars         []BarPoint `json:"bars"`
}

// BarPoint is one trading day in a BarsResponse.
type BarPoint struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

func (h *BarsEchoHandler) Bars(c echo.Context) error {
	req := &models.BarsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	cacheKey := "bars:" + req.Symbol + ":" + req.From + ":" + req.To
	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
			h.logger.Warn("bars cache get error", xlogger.Error(err))
		} else if ok {
			return c.JSONBlob(http.StatusOK, b)
		}
	}

	ctx := c.Request().Context()
	inst, err := h.store.InstrumentBySymbol(ctx, req.Symbol)
	if err != nil {
		h.logger.Error("instrument lookup error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if inst == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("unknown symbol %q", req.Symbol))
	}

	from := util.ParseDateDefault(req.From, time.Time{})
	to := util.ParseDateDefault(req.To, time.Time{})

	bars, err := h.store.BarsForInstrument(ctx, inst.ID, from, to)
	if err != nil {
		h.logger.Error("bars query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	res := BarsResponse{
		Symbol:       inst.Symbol,
		InstrumentID: inst.ID,
		Count:        len(bars),
		Bars:         make([]BarPoint, 0, len(bars)),
	}
	for _, bar := range bars {
		res.Bars = append(res.Bars, BarPoint{
			Date:   util.FormatDate(bar.Date),
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
		})
	}

	body := xhttp.APIResponse{
		Status:  http.StatusOK,
		Message: http.StatusText(http.StatusOK),
		Data:    res,
	}
	b, err := json.Marshal(body)
	if err != nil {
		h.logger.Error("bars marshal error", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	if h.cache != nil {
		if err := h.cache.SetBytes(cacheKey, b, h.cacheTTL); err != nil {
			h.logger.Warn("bars cache set error", xlogger.Error(err))
		}
	}
	return c.JSONBlob(http.StatusOK, b)
}
