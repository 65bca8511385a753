package api

import (
	"time"

	"SwingScan/internal/domain/models"
	domrepo "SwingScan/internal/domain/repository"
	"SwingScan/internal/usecase"
	xhttp "SwingScan/pkg/http"
	xlogger "SwingScan/pkg/logger"

	"github.com/labstack/echo/v4"
)

// StatusHandler exposes the scanner's state over HTTP: ranked
// opportunities from the latest tick, tracked confirmations, active
// cooldowns, archive history, and liveness.
type StatusHandler struct {
	logger  *xlogger.Logger
	scanner *usecase.Scanner
	archive domrepo.SignalArchive
}

func NewStatusHandler(logger *xlogger.Logger, scanner *usecase.Scanner, archive domrepo.SignalArchive) *StatusHandler {
	return &StatusHandler{logger: logger, scanner: scanner, archive: archive}
}

func (h *StatusHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/opportunities", h.Opportunities)
	g.GET("/confirmations", h.Confirmations)
	g.GET("/cooldowns", h.Cooldowns)
	g.GET("/history", h.History)
	g.GET("/health", h.Health)
}

func (h *StatusHandler) Opportunities(c echo.Context) error {
	req := &models.OpportunitiesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.scanner.Ranker().Top(req.Limit))
}

func (h *StatusHandler) Confirmations(c echo.Context) error {
	req := &models.ConfirmationsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	records := h.scanner.Pipeline().Snapshot()
	if req.Symbol != "" || req.State != "" {
		filtered := records[:0]
		for _, r := range records {
			if req.Symbol != "" && r.Signal.Symbol != req.Symbol {
				continue
			}
			if req.State != "" && string(r.State) != req.State {
				continue
			}
			filtered = append(filtered, r)
		}
		records = filtered
	}
	return xhttp.SuccessResponse(c, records)
}

func (h *StatusHandler) Cooldowns(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.scanner.Cooldown().Active(time.Now()))
}

func (h *StatusHandler) History(c echo.Context) error {
	if h.archive == nil {
		return xhttp.NotFoundResponse(c, "archive disabled")
	}
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	now := time.Now()
	from := xhttp.ParseTimeDefault(req.From, now.AddDate(0, 0, -7))
	to := xhttp.ParseTimeDefault(req.To, now)

	records, err := h.archive.Query(c.Request().Context(), req.Symbol, from, to, req.Limit)
	if err != nil {
		h.logger.Error("history query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, records)
}

func (h *StatusHandler) Health(c echo.Context) error {
	status := map[string]string{"scanner": "ok"}
	if h.archive != nil {
		if err := h.archive.Health(c.Request().Context()); err != nil {
			status["archive"] = "unavailable"
		} else {
			status["archive"] = "ok"
		}
	}
	return xhttp.SuccessResponse(c, status)
}
