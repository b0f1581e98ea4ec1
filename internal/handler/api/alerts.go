package api

import (
	"time"

	"github.com/labstack/echo/v4"

	"CoPenny/internal/domain/models"
	"CoPenny/internal/domain/repository"
	"CoPenny/internal/usecase"
	xhttp "CoPenny/pkg/http"
	xlogger "CoPenny/pkg/logger"
	"CoPenny/pkg/util"
)

// AlertsHandler serves alert history and on-demand rule evaluation.
type AlertsHandler struct {
	users  repository.UserStore
	engine *usecase.AlertEngine
	logger *xlogger.Logger
}

// NewAlertsHandler creates the alerts handler.
func NewAlertsHandler(users repository.UserStore, engine *usecase.AlertEngine, logger *xlogger.Logger) *AlertsHandler {
	return &AlertsHandler{users: users, engine: engine, logger: logger}
}

// RegisterRoutes mounts the alert endpoints.
func (h *AlertsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/alerts")
	g.GET("", h.History)
	g.DELETE("", h.Clear, RequireAuth)
	g.POST("/test", h.Test)
}

// History returns the newest alerts first. An optional since param
// (RFC3339 or unix seconds) drops alerts older than the cutoff.
func (h *AlertsHandler) History(c echo.Context) error {
	userID := UserID(c, c.QueryParam("user_id"))
	limit := util.ParseIntDefault(c.QueryParam("limit"), 50)
	since := util.ParseTimeDefault(c.QueryParam("since"), time.Time{})

	alerts, err := h.users.ListAlerts(c.Request().Context(), userID, limit)
	if err != nil {
		h.logger.Error("alert history failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	alerts = alertsSince(alerts, since)
	return xhttp.SuccessResponse(c, map[string]interface{}{"alerts": alerts})
}

// alertsSince keeps alerts created at or after the cutoff. A zero
// cutoff keeps everything.
func alertsSince(alerts []models.Alert, since time.Time) []models.Alert {
	if since.IsZero() {
		return alerts
	}
	out := make([]models.Alert, 0, len(alerts))
	for _, a := range alerts {
		if !a.CreatedAt.Before(since) {
			out = append(out, a)
		}
	}
	return out
}

// Clear wipes the caller's alert history.
func (h *AlertsHandler) Clear(c echo.Context) error {
	userID := UserID(c, "")
	if err := h.users.ClearAlerts(c.Request().Context(), userID); err != nil {
		h.logger.Error("alert clear failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}

// Test runs the rules engine against the caller's data right now and
// returns the hits that were published.
func (h *AlertsHandler) Test(c echo.Context) error {
	userID := UserID(c, c.QueryParam("user_id"))

	alerts, err := h.engine.Evaluate(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("alert evaluation failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{"alerts": alerts, "count": len(alerts)})
}
