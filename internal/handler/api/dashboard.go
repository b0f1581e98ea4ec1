package api

import (
	"time"

	"github.com/labstack/echo/v4"

	"CoPenny/internal/agents"
	"CoPenny/internal/domain/models"
	"CoPenny/internal/domain/repository"
	xhttp "CoPenny/pkg/http"
	xlogger "CoPenny/pkg/logger"
)

// DashboardHandler aggregates the data behind the landing view, plus
// health and selftest probes.
type DashboardHandler struct {
	transactions repository.TransactionStore
	users        repository.UserStore
	analyst      *agents.Analyst
	components   map[string]func() bool
	logger       *xlogger.Logger
	startedAt    time.Time
}

// NewDashboardHandler creates the dashboard handler. components maps a
// dependency name to a liveness probe for the selftest endpoint.
func NewDashboardHandler(
	transactions repository.TransactionStore,
	users repository.UserStore,
	components map[string]func() bool,
	logger *xlogger.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		transactions: transactions,
		users:        users,
		analyst:      agents.NewAnalyst(),
		components:   components,
		logger:       logger,
		startedAt:    time.Now().UTC(),
	}
}

// RegisterRoutes mounts the dashboard and probe endpoints.
func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/api/selftest", h.Selftest)
	e.GET("/api/dashboard/summary", h.Summary)
}

// Health is the liveness probe.
func (h *DashboardHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// Selftest reports per-component availability. Degraded components do
// not fail the endpoint; the body tells the story.
func (h *DashboardHandler) Selftest(c echo.Context) error {
	status := make(map[string]bool, len(h.components))
	healthy := true
	for name, probe := range h.components {
		ok := probe()
		status[name] = ok
		if !ok {
			healthy = false
		}
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"healthy":    healthy,
		"components": status,
	})
}

// DashboardSummary is the landing view payload.
type DashboardSummary struct {
	Transactions *models.TransactionSummary `json:"transactions"`
	Health       *agents.AnalysisResult     `json:"health,omitempty"`
	Profile      *models.Profile            `json:"profile,omitempty"`
	Upload       *models.CSVMetadata        `json:"upload,omitempty"`
	Alerts       []models.Alert             `json:"alerts,omitempty"`
}

// Summary composes the transaction summary, the rule-based health
// classification, the profile and recent alerts in one response.
func (h *DashboardHandler) Summary(c echo.Context) error {
	ctx := c.Request().Context()
	userID := UserID(c, c.QueryParam("user_id"))

	summary, err := h.transactions.Summary(ctx, userID)
	if err != nil {
		h.logger.Error("dashboard summary failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	out := &DashboardSummary{Transactions: summary}

	profile, _ := h.users.GetProfile(ctx, userID)
	out.Profile = profile

	if summary != nil && summary.Notes == "" {
		data := h.analyst.ExtractFinancialData(summary, profile)
		out.Health = h.analyst.Analyze(data)
	}

	if meta, err := h.users.GetCSVMetadata(ctx, userID); err == nil {
		out.Upload = meta
	}
	if alerts, err := h.users.ListAlerts(ctx, userID, 5); err == nil {
		out.Alerts = alerts
	}

	return xhttp.SuccessResponse(c, out)
}
