package api

import (
	"github.com/labstack/echo/v4"

	"CoPenny/internal/usecase"
	xhttp "CoPenny/pkg/http"
	xlogger "CoPenny/pkg/logger"
	"CoPenny/pkg/util"
)

// HistoricalHandler serves past-period spending analysis.
type HistoricalHandler struct {
	historical *usecase.Historical
	logger     *xlogger.Logger
}

// NewHistoricalHandler creates the historical handler.
func NewHistoricalHandler(historical *usecase.Historical, logger *xlogger.Logger) *HistoricalHandler {
	return &HistoricalHandler{historical: historical, logger: logger}
}

// RegisterRoutes mounts the historical endpoints.
func (h *HistoricalHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/historical")
	g.POST("/analyze", h.Analyze)
	g.GET("/years", h.Years)
	g.GET("/year/:year", h.Year)
}

// AnalyzeRequest is the free-text historical query.
type AnalyzeRequest struct {
	Query  string `json:"query" validate:"required,min=1,max=500"`
	UserID string `json:"user_id"`
}

// Analyze parses the query for a year, month or range and aggregates it.
func (h *HistoricalHandler) Analyze(c echo.Context) error {
	req := &AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.historical.Analyze(c.Request().Context(), UserID(c, req.UserID), req.Query)
	if err != nil {
		h.logger.Error("historical analyze failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Years lists the distinct years present in the data.
func (h *HistoricalHandler) Years(c echo.Context) error {
	userID := UserID(c, c.QueryParam("user_id"))
	years, err := h.historical.AvailableYears(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("historical years failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{"years": years})
}

// Year aggregates one year.
func (h *HistoricalHandler) Year(c echo.Context) error {
	year := util.ParseIntDefault(c.Param("year"), 0)
	if year < 1900 || year > 2100 {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("year must be a four-digit year"))
	}
	userID := UserID(c, c.QueryParam("user_id"))

	res, err := h.historical.AnalyzeYear(c.Request().Context(), userID, year)
	if err != nil {
		h.logger.Error("historical year failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}
