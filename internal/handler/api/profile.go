package api

import (
	"github.com/labstack/echo/v4"

	"CoPenny/internal/domain/models"
	"CoPenny/internal/domain/repository"
	xhttp "CoPenny/pkg/http"
	xlogger "CoPenny/pkg/logger"
)

// ProfileHandler manages the investing profile consumed by the
// strategy pipeline.
type ProfileHandler struct {
	users  repository.UserStore
	logger *xlogger.Logger
}

// NewProfileHandler creates the profile handler.
func NewProfileHandler(users repository.UserStore, logger *xlogger.Logger) *ProfileHandler {
	return &ProfileHandler{users: users, logger: logger}
}

// RegisterRoutes mounts the profile endpoints.
func (h *ProfileHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/profile")
	g.GET("", h.Get, RequireAuth)
	g.PUT("", h.Save, RequireAuth)
}

// Get returns the stored profile, or 404 when none exists.
func (h *ProfileHandler) Get(c echo.Context) error {
	userID := UserID(c, "")

	profile, err := h.users.GetProfile(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("profile lookup failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if profile == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no profile stored yet"))
	}
	return xhttp.SuccessResponse(c, profile)
}

// SaveProfileRequest is the profile payload.
type SaveProfileRequest struct {
	RiskTolerance string  `json:"risk_tolerance" validate:"required,oneof=conservative moderate aggressive"`
	Goals         string  `json:"goals" validate:"max=500"`
	TimeHorizon   string  `json:"time_horizon" validate:"required,oneof=short medium long"`
	MonthlyIncome float64 `json:"monthly_income" validate:"gte=0"`
}

// Save upserts the caller's profile.
func (h *ProfileHandler) Save(c echo.Context) error {
	req := &SaveProfileRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	userID := UserID(c, "")

	profile := &models.Profile{
		UserID:        userID,
		RiskTolerance: req.RiskTolerance,
		Goals:         req.Goals,
		TimeHorizon:   req.TimeHorizon,
		MonthlyIncome: req.MonthlyIncome,
	}
	if err := h.users.SaveProfile(c.Request().Context(), profile); err != nil {
		h.logger.Error("profile save failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, profile)
}
