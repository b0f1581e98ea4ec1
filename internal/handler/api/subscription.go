package api

import (
	"time"

	"github.com/labstack/echo/v4"

	"CoPenny/internal/domain/models"
	"CoPenny/internal/domain/repository"
	xhttp "CoPenny/pkg/http"
	xlogger "CoPenny/pkg/logger"
)

// SubscriptionHandler manages plan selection and usage status.
type SubscriptionHandler struct {
	users  repository.UserStore
	logger *xlogger.Logger
}

// NewSubscriptionHandler creates the subscription handler.
func NewSubscriptionHandler(users repository.UserStore, logger *xlogger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{users: users, logger: logger}
}

// RegisterRoutes mounts the subscription endpoints. Both require a
// session.
func (h *SubscriptionHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/subscription")
	g.GET("/status", h.Status, RequireAuth)
	g.POST("/select", h.Select, RequireAuth)
}

// StatusResponse is the plan plus its limits and remaining quota.
type StatusResponse struct {
	Subscription *models.Subscription `json:"subscription"`
	Limits       models.TierLimits    `json:"limits"`
	CanQuery     bool                 `json:"can_query"`
}

// Status returns the caller's plan; absent plans read as free tier.
func (h *SubscriptionHandler) Status(c echo.Context) error {
	userID := UserID(c, "")

	sub, err := h.users.GetSubscription(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("subscription lookup failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if sub == nil {
		sub = &models.Subscription{UserID: userID, Tier: models.TierFree}
	}

	limits, ok := models.Limits[sub.Tier]
	if !ok {
		limits = models.Limits[models.TierFree]
	}
	return xhttp.SuccessResponse(c, &StatusResponse{
		Subscription: sub,
		Limits:       limits,
		CanQuery:     sub.CanQuery(),
	})
}

// SelectRequest picks a plan.
type SelectRequest struct {
	Tier string `json:"tier" validate:"required,oneof=free pro enterprise"`
}

// Select switches the caller's plan and resets usage counters.
func (h *SubscriptionHandler) Select(c echo.Context) error {
	req := &SelectRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	userID := UserID(c, "")

	sub := &models.Subscription{
		UserID:    userID,
		Tier:      req.Tier,
		ExpiresAt: time.Now().UTC().AddDate(0, 1, 0),
	}
	if err := h.users.SaveSubscription(c.Request().Context(), sub); err != nil {
		h.logger.Error("subscription save failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	h.logger.Info("subscription selected",
		xlogger.String("user_id", userID),
		xlogger.String("tier", req.Tier),
	)
	return xhttp.SuccessResponse(c, sub)
}
