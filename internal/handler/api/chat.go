package api

import (
	"time"

	"github.com/labstack/echo/v4"

	"CoPenny/internal/domain/models"
	"CoPenny/internal/domain/repository"
	"CoPenny/internal/service/ratelimit"
	"CoPenny/internal/usecase"
	xhttp "CoPenny/pkg/http"
	xlogger "CoPenny/pkg/logger"
)

// ChatHandler serves the conversational endpoint.
type ChatHandler struct {
	orchestrator *usecase.Orchestrator
	users        repository.UserStore
	rl           *ratelimit.Limiter
	logger       *xlogger.Logger
}

// NewChatHandler creates the chat handler.
func NewChatHandler(orchestrator *usecase.Orchestrator, users repository.UserStore, logger *xlogger.Logger) *ChatHandler {
	return &ChatHandler{
		orchestrator: orchestrator,
		users:        users,
		rl:           ratelimit.New(),
		logger:       logger,
	}
}

// RegisterRoutes mounts the chat endpoint.
func (h *ChatHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/chat", h.Chat)
}

// Chat answers one message. The response is always a well-formed chat
// envelope; pipeline failures surface as the apology answer, not HTTP
// errors.
func (h *ChatHandler) Chat(c echo.Context) error {
	start := time.Now()

	req := &models.ChatRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	req.UserID = UserID(c, req.UserID)

	if !h.rl.Allow(c.RealIP()+":chat", 5, 1) {
		return xhttp.AppErrorResponse(c,
			xhttp.NewAppError("rate_limited", "", "too many requests, slow down a little", 429))
	}

	if ok, err := h.consumeQuota(c, req.UserID); err != nil {
		h.logger.Error("quota check failed", xlogger.Error(err))
	} else if !ok {
		return xhttp.AppErrorResponse(c,
			xhttp.ForbiddenError("AI query limit reached for your plan; upgrade to continue"))
	}

	resp := h.orchestrator.Chat(c.Request().Context(), req)

	h.logger.Info("chat answered",
		xlogger.String("session_id", req.SessionID),
		xlogger.String("type", resp.Type),
		xlogger.Duration("latency", time.Since(start)),
	)
	return xhttp.SuccessResponse(c, resp)
}

// consumeQuota enforces and increments the per-plan AI query counter.
// Guests are not metered.
func (h *ChatHandler) consumeQuota(c echo.Context, userID string) (bool, error) {
	if userID == "" || h.users == nil {
		return true, nil
	}
	ctx := c.Request().Context()

	sub, err := h.users.GetSubscription(ctx, userID)
	if err != nil {
		return true, err
	}
	if sub == nil {
		sub = &models.Subscription{UserID: userID, Tier: models.TierFree}
	}
	if !sub.CanQuery() {
		return false, nil
	}

	sub.Usage.AIQueries++
	if err := h.users.SaveSubscription(ctx, sub); err != nil {
		return true, err
	}
	return true, nil
}
