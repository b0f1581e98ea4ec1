package api

import (
	"errors"
	"io"
	"os"

	"github.com/labstack/echo/v4"

	"CoPenny/internal/domain/repository"
	"CoPenny/internal/service/personalization"
	"CoPenny/internal/usecase"
	xhttp "CoPenny/pkg/http"
	xlogger "CoPenny/pkg/logger"
)

// PersonalizationHandler manages per-user transaction uploads.
type PersonalizationHandler struct {
	svc    *personalization.Service
	users  repository.UserStore
	engine *usecase.AlertEngine
	logger *xlogger.Logger
}

// NewPersonalizationHandler creates the upload handler. The alert
// engine may be nil; uploads then skip rule evaluation.
func NewPersonalizationHandler(
	svc *personalization.Service,
	users repository.UserStore,
	engine *usecase.AlertEngine,
	logger *xlogger.Logger,
) *PersonalizationHandler {
	return &PersonalizationHandler{svc: svc, users: users, engine: engine, logger: logger}
}

// RegisterRoutes mounts the upload endpoints.
func (h *PersonalizationHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/personalization")
	g.POST("/upload", h.Upload)
	g.GET("/status", h.Status)
	g.DELETE("", h.Delete, RequireAuth)
}

// Upload accepts a multipart transactions CSV, validates it and places
// it into the user's data directory. Pass overwrite=true to replace an
// existing upload.
func (h *PersonalizationHandler) Upload(c echo.Context) error {
	userID := UserID(c, c.FormValue("user_id"))
	overwrite := c.FormValue("overwrite") == "true"

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("multipart field 'file' is required"))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("could not read uploaded file"))
	}
	defer src.Close()

	staged, err := os.CreateTemp("", "copenny-upload-*.csv")
	if err != nil {
		h.logger.Error("upload staging failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	stagedPath := staged.Name()
	defer os.Remove(stagedPath)

	if _, err := io.Copy(staged, src); err != nil {
		staged.Close()
		h.logger.Error("upload staging failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	staged.Close()

	validation, err := h.svc.ProcessUserCSV(c.Request().Context(), userID, stagedPath, fileHeader.Filename, overwrite)
	if errors.Is(err, personalization.ErrUploadExists) {
		return xhttp.AppErrorResponse(c,
			xhttp.NewAppError("upload_exists", "", "an upload already exists; pass overwrite=true to replace it", 409))
	}
	if err != nil {
		h.logger.Error("upload processing failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if !validation.Valid {
		return xhttp.BadRequestResponse(c, validation)
	}

	if h.engine != nil {
		if _, err := h.engine.Evaluate(c.Request().Context(), userID); err != nil {
			h.logger.Warn("post-upload alert evaluation failed", xlogger.Error(err))
		}
	}
	return xhttp.CreatedResponse(c, validation)
}

// Status returns the stored upload metadata, or 404 when none exists.
func (h *PersonalizationHandler) Status(c echo.Context) error {
	userID := UserID(c, c.QueryParam("user_id"))

	meta, err := h.users.GetCSVMetadata(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("upload status failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if meta == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no upload found for this user"))
	}
	return xhttp.SuccessResponse(c, meta)
}

// Delete removes the caller's upload and its metadata.
func (h *PersonalizationHandler) Delete(c echo.Context) error {
	userID := UserID(c, "")
	if err := h.svc.DeleteUserCSV(c.Request().Context(), userID); err != nil {
		h.logger.Error("upload delete failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}
