package api

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"CoPenny/internal/domain/models"
	"CoPenny/internal/domain/repository"
	xhttp "CoPenny/pkg/http"
	xlogger "CoPenny/pkg/logger"
)

// AuthHandler issues and verifies JWT sessions.
type AuthHandler struct {
	users    repository.UserStore
	secret   []byte
	tokenTTL time.Duration
	logger   *xlogger.Logger
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(users repository.UserStore, secret string, tokenTTL time.Duration, logger *xlogger.Logger) *AuthHandler {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthHandler{
		users:    users,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// RegisterRoutes mounts the auth endpoints.
func (h *AuthHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/auth")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
}

// RegisterRequest is the signup payload.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries the issued session token.
type AuthResponse struct {
	Token  string       `json:"token"`
	UserID string       `json:"user_id"`
	User   *models.User `json:"user"`
}

// Register creates an account and issues a token.
func (h *AuthHandler) Register(c echo.Context) error {
	req := &RegisterRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("password hash failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         req.Name,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.users.CreateUser(c.Request().Context(), user); err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	}

	token, err := h.issueToken(user.ID)
	if err != nil {
		h.logger.Error("token issue failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.CreatedResponse(c, &AuthResponse{Token: token, UserID: user.ID, User: user})
}

// Login verifies credentials and issues a token.
func (h *AuthHandler) Login(c echo.Context) error {
	req := &LoginRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	user, err := h.users.GetUserByEmail(c.Request().Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		h.logger.Error("user lookup failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	if user == nil {
		return xhttp.AppErrorResponse(c, xhttp.UnauthorizedError("invalid email or password"))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return xhttp.AppErrorResponse(c, xhttp.UnauthorizedError("invalid email or password"))
	}

	token, err := h.issueToken(user.ID)
	if err != nil {
		h.logger.Error("token issue failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.SuccessResponse(c, &AuthResponse{Token: token, UserID: user.ID, User: user})
}

func (h *AuthHandler) issueToken(userID string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(h.tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
}

const ctxUserID = "auth_user_id"

// OptionalAuth resolves a Bearer token when present and stores the
// subject on the request context. Requests without a token pass through;
// requests with an invalid token are rejected.
func OptionalAuth(secret string) echo.MiddlewareFunc {
	key := []byte(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return next(c)
			}
			raw := strings.TrimPrefix(header, "Bearer ")
			if raw == header {
				return xhttp.AppErrorResponse(c, xhttp.UnauthorizedError("malformed authorization header"))
			}

			claims := &jwt.RegisteredClaims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return key, nil
			})
			if err != nil || !token.Valid {
				return xhttp.AppErrorResponse(c, xhttp.UnauthorizedError("invalid or expired token"))
			}
			c.Set(ctxUserID, claims.Subject)
			return next(c)
		}
	}
}

// RequireAuth rejects requests without a verified session.
func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if UserID(c, "") == "" {
			return xhttp.AppErrorResponse(c, xhttp.UnauthorizedError("authentication required"))
		}
		return next(c)
	}
}

// UserID returns the authenticated user id, falling back to the
// caller-provided id for guest access.
func UserID(c echo.Context, fallback string) string {
	if v, ok := c.Get(ctxUserID).(string); ok && v != "" {
		return v
	}
	return fallback
}
