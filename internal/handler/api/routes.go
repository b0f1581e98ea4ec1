package api

import (
	"github.com/labstack/echo/v4"
)

// Routes composes every API handler behind one RegisterRoutes so the
// HTTP server wires a single handler. Session resolution runs first.
type Routes struct {
	jwtSecret string
	handlers  []interface{ RegisterRoutes(e *echo.Echo) }
}

// NewRoutes creates the composite route registrar.
func NewRoutes(jwtSecret string, handlers ...interface{ RegisterRoutes(e *echo.Echo) }) *Routes {
	return &Routes{jwtSecret: jwtSecret, handlers: handlers}
}

// RegisterRoutes mounts session middleware and every handler.
func (r *Routes) RegisterRoutes(e *echo.Echo) {
	e.Use(OptionalAuth(r.jwtSecret))
	for _, h := range r.handlers {
		h.RegisterRoutes(e)
	}
}
