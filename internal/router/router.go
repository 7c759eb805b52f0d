package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-registry/internal/handler"
	"github.com/iliyamo/ticket-registry/internal/middleware"
)

// RegisterRoutes registers routes that need no authentication.
func RegisterRoutes(e *echo.Echo, health echo.HandlerFunc) {
	e.GET("/healthz", health)
}

// RegisterAuth registers the operator token endpoint under /v1/auth.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limit)
	g.POST("/token", a.Token)
}

// RegisterPublic registers the read-only registry queries.  Ownership and
// metadata locations are public, so none of these routes authenticate.
func RegisterPublic(e *echo.Echo, h *handler.RegistryHandler) {
	e.GET("/v1/collection", h.Collection)
	e.GET("/v1/tickets/:id", h.GetTicket)
	e.GET("/v1/tickets/:id/owner", h.OwnerOf)
	e.GET("/v1/tickets/:id/uri", h.TokenURI)
	e.GET("/v1/owners/:address/balance", h.BalanceOf)
	e.GET("/v1/events", h.ListEvents)
}

// RegisterRegistry registers the mutating routes.  JWTAuth runs before the
// rate limiter so buckets are keyed by the authenticated caller.
func RegisterRegistry(e *echo.Echo, h *handler.RegistryHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret), limit)
	g.POST("/tickets", h.Mint)
	g.POST("/tickets/:id/transfer", h.Transfer)
	g.PUT("/settings/base-uri", h.SetBaseURI)
	g.PUT("/settings/admin", h.SetAdmin)
}
