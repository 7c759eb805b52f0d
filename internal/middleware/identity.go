package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-registry/internal/registry"
)

const principalKey = "principal"

// Principal returns the authenticated caller stored by JWTAuth.  ok is
// false on routes that did not run JWTAuth.
func Principal(c echo.Context) (registry.Address, bool) {
	a, ok := c.Get(principalKey).(registry.Address)
	return a, ok
}

// principalLabel is used in rate-limit keys; "anon" when unauthenticated.
func principalLabel(c echo.Context) string {
	if a, ok := Principal(c); ok {
		return a.Hex()
	}
	return "anon"
}
