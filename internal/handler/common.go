package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-registry/internal/registry"
)

// registryError maps a registry error onto the JSON error responses used
// throughout the API.  Unknown errors are logged and hidden behind a 500.
func registryError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, registry.ErrUnauthorized):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "unauthorized"})
	case errors.Is(err, registry.ErrNotOwner):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not ticket owner"})
	case errors.Is(err, registry.ErrInvalidRecipient), errors.Is(err, registry.ErrInvalidAddress):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid recipient"})
	case errors.Is(err, registry.ErrDuplicateSeat):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat already minted"})
	case errors.Is(err, registry.ErrFieldTooLong):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, registry.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
	}
	c.Logger().Errorf("registry: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// ticketID parses the :id path parameter.  Ids start at 1.
func ticketID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// recipient parses a principal from request text.  Malformed text becomes
// the zero address so the registry, which checks the caller first, rejects
// it as an invalid recipient in the right order.
func recipient(s string) registry.Address {
	a, err := registry.ParseAddress(s)
	if err != nil {
		return registry.ZeroAddress
	}
	return a
}
