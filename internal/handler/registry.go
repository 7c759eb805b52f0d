package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-registry/internal/middleware"
	"github.com/iliyamo/ticket-registry/internal/registry"
)

// RegistryHandler exposes the ticket registry over HTTP.  Mutating methods
// expect JWTAuth to have run; the registry itself decides whether the
// authenticated caller is allowed to act.
type RegistryHandler struct {
	Reg    *registry.Registry
	Events *registry.EventLog // optional; backs GET /v1/events
}

// NewRegistryHandler panics on a nil registry.
func NewRegistryHandler(reg *registry.Registry, events *registry.EventLog) *RegistryHandler {
	if reg == nil {
		panic("nil registry passed to NewRegistryHandler")
	}
	return &RegistryHandler{Reg: reg, Events: events}
}

type mintReq struct {
	To         string `json:"to"`
	EventID    uint64 `json:"event_id"`
	SeatCode   string `json:"seat_code"`
	FileSuffix string `json:"file_suffix"`
}

type ticketResp struct {
	registry.Ticket
	TokenURI string `json:"token_uri"`
}

// Mint handles POST /v1/tickets.  It answers 201 with the new ticket,
// including the id assigned by the registry.
func (h *RegistryHandler) Mint(c echo.Context) error {
	caller, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body mintReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	t, err := h.Reg.Mint(c.Request().Context(), caller, registry.MintRequest{
		To:         recipient(body.To),
		EventID:    body.EventID,
		SeatCode:   body.SeatCode,
		FileSuffix: body.FileSuffix,
	})
	if err != nil {
		return registryError(c, err)
	}
	uri, err := h.Reg.TokenURI(t.ID)
	if err != nil {
		return registryError(c, err)
	}
	return c.JSON(http.StatusCreated, ticketResp{Ticket: t, TokenURI: uri})
}

// SetBaseURI handles PUT /v1/settings/base-uri.
func (h *RegistryHandler) SetBaseURI(c echo.Context) error {
	caller, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		BaseURI *string `json:"base_uri"`
	}
	if err := c.Bind(&body); err != nil || body.BaseURI == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "base_uri is required"})
	}
	if err := h.Reg.SetBaseURI(c.Request().Context(), caller, *body.BaseURI); err != nil {
		return registryError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SetAdmin handles PUT /v1/settings/admin.
func (h *RegistryHandler) SetAdmin(c echo.Context) error {
	caller, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Admin string `json:"admin"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.Reg.SetAdmin(c.Request().Context(), caller, recipient(body.Admin)); err != nil {
		return registryError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Transfer handles POST /v1/tickets/:id/transfer.  The caller must own the
// ticket.
func (h *RegistryHandler) Transfer(c echo.Context) error {
	caller, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := ticketID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	var body struct {
		To string `json:"to"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.Reg.Transfer(c.Request().Context(), caller, id, recipient(body.To)); err != nil {
		return registryError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetTicket handles GET /v1/tickets/:id.
func (h *RegistryHandler) GetTicket(c echo.Context) error {
	id, ok := ticketID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	t, err := h.Reg.Ticket(id)
	if err != nil {
		return registryError(c, err)
	}
	uri, err := h.Reg.TokenURI(id)
	if err != nil {
		return registryError(c, err)
	}
	return c.JSON(http.StatusOK, ticketResp{Ticket: t, TokenURI: uri})
}

// OwnerOf handles GET /v1/tickets/:id/owner.
func (h *RegistryHandler) OwnerOf(c echo.Context) error {
	id, ok := ticketID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	owner, err := h.Reg.OwnerOf(id)
	if err != nil {
		return registryError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "owner": owner})
}

// TokenURI handles GET /v1/tickets/:id/uri.
func (h *RegistryHandler) TokenURI(c echo.Context) error {
	id, ok := ticketID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	uri, err := h.Reg.TokenURI(id)
	if err != nil {
		return registryError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "token_uri": uri})
}

// BalanceOf handles GET /v1/owners/:address/balance.
func (h *RegistryHandler) BalanceOf(c echo.Context) error {
	owner, err := registry.ParseAddress(c.Param("address"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid address"})
	}
	return c.JSON(http.StatusOK, echo.Map{"owner": owner, "balance": h.Reg.BalanceOf(owner)})
}

// Collection handles GET /v1/collection.
func (h *RegistryHandler) Collection(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Reg.Info())
}

type eventResp struct {
	Name string         `json:"name"`
	Data registry.Event `json:"data"`
}

// ListEvents handles GET /v1/events.  Events are listed oldest first.
func (h *RegistryHandler) ListEvents(c echo.Context) error {
	out := []eventResp{}
	if h.Events != nil {
		for _, e := range h.Events.Events() {
			out = append(out, eventResp{Name: e.EventName(), Data: e})
		}
	}
	return c.JSON(http.StatusOK, out)
}
