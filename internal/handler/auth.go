package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-registry/internal/registry"
	"github.com/iliyamo/ticket-registry/internal/utils"
)

// AuthHandler issues access tokens.  Each address has its own bcrypt
// passphrase hash and a token is only ever issued for the address whose
// passphrase was presented.  A token only proves which address is calling;
// the registry still checks that address against its current admin or the
// ticket owner on every mutation.
type AuthHandler struct {
	JWTSecret    string
	AccessTTLMin int
	Operators    map[registry.Address]string // address -> bcrypt hash
}

func NewAuthHandler(secret string, ttlMin int, operators map[registry.Address]string) *AuthHandler {
	return &AuthHandler{JWTSecret: secret, AccessTTLMin: ttlMin, Operators: operators}
}

type tokenReq struct {
	Address    string `json:"address"`
	Passphrase string `json:"passphrase"`
}

type tokenResp struct {
	Token   string           `json:"token"`
	Expires time.Time        `json:"expires"`
	Subject registry.Address `json:"subject"`
}

// Token handles POST /v1/auth/token.
func (h *AuthHandler) Token(c echo.Context) error {
	var body tokenReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	addr, err := registry.ParseAddress(body.Address)
	if err != nil || addr.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid address"})
	}
	// unknown addresses look up the empty hash, which never verifies
	if !utils.VerifyPassword(h.Operators[addr], body.Passphrase) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	tok, err := utils.NewAccessToken(h.JWTSecret, addr.Hex(), h.AccessTTLMin)
	if err != nil {
		c.Logger().Errorf("auth: sign token: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue token"})
	}
	return c.JSON(http.StatusOK, tokenResp{Token: tok.Token, Expires: tok.Exp, Subject: addr})
}
