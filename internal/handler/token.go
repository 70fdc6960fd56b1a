package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seating-plan/internal/utils"
)

type tokenRequest struct {
	ClientID string `json:"clientId" validate:"required,max=128"`
	Role     string `json:"role" validate:"required,oneof=OWNER EDITOR VIEWER owner editor viewer"`
}

// DevToken mints access tokens for local development, where no identity
// provider issues them.  It is only routed when APP_ENV=dev.
func DevToken(secret string, ttl time.Duration, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req tokenRequest
		if err := bind(c, &req); err != nil {
			return fail(c, logger, err)
		}
		tok, err := utils.NewAccessToken(secret, strings.TrimSpace(req.ClientID), strings.ToUpper(req.Role), ttl)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cannot sign token"})
		}
		return c.JSON(http.StatusOK, tok)
	}
}
