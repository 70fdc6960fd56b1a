package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seating-plan/internal/model"
)

type exportRequest struct {
	// Names maps guest ids to display names for the roster.
	Names map[model.ID]string `json:"names"`
}

// Export returns the export model of a tab for an external renderer.
// POST accepts guest names for the roster.  Refused with 422 while
// blocking conflicts exist.
func (h *PlanHandler) Export(c echo.Context) error {
	var req exportRequest
	if c.Request().Method == http.MethodPost {
		if err := bind(c, &req); err != nil {
			return h.fail(c, err)
		}
	}
	e, err := h.engine(c)
	if err != nil {
		return h.fail(c, err)
	}
	tab, err := tabParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	out, err := e.Export(tab, req.Names)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
