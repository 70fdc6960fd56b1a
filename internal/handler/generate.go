package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seating-plan/internal/engine"
	"github.com/iliyamo/seating-plan/internal/layout"
	"github.com/iliyamo/seating-plan/internal/model"
)

// GenerateSeatGrid replaces the seats of a tab with a ceremony grid.
func (h *PlanHandler) GenerateSeatGrid(c echo.Context) error {
	var p layout.SeatGridParams
	if err := bind(c, &p); err != nil {
		return h.fail(c, err)
	}
	return h.run(c, http.StatusOK, func(ctx context.Context, e *engine.Engine, client string, tab model.Tab) (engine.Result, error) {
		return e.GenerateSeatGrid(ctx, client, tab, p)
	})
}

// preview resolves the tab and stores the layout produced by gen as its
// preview.
func (h *PlanHandler) preview(c echo.Context, gen func(e *engine.Engine, tab model.Tab) (*model.Layout, error)) error {
	e, err := h.engine(c)
	if err != nil {
		return h.fail(c, err)
	}
	tab, err := tabParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	l, err := gen(e, tab)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"preview": l})
}

// GenerateBanquet builds a uniform table grid as a preview.
func (h *PlanHandler) GenerateBanquet(c echo.Context) error {
	var p layout.BanquetParams
	if err := bind(c, &p); err != nil {
		return h.fail(c, err)
	}
	return h.preview(c, func(e *engine.Engine, tab model.Tab) (*model.Layout, error) {
		return e.GenerateBanquetLayout(tab, p)
	})
}

// GenerateTemplate builds a named preset as a preview.
func (h *PlanHandler) GenerateTemplate(c echo.Context) error {
	var p layout.TemplateParams
	if err := bind(c, &p); err != nil {
		return h.fail(c, err)
	}
	name := layout.Template(c.Param("name"))
	return h.preview(c, func(e *engine.Engine, tab model.Tab) (*model.Layout, error) {
		return e.GenerateTemplate(tab, name, p)
	})
}

// GetPreview returns the pending preview of a tab.
func (h *PlanHandler) GetPreview(c echo.Context) error {
	return h.preview(c, func(e *engine.Engine, tab model.Tab) (*model.Layout, error) {
		l, ok := e.Preview(tab)
		if !ok {
			return nil, model.Errorf(model.CodeNotFound, "preview", model.ID{}, "no banquet preview")
		}
		return l, nil
	})
}

// ApplyPreview replaces the tables and seats of a tab with its preview.
func (h *PlanHandler) ApplyPreview(c echo.Context) error {
	return h.run(c, http.StatusOK, func(ctx context.Context, e *engine.Engine, client string, tab model.Tab) (engine.Result, error) {
		return e.ApplyBanquetTables(ctx, client, tab)
	})
}

// ClearPreview discards the preview of a tab.
func (h *PlanHandler) ClearPreview(c echo.Context) error {
	e, err := h.engine(c)
	if err != nil {
		return h.fail(c, err)
	}
	tab, err := tabParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	if !e.ClearBanquetLayout(tab) {
		return h.fail(c, model.Errorf(model.CodeNotFound, "preview", model.ID{}, "no banquet preview"))
	}
	return c.NoContent(http.StatusNoContent)
}

// Templates lists the banquet presets.
func Templates(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"templates": layout.Templates()})
}
