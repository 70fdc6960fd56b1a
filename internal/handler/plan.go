package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seating-plan/internal/collab"
	"github.com/iliyamo/seating-plan/internal/engine"
	"github.com/iliyamo/seating-plan/internal/middleware"
	"github.com/iliyamo/seating-plan/internal/model"
)

// PlanHandler exposes the engine of every plan under /v1/plans/:plan.
// Handlers are thin: they decode the request, call one engine operation
// and encode its result.
type PlanHandler struct {
	Registry *engine.Registry
	Hub      *collab.Hub
	Logger   *log.Logger
}

// NewPlanHandler panics when a dependency is missing.
func NewPlanHandler(reg *engine.Registry, hub *collab.Hub, logger *log.Logger) *PlanHandler {
	if reg == nil || hub == nil || logger == nil {
		panic("nil dependency passed to NewPlanHandler")
	}
	return &PlanHandler{Registry: reg, Hub: hub, Logger: logger}
}

func (h *PlanHandler) fail(c echo.Context, err error) error { return fail(c, h.Logger, err) }

func (h *PlanHandler) engine(c echo.Context) (*engine.Engine, error) {
	return h.Registry.Get(c.Request().Context(), c.Param("plan"))
}

// tabParam reads ?tab=; empty means the active tab.
func tabParam(c echo.Context) (model.Tab, error) {
	s := strings.TrimSpace(c.QueryParam("tab"))
	if s == "" {
		return "", nil
	}
	return model.ParseTab(s)
}

func idParam(c echo.Context, name string) (model.ID, error) {
	s := strings.TrimSpace(c.Param(name))
	if s == "" {
		return model.ID{}, model.Errorf(model.CodeInvalidInput, "params", model.ID{}, "missing %s", name)
	}
	return model.NormalizeID(s), nil
}

// mutation is one engine call scoped to the caller and the requested tab.
type mutation func(ctx context.Context, e *engine.Engine, client string, tab model.Tab) (engine.Result, error)

// run resolves the plan and tab, applies op and writes the new state.
func (h *PlanHandler) run(c echo.Context, status int, op mutation) error {
	e, err := h.engine(c)
	if err != nil {
		return h.fail(c, err)
	}
	tab, err := tabParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	res, err := op(c.Request().Context(), e, middleware.ClientID(c), tab)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(status, res)
}

// ---- state ----

// GetState returns a tab with its conflicts and history flags.
func (h *PlanHandler) GetState(c echo.Context) error {
	return h.run(c, http.StatusOK, func(_ context.Context, e *engine.Engine, _ string, tab model.Tab) (engine.Result, error) {
		return e.State(tab)
	})
}

type hallRequest struct {
	Width  float64 `json:"width" validate:"gt=0"`
	Height float64 `json:"height" validate:"gt=0"`
}

// SetHall resizes the canvas of a tab.
func (h *PlanHandler) SetHall(c echo.Context) error {
	var req hallRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	return h.run(c, http.StatusOK, func(ctx context.Context, e *engine.Engine, _ string, tab model.Tab) (engine.Result, error) {
		return e.SetHallSize(ctx, tab, model.HallSize{Width: req.Width, Height: req.Height})
	})
}

type validationsRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// SetValidations toggles whether error conflicts block export and
// auto-assignment commits.
func (h *PlanHandler) SetValidations(c echo.Context) error {
	var req validationsRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	e, err := h.engine(c)
	if err != nil {
		return h.fail(c, err)
	}
	e.SetValidationsEnabled(*req.Enabled)
	return c.JSON(http.StatusOK, echo.Map{"validationsEnabled": e.ValidationsEnabled()})
}

type tabRequest struct {
	Tab string `json:"tab" validate:"required"`
}

// SetActiveTab switches the tab that requests without ?tab= act on.
func (h *PlanHandler) SetActiveTab(c echo.Context) error {
	var req tabRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	e, err := h.engine(c)
	if err != nil {
		return h.fail(c, err)
	}
	res, err := e.SetActiveTab(model.Tab(req.Tab))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// GetConflicts returns the validation report of a tab.
func (h *PlanHandler) GetConflicts(c echo.Context) error {
	e, err := h.engine(c)
	if err != nil {
		return h.fail(c, err)
	}
	tab, err := tabParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	rep, err := e.Conflicts(tab)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"conflicts": rep.Conflicts,
		"enabled":   rep.Enabled,
		"blocking":  rep.Blocking(),
		"counts":    rep.Count(),
	})
}

// Undo steps the tab back one history entry.
func (h *PlanHandler) Undo(c echo.Context) error {
	return h.run(c, http.StatusOK, func(ctx context.Context, e *engine.Engine, client string, tab model.Tab) (engine.Result, error) {
		return e.Undo(ctx, client, tab)
	})
}

// Redo re-applies the entry undone last.
func (h *PlanHandler) Redo(c echo.Context) error {
	return h.run(c, http.StatusOK, func(ctx context.Context, e *engine.Engine, client string, tab model.Tab) (engine.Result, error) {
		return e.Redo(ctx, client, tab)
	})
}
