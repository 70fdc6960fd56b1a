package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seating-plan/internal/engine"
	"github.com/iliyamo/seating-plan/internal/model"
)

// ListSnapshots lists the snapshots of a tab, newest first.
func (h *PlanHandler) ListSnapshots(c echo.Context) error {
	e, err := h.engine(c)
	if err != nil {
		return h.fail(c, err)
	}
	tab, err := tabParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	list, err := e.ListSnapshots(c.Request().Context(), tab)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"snapshots": list})
}

type snapshotRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// SaveSnapshot stores the current layout of a tab under a name.
func (h *PlanHandler) SaveSnapshot(c echo.Context) error {
	var req snapshotRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	e, err := h.engine(c)
	if err != nil {
		return h.fail(c, err)
	}
	tab, err := tabParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	info, err := e.SaveSnapshot(c.Request().Context(), tab, req.Name)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, info)
}

// GetSnapshot returns a snapshot with its layout.
func (h *PlanHandler) GetSnapshot(c echo.Context) error {
	e, err := h.engine(c)
	if err != nil {
		return h.fail(c, err)
	}
	s, err := e.LoadSnapshot(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

// RestoreSnapshot replaces the snapshot's tab with its layout.
func (h *PlanHandler) RestoreSnapshot(c echo.Context) error {
	id := c.Param("id")
	return h.run(c, http.StatusOK, func(ctx context.Context, e *engine.Engine, client string, _ model.Tab) (engine.Result, error) {
		return e.RestoreSnapshot(ctx, client, id)
	})
}

// DeleteSnapshot removes a snapshot.
func (h *PlanHandler) DeleteSnapshot(c echo.Context) error {
	e, err := h.engine(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := e.DeleteSnapshot(c.Request().Context(), c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
