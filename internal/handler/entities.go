package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seating-plan/internal/engine"
	"github.com/iliyamo/seating-plan/internal/model"
)

// current returns the live layout of the requested tab, used as the base
// that PATCH bodies are merged onto.
func (h *PlanHandler) current(c echo.Context) (*model.Layout, error) {
	e, err := h.engine(c)
	if err != nil {
		return nil, err
	}
	tab, err := tabParam(c)
	if err != nil {
		return nil, err
	}
	st, err := e.State(tab)
	if err != nil {
		return nil, err
	}
	return st.Layout, nil
}

// ---- areas ----

// AddArea creates an area; the id is assigned by the engine.
func (h *PlanHandler) AddArea(c echo.Context) error {
	var a model.Area
	if err := bind(c, &a); err != nil {
		return h.fail(c, err)
	}
	a.ID = model.ID{}
	return h.run(c, http.StatusCreated, func(ctx context.Context, e *engine.Engine, client string, tab model.Tab) (engine.Result, error) {
		return e.AddArea(ctx, client, tab, a)
	})
}

// PatchArea merges the body onto the stored area.
func (h *PlanHandler) PatchArea(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	l, err := h.current(c)
	if err != nil {
		return h.fail(c, err)
	}
	stored, ok := l.Area(id)
	if !ok {
		return h.fail(c, model.Errorf(model.CodeNotFound, "area", id, "does not exist"))
	}
	a := *stored
	if err := bind(c, &a); err != nil {
		return h.fail(c, err)
	}
	a.ID = id
	return h.run(c, http.StatusOK, func(ctx context.Context, e *engine.Engine, client string, tab model.Tab) (engine.Result, error) {
		return e.UpdateArea(ctx, client, tab, a)
	})
}

// DeleteArea removes an area.
func (h *PlanHandler) DeleteArea(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	return h.run(c, http.StatusOK, func(ctx context.Context, e *engine.Engine, client string, tab model.Tab) (engine.Result, error) {
		return e.DeleteArea(ctx, client, tab, id)
	})
}

// ---- tables ----

type addTableRequest struct {
	model.Table
	// WithSeats places Seats chairs around the new table.
	WithSeats bool `json:"withSeats"`
}

// UnmarshalJSON keeps withSeats, which the embedded table decoder would
// otherwise swallow.
func (r *addTableRequest) UnmarshalJSON(b []byte) error {
	if err := json.Unmarshal(b, &r.Table); err != nil {
		return err
	}
	var extra struct {
		WithSeats bool `json:"withSeats"`
	}
	if err := json.Unmarshal(b, &extra); err != nil {
		return err
	}
	r.WithSeats = extra.WithSeats
	return nil
}

// AddTable creates a table and optionally its chairs.
func (h *PlanHandler) AddTable(c echo.Context) error {
	var req addTableRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	req.ID = model.ID{}
	return h.run(c, http.StatusCreated, func(ctx context.Context, e *engine.Engine, client string, tab model.Tab) (engine.Result, error) {
		return e.AddTable(ctx, client, tab, req.Table, req.WithSeats)
	})
}

// PatchTable merges the body onto the stored table.
func (h *PlanHandler) PatchTable(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	l, err := h.current(c)
	if err != nil {
		return h.fail(c, err)
	}
	stored, ok := l.Table(id)
	if !ok {
		return h.fail(c, model.Errorf(model.CodeNotFound, "table", id, "does not exist"))
	}
	t := *stored
	if err := bind(c, &t); err != nil {
		return h.fail(c, err)
	}
	t.ID = id
	return h.run(c, http.StatusOK, func(ctx context.Context, e *engine.Engine, client string, tab model.Tab) (engine.Result, error) {
		return e.UpdateTable(ctx, client, tab, t)
	})
}

type pointRequest struct {
	X *float64 `json:"x" validate:"required"`
	Y *float64 `json:"y" validate:"required"`
}

// MoveTable moves a table and its chairs.
func (h *PlanHandler) MoveTable(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req pointRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	return h.run(c, http.StatusOK, func(ctx context.Context, e *engine.Engine, client string, tab model.Tab) (engine.Result, error) {
		return e.MoveTable(ctx, client, tab, id, *req.X, *req.Y)
	})
}

type sizeRequest struct {
	Width  float64 `json:"width" validate:"gt=0"`
	Height float64 `json:"height" validate:"gte=0"`
}

// ResizeTable changes a table's footprint.
func (h *PlanHandler) ResizeTable(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req sizeRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	return h.run(c, http.StatusOK, func(ctx context.Context, e *engine.Engine, client string, tab model.Tab) (engine.Result, error) {
		return e.ResizeTable(ctx, client, tab, id, req.Width, req.Height)
	})
}

type rotateRequest struct {
	Degrees float64 `json:"degrees"`
}

// RotateTable sets a table's rotation.
func (h *PlanHandler) RotateTable(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req rotateRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	return h.run(c, http.StatusOK, func(ctx context.Context, e *engine.Engine, client string, tab model.Tab) (engine.Result, error) {
		return e.RotateTable(ctx, client, tab, id, req.Degrees)
	})
}

type lockedRequest struct {
	Locked *bool `json:"locked" validate:"required"`
}

// SetTableLocked freezes or unfreezes a table's geometry.
func (h *PlanHandler) SetTableLocked(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req lockedRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	return h.run(c, http.StatusOK, func(ctx context.Context, e *engine.Engine, client string, tab model.Tab) (engine.Result, error) {
		return e.SetTableLocked(ctx, client, tab, id, *req.Locked)
	})
}

// DeleteTable removes a table.  ?seats=orphan keeps its chairs as
// free-standing seats; the default deletes them.
func (h *PlanHandler) DeleteTable(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	release := model.DeleteSeats
	switch c.QueryParam("seats") {
	case "", "delete":
	case "orphan":
		release = model.OrphanSeats
	default:
		return h.fail(c, model.Errorf(model.CodeInvalidInput, "params", model.ID{}, "seats must be delete or orphan"))
	}
	return h.run(c, http.StatusOK, func(ctx context.Context, e *engine.Engine, client string, tab model.Tab) (engine.Result, error) {
		return e.DeleteTable(ctx, client, tab, id, release)
	})
}

// ---- seats ----

// AddSeat creates a seat; the id is assigned by the engine.
func (h *PlanHandler) AddSeat(c echo.Context) error {
	s := model.Seat{Enabled: true}
	if err := bind(c, &s); err != nil {
		return h.fail(c, err)
	}
	s.ID = model.ID{}
	s.GuestID = model.ID{}
	return h.run(c, http.StatusCreated, func(ctx context.Context, e *engine.Engine, client string, tab model.Tab) (engine.Result, error) {
		return e.AddSeat(ctx, client, tab, s)
	})
}

type seatPatch struct {
	X       *float64 `json:"x"`
	Y       *float64 `json:"y"`
	Enabled *bool    `json:"enabled"`
}

// PatchSeat moves a seat and/or toggles it.  Each change is its own
// history entry.
func (h *PlanHandler) PatchSeat(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req seatPatch
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	if (req.X == nil) != (req.Y == nil) {
		return h.fail(c, model.Errorf(model.CodeInvalidInput, "seat", id, "x and y must be set together"))
	}
	if req.X == nil && req.Enabled == nil {
		return h.fail(c, model.Errorf(model.CodeInvalidInput, "seat", id, "nothing to change"))
	}
	return h.run(c, http.StatusOK, func(ctx context.Context, e *engine.Engine, client string, tab model.Tab) (engine.Result, error) {
		var (
			res engine.Result
			err error
		)
		if req.X != nil {
			if res, err = e.MoveSeat(ctx, client, tab, id, *req.X, *req.Y); err != nil {
				return res, err
			}
		}
		if req.Enabled != nil {
			res, err = e.SetSeatEnabled(ctx, client, tab, id, *req.Enabled)
		}
		return res, err
	})
}

// DeleteSeat removes a seat.
func (h *PlanHandler) DeleteSeat(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	return h.run(c, http.StatusOK, func(ctx context.Context, e *engine.Engine, client string, tab model.Tab) (engine.Result, error) {
		return e.DeleteSeat(ctx, client, tab, id)
	})
}

type assignRequest struct {
	GuestID model.ID `json:"guestId"`
}

// AssignGuest seats a guest.
func (h *PlanHandler) AssignGuest(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req assignRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	if req.GuestID.IsZero() {
		return h.fail(c, model.Errorf(model.CodeInvalidInput, "guest", model.ID{}, "guestId is required"))
	}
	return h.run(c, http.StatusOK, func(ctx context.Context, e *engine.Engine, client string, tab model.Tab) (engine.Result, error) {
		return e.AssignGuest(ctx, client, tab, id, req.GuestID)
	})
}

// UnassignGuest frees a seat.
func (h *PlanHandler) UnassignGuest(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	return h.run(c, http.StatusOK, func(ctx context.Context, e *engine.Engine, client string, tab model.Tab) (engine.Result, error) {
		return e.UnassignGuest(ctx, client, tab, id)
	})
}
