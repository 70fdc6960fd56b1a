package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seating-plan/internal/middleware"
	"github.com/iliyamo/seating-plan/internal/model"
)

// AcquireLock grants or renews the caller's advisory lock on a table.  A
// table held by someone else answers 423 with the holder's lock.
func (h *PlanHandler) AcquireLock(c echo.Context) error {
	e, err := h.engine(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := idParam(c, "table")
	if err != nil {
		return h.fail(c, err)
	}
	l, ok := e.EnsureTableLock(c.Request().Context(), middleware.ClientID(c), id)
	if !ok {
		body := echo.Map{"error": "table lock not granted", "code": string(model.CodeLockHeld)}
		if l.ClientID != "" {
			body["lock"] = l
		}
		if ev, ok := e.LockEvent(middleware.ClientID(c)); ok {
			body["event"] = ev
		}
		return c.JSON(http.StatusLocked, body)
	}
	return c.JSON(http.StatusOK, l)
}

// ReleaseLock drops the caller's lock on a table.
func (h *PlanHandler) ReleaseLock(c echo.Context) error {
	e, err := h.engine(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := idParam(c, "table")
	if err != nil {
		return h.fail(c, err)
	}
	if !e.ReleaseTableLock(c.Request().Context(), middleware.ClientID(c), id) {
		return h.fail(c, model.Errorf(model.CodeNotFound, "lock", id, "not held by caller"))
	}
	return c.NoContent(http.StatusNoContent)
}

type releaseExceptRequest struct {
	Keep model.ID `json:"keep"`
}

// ReleaseLocksExcept drops every lock of the caller but keep.
func (h *PlanHandler) ReleaseLocksExcept(c echo.Context) error {
	var req releaseExceptRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	e, err := h.engine(c)
	if err != nil {
		return h.fail(c, err)
	}
	released := e.ReleaseTableLocksExcept(c.Request().Context(), middleware.ClientID(c), req.Keep)
	if released == nil {
		released = []model.ID{}
	}
	return c.JSON(http.StatusOK, echo.Map{"released": released})
}

// ListLocks returns the live locks of the plan.
func (h *PlanHandler) ListLocks(c echo.Context) error {
	e, err := h.engine(c)
	if err != nil {
		return h.fail(c, err)
	}
	locks := e.Locks(c.Request().Context())
	if locks == nil {
		locks = []model.Lock{}
	}
	return c.JSON(http.StatusOK, echo.Map{"locks": locks, "ttl": e.LockTTL().String()})
}

// GetLockEvent peeks at the caller's latest lock notice; 204 when none.
func (h *PlanHandler) GetLockEvent(c echo.Context) error {
	return h.lockEvent(c, false)
}

// ConsumeLockEvent returns and clears the caller's latest lock notice.
func (h *PlanHandler) ConsumeLockEvent(c echo.Context) error {
	return h.lockEvent(c, true)
}

func (h *PlanHandler) lockEvent(c echo.Context, consume bool) error {
	e, err := h.engine(c)
	if err != nil {
		return h.fail(c, err)
	}
	client := middleware.ClientID(c)
	get := e.LockEvent
	if consume {
		get = e.ConsumeLockEvent
	}
	ev, ok := get(client)
	if !ok {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, ev)
}

// Collaborators lists the other clients on the plan and a summary.
func (h *PlanHandler) Collaborators(c echo.Context) error {
	e, err := h.engine(c)
	if err != nil {
		return h.fail(c, err)
	}
	self := middleware.ClientID(c)
	cols := e.Collaborators(self)
	if cols == nil {
		cols = []model.Collaborator{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"collaborators": cols,
		"status":        e.CollaborationStatus(c.Request().Context(), self),
	})
}

type presenceRequest struct {
	Status model.PresenceStatus `json:"status" validate:"required"`
}

// SetPresence records the caller's presence status.
func (h *PlanHandler) SetPresence(c echo.Context) error {
	var req presenceRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	e, err := h.engine(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := e.SetStatus(middleware.ClientID(c), req.Status); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
