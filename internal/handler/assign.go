package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seating-plan/internal/assign"
	"github.com/iliyamo/seating-plan/internal/engine"
	"github.com/iliyamo/seating-plan/internal/middleware"
	"github.com/iliyamo/seating-plan/internal/model"
)

type autoAssignRequest struct {
	Guests []model.Guest `json:"guests" validate:"required,min=1"`
	engine.AssignOptions
}

// AutoAssign proposes, or with commit applies, a seating of guests.
// A refused commit still returns the proposal alongside the error.
func (h *PlanHandler) AutoAssign(c echo.Context) error {
	var req autoAssignRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	return h.assign(c, func(e *engine.Engine, tab model.Tab) (engine.AssignReport, error) {
		return e.AutoAssignGuests(c.Request().Context(), middleware.ClientID(c), tab, req.Guests, req.AssignOptions)
	})
}

type rulesRequest struct {
	Guests []model.Guest `json:"guests" validate:"required,min=1"`
	Rules  assign.Rules  `json:"rules"`
	// RulesYAML is an alternative to Rules in the rules file format.
	RulesYAML string `json:"rulesYaml"`
	engine.AssignOptions
}

// AutoAssignRules is AutoAssign with explicit together, apart and pinned
// constraints.
func (h *PlanHandler) AutoAssignRules(c echo.Context) error {
	var req rulesRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	rules := req.Rules
	if req.RulesYAML != "" {
		parsed, err := assign.ParseRules([]byte(req.RulesYAML))
		if err != nil {
			return h.fail(c, model.Errorf(model.CodeInvalidInput, "rules", model.ID{}, "%v", err))
		}
		rules = parsed.Merge(rules)
	}
	return h.assign(c, func(e *engine.Engine, tab model.Tab) (engine.AssignReport, error) {
		return e.AutoAssignGuestsRules(c.Request().Context(), middleware.ClientID(c), tab, req.Guests, rules, req.AssignOptions)
	})
}

func (h *PlanHandler) assign(c echo.Context, run func(e *engine.Engine, tab model.Tab) (engine.AssignReport, error)) error {
	e, err := h.engine(c)
	if err != nil {
		return h.fail(c, err)
	}
	tab, err := tabParam(c)
	if err != nil {
		return h.fail(c, err)
	}
	rep, err := run(e, tab)
	if err != nil {
		if rep.Assignments != nil {
			return c.JSON(statusFor(err), echo.Map{"error": err.Error(), "code": codeOf(err), "report": rep})
		}
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}

type suggestRequest struct {
	Guest  model.Guest   `json:"guest"`
	Guests []model.Guest `json:"guests"`
	Limit  int           `json:"limit" validate:"gte=0,lte=100"`
	engine.AssignOptions
}

// Suggest ranks the tables a guest could be seated at.
func (h *PlanHandler) Suggest(c echo.Context) error {
	var req suggestRequest
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
	limit := req.Limit
	if limit == 0 {
		limit = 5
	}
	out, err := e.SuggestTablesForGuest(tab, req.Guest, req.Guests, req.AssignOptions, limit)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"suggestions": out})
}
