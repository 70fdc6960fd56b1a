package engine

import (
	"context"
	"time"

	"github.com/iliyamo/seating-plan/internal/assign"
	"github.com/iliyamo/seating-plan/internal/metrics"
	"github.com/iliyamo/seating-plan/internal/model"
	"github.com/iliyamo/seating-plan/internal/validation"
)

// AssignOptions select the solver behaviour of one auto-assignment.
type AssignOptions struct {
	// Weights override single configured weights; unnamed ones keep
	// their configured value.
	Weights *assign.WeightOverrides `json:"weights,omitempty"`
	// AllowLocked lets guests be seated at geometry-locked tables.
	AllowLocked bool `json:"allowLocked"`
	// Commit applies the result; otherwise it is only proposed.
	Commit bool `json:"commit"`
}

// AssignReport is the outcome of an auto-assignment.  Conflicts describe
// the proposed layout; State is set once the result has been committed.
type AssignReport struct {
	Assignments []assign.Assignment `json:"assignments"`
	Unassigned  []assign.Unplaced   `json:"unassigned"`
	Conflicts   []model.Conflict    `json:"conflicts"`
	Blocking    bool                `json:"blocking"`
	Committed   bool                `json:"committed"`
	State       *Result             `json:"state,omitempty"`
}

func (e *Engine) solverOptions(o AssignOptions) assign.Options {
	return assign.Options{Weights: o.Weights.Apply(e.cfg.Weights), AllowLocked: o.AllowLocked}
}

// AutoAssignGuests seats guests on the free seats of tab.  Guests that
// cannot be placed are listed with a reason.  A commit is refused with
// ErrBlocked when the proposed layout has blocking conflicts.
func (e *Engine) AutoAssignGuests(ctx context.Context, client string, tab model.Tab, guests []model.Guest, o AssignOptions) (AssignReport, error) {
	return e.autoAssign(ctx, client, tab, o, func(l *model.Layout) (assign.Result, error) {
		return assign.AutoAssign(l, guests, e.solverOptions(o)), nil
	})
}

// AutoAssignGuestsRules is AutoAssignGuests with explicit keep-together,
// keep-apart and pinning rules layered over the configured base rules.
func (e *Engine) AutoAssignGuestsRules(ctx context.Context, client string, tab model.Tab, guests []model.Guest, rules assign.Rules, o AssignOptions) (AssignReport, error) {
	merged := rules.Merge(e.cfg.Rules)
	return e.autoAssign(ctx, client, tab, o, func(l *model.Layout) (assign.Result, error) {
		return assign.AutoAssignRules(l, guests, merged, e.solverOptions(o))
	})
}

func (e *Engine) autoAssign(ctx context.Context, client string, tab model.Tab, o AssignOptions, solve func(*model.Layout) (assign.Result, error)) (rep AssignReport, err error) {
	started := time.Now()
	defer func() { metrics.ObserveMutation("auto_assign", err, started) }()

	e.mu.Lock()
	defer e.mu.Unlock()
	tab, err = e.resolve(tab)
	if err != nil {
		return AssignReport{}, err
	}
	st := e.tabs[tab]
	res, err := solve(st.layout)
	if err != nil {
		return AssignReport{}, err
	}
	report := validation.Validate(res.Layout, e.validationOptions(st.hall))
	rep = AssignReport{
		Assignments: res.Assignments,
		Unassigned:  res.Unassigned,
		Conflicts:   report.Conflicts,
		Blocking:    report.Blocking(),
	}
	for _, u := range res.Unassigned {
		metrics.ObserveUnplaced(string(u.Reason), 1)
	}
	if !o.Commit || len(res.Assignments) == 0 {
		return rep, nil
	}
	if rep.Blocking {
		return rep, model.Errorf(model.CodeBlocked, "layout", model.ID{}, "auto-assignment would leave %d blocking conflicts", countErrors(report))
	}
	tables := make([]model.ID, 0, len(res.Assignments))
	for _, a := range res.Assignments {
		tables = append(tables, a.TableID)
	}
	if err = e.lockTables(ctx, client, tables); err != nil {
		return rep, err
	}
	e.commit(ctx, tab, res.Layout, true)
	state := e.result(tab)
	rep.Committed = true
	rep.State = &state
	e.logger.Info("auto-assignment committed", "tab", tab, "client", client,
		"assigned", len(res.Assignments), "unassigned", len(res.Unassigned))
	return rep, nil
}

func countErrors(r validation.Report) int {
	n := 0
	for _, c := range r.Conflicts {
		if c.Severity == model.SeverityError {
			n++
		}
	}
	return n
}

// SuggestTablesForGuest ranks candidate tables for guest without
// changing anything.  guests supplies party and incompatibility context.
func (e *Engine) SuggestTablesForGuest(tab model.Tab, guest model.Guest, guests []model.Guest, o AssignOptions, limit int) ([]assign.Suggestion, error) {
	if guest.ID.IsZero() {
		return nil, model.Errorf(model.CodeInvalidInput, "guest", guest.ID, "guest id is required")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	tab, err := e.resolve(tab)
	if err != nil {
		return nil, err
	}
	return assign.SuggestTables(e.tabs[tab].layout, guest, guests, e.solverOptions(o), limit), nil
}
