package engine

import (
	"context"
	"time"

	"github.com/iliyamo/seating-plan/internal/layout"
	"github.com/iliyamo/seating-plan/internal/metrics"
	"github.com/iliyamo/seating-plan/internal/model"
)

// GenerateSeatGrid replaces the seats of tab with a ceremony grid.
// Calling it twice with the same parameters yields the same seat set.
// Invalid parameters leave the tab untouched.
func (e *Engine) GenerateSeatGrid(ctx context.Context, client string, tab model.Tab, p layout.SeatGridParams) (Result, error) {
	seats, err := layout.SeatGrid(p)
	if err != nil {
		metrics.ObserveMutation("generate_seat_grid", err, time.Now())
		return Result{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	tab, err = e.resolve(tab)
	if err != nil {
		return Result{}, err
	}
	next := e.tabs[tab].layout.Clone()
	next.ReplaceSeats(seats)
	if err := e.replace(ctx, "generate_seat_grid", client, tab, next); err != nil {
		return Result{}, err
	}
	return e.result(tab), nil
}

// GenerateBanquetLayout computes a banquet table grid and stores it as
// the preview of tab.  Nothing live changes until ApplyBanquetTables.
func (e *Engine) GenerateBanquetLayout(tab model.Tab, p layout.BanquetParams) (*model.Layout, error) {
	l, err := layout.Banquet(p)
	if err != nil {
		return nil, err
	}
	return e.setPreview(tab, l)
}

// GenerateTemplate computes a named banquet preset and stores it as the
// preview of tab.
func (e *Engine) GenerateTemplate(tab model.Tab, name layout.Template, p layout.TemplateParams) (*model.Layout, error) {
	l, err := layout.Generate(name, p)
	if err != nil {
		return nil, err
	}
	return e.setPreview(tab, l)
}

func (e *Engine) setPreview(tab model.Tab, l *model.Layout) (*model.Layout, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	tab, err := e.resolve(tab)
	if err != nil {
		return nil, err
	}
	e.tabs[tab].preview = l
	return l.Clone(), nil
}

// Preview returns the pending generated layout of tab, if any.
func (e *Engine) Preview(tab model.Tab) (*model.Layout, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	tab, err := e.resolve(tab)
	if err != nil {
		return nil, false
	}
	p := e.tabs[tab].preview
	if p == nil {
		return nil, false
	}
	return p.Clone(), true
}

// ApplyBanquetTables commits the preview of tab: its tables and seats
// replace the live ones, areas are kept.
func (e *Engine) ApplyBanquetTables(ctx context.Context, client string, tab model.Tab) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	tab, err := e.resolve(tab)
	if err != nil {
		return Result{}, err
	}
	st := e.tabs[tab]
	if st.preview == nil {
		return Result{}, model.Errorf(model.CodeNotFound, "preview", model.ID{}, "no generated layout to apply")
	}
	next := st.layout.Clone()
	gen := st.preview.Clone()
	next.Tables = gen.Tables
	next.Seats = gen.Seats
	if err := e.replace(ctx, "apply_banquet_tables", client, tab, next); err != nil {
		return Result{}, err
	}
	st.preview = nil
	return e.result(tab), nil
}

// ClearBanquetLayout discards the preview of tab.  It reports whether
// there was one.
func (e *Engine) ClearBanquetLayout(tab model.Tab) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	tab, err := e.resolve(tab)
	if err != nil {
		return false
	}
	had := e.tabs[tab].preview != nil
	e.tabs[tab].preview = nil
	return had
}

// Undo restores the previous history entry of tab.
func (e *Engine) Undo(ctx context.Context, client string, tab model.Tab) (Result, error) {
	return e.travel(ctx, "undo", client, tab, e.history.CanUndo, e.history.Undo, e.history.Redo)
}

// Redo restores the next history entry of tab.
func (e *Engine) Redo(ctx context.Context, client string, tab model.Tab) (Result, error) {
	return e.travel(ctx, "redo", client, tab, e.history.CanRedo, e.history.Redo, e.history.Undo)
}

func (e *Engine) travel(ctx context.Context, op, client string, tab model.Tab,
	can func(model.Tab) bool, move, back func(model.Tab) (*model.Layout, bool)) (res Result, err error) {
	started := time.Now()
	defer func() { metrics.ObserveMutation(op, err, started) }()

	e.mu.Lock()
	defer e.mu.Unlock()
	tab, err = e.resolve(tab)
	if err != nil {
		return Result{}, err
	}
	if !can(tab) {
		return Result{}, model.Errorf(model.CodeInvalidInput, "history", model.ID{}, "nothing to %s", op)
	}
	l, _ := move(tab)
	if err = e.checkForeignLocks(ctx, client, e.tabs[tab].layout, l); err != nil {
		back(tab)
		return Result{}, err
	}
	e.commit(ctx, tab, l, false)
	return e.result(tab), nil
}
