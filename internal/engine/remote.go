package engine

import (
	"context"

	"github.com/iliyamo/seating-plan/internal/model"
	"github.com/iliyamo/seating-plan/internal/validation"
)

// ApplyRemote folds an event from another instance into this engine.
// Layout replacements are authoritative: the tab is swapped wholesale,
// revalidated and recorded in history.  The origin instance has already
// persisted it, so nothing is written back.  Events carrying this
// engine's own origin are ignored.
func (e *Engine) ApplyRemote(ctx context.Context, ev model.CollabEvent) error {
	if ev.Origin != "" && ev.Origin == e.cfg.Origin {
		return nil
	}
	if ev.Kind != model.EventLayoutReplaced {
		e.coord.ApplyRemote(ctx, ev)
		e.forward(ev)
		return nil
	}
	if ev.Layout == nil {
		return model.Errorf(model.CodeInvalidInput, "event", model.ID{}, "layout replacement without a layout")
	}
	if err := ev.Layout.Check(); err != nil {
		e.logger.Warn("remote layout rejected", "tab", ev.Tab, "origin", ev.Origin, "err", err)
		return err
	}
	tab, err := model.ParseTab(string(ev.Tab))
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	st := e.tabs[tab]
	if ev.HallSize != nil && ev.HallSize.Width > 0 && ev.HallSize.Height > 0 {
		st.hall = *ev.HallSize
	}
	next := ev.Layout.Clone()
	st.layout = next
	st.report = validation.Validate(next, e.validationOptions(st.hall))
	e.history.Push(tab, next)
	e.observe(tab, st)
	e.forward(ev)
	e.logger.Debug("remote layout applied", "tab", tab, "origin", ev.Origin)
	return nil
}

// forward hands a remote event to local subscribers only.
func (e *Engine) forward(ev model.CollabEvent) {
	if e.hub != nil {
		ev.PlanID = e.plan
		e.hub.Publish(ev)
	}
}
