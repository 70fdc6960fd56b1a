package engine

import (
	"context"

	"github.com/iliyamo/seating-plan/internal/layout"
	"github.com/iliyamo/seating-plan/internal/model"
)

// tablesOf returns a lock selector for fixed table ids.
func tablesOf(ids ...model.ID) func(*model.Layout) []model.ID {
	return func(*model.Layout) []model.ID { return ids }
}

// tableOfSeat returns a lock selector for the table owning seat.
func tableOfSeat(seat model.ID) func(*model.Layout) []model.ID {
	return func(l *model.Layout) []model.ID {
		if s, ok := l.Seat(seat); ok && !s.TableID.IsZero() {
			return []model.ID{s.TableID}
		}
		return nil
	}
}

// ---- areas ----

// AddArea adds an area; a zero id is replaced by the next free one.
func (e *Engine) AddArea(ctx context.Context, client string, tab model.Tab, a model.Area) (Result, error) {
	return e.mutate(ctx, "add_area", client, tab, nil, func(l *model.Layout) error {
		if a.ID.IsZero() {
			a.ID = l.NextAreaID()
		}
		return l.AddArea(a)
	})
}

// UpdateArea replaces an area.
func (e *Engine) UpdateArea(ctx context.Context, client string, tab model.Tab, a model.Area) (Result, error) {
	return e.mutate(ctx, "update_area", client, tab, nil, func(l *model.Layout) error {
		return l.UpdateArea(a)
	})
}

// DeleteArea removes an area.
func (e *Engine) DeleteArea(ctx context.Context, client string, tab model.Tab, id model.ID) (Result, error) {
	return e.mutate(ctx, "delete_area", client, tab, nil, func(l *model.Layout) error {
		return l.DeleteArea(id)
	})
}

// ---- tables ----

// AddTable adds a table; a zero id is replaced by the next free one.
// With withSeats the table's chairs are generated around it.
func (e *Engine) AddTable(ctx context.Context, client string, tab model.Tab, t model.Table, withSeats bool) (Result, error) {
	return e.mutate(ctx, "add_table", client, tab, nil, func(l *model.Layout) error {
		if t.ID.IsZero() {
			t.ID = l.NextTableID()
		}
		if t.Seats == 0 && withSeats {
			t.Seats = t.Capacity
		}
		if err := l.AddTable(t); err != nil {
			return err
		}
		if !withSeats {
			return nil
		}
		first, _ := l.NextSeatID().Int()
		for _, s := range layout.TableSeats(t, first) {
			if err := l.AddSeat(s); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateTable replaces a table's attributes.
func (e *Engine) UpdateTable(ctx context.Context, client string, tab model.Tab, t model.Table) (Result, error) {
	return e.mutate(ctx, "update_table", client, tab, tablesOf(t.ID), func(l *model.Layout) error {
		return l.UpdateTable(t)
	})
}

// MoveTable moves a table together with its seats.
func (e *Engine) MoveTable(ctx context.Context, client string, tab model.Tab, id model.ID, x, y float64) (Result, error) {
	return e.mutate(ctx, "move_table", client, tab, tablesOf(id), func(l *model.Layout) error {
		return l.MoveTable(id, x, y)
	})
}

// ResizeTable changes a table's footprint.
func (e *Engine) ResizeTable(ctx context.Context, client string, tab model.Tab, id model.ID, width, height float64) (Result, error) {
	return e.mutate(ctx, "resize_table", client, tab, tablesOf(id), func(l *model.Layout) error {
		return l.ResizeTable(id, width, height)
	})
}

// RotateTable sets a table's rotation.
func (e *Engine) RotateTable(ctx context.Context, client string, tab model.Tab, id model.ID, degrees float64) (Result, error) {
	return e.mutate(ctx, "rotate_table", client, tab, tablesOf(id), func(l *model.Layout) error {
		return l.RotateTable(id, degrees)
	})
}

// SetTableLocked freezes or unfreezes a table's geometry.
func (e *Engine) SetTableLocked(ctx context.Context, client string, tab model.Tab, id model.ID, locked bool) (Result, error) {
	return e.mutate(ctx, "lock_table", client, tab, tablesOf(id), func(l *model.Layout) error {
		return l.SetTableLocked(id, locked)
	})
}

// DeleteTable removes a table and deletes or orphans its seats.
func (e *Engine) DeleteTable(ctx context.Context, client string, tab model.Tab, id model.ID, release model.SeatRelease) (Result, error) {
	res, err := e.mutate(ctx, "delete_table", client, tab, tablesOf(id), func(l *model.Layout) error {
		return l.DeleteTable(id, release)
	})
	if err == nil && client != "" {
		e.coord.ReleaseTableLock(ctx, client, id)
	}
	return res, err
}

// ---- seats ----

// AddSeat adds a seat; a zero id is replaced by the next free one.
func (e *Engine) AddSeat(ctx context.Context, client string, tab model.Tab, s model.Seat) (Result, error) {
	return e.mutate(ctx, "add_seat", client, tab, tablesOf(s.TableID), func(l *model.Layout) error {
		if s.ID.IsZero() {
			s.ID = l.NextSeatID()
		}
		return l.AddSeat(s)
	})
}

// MoveSeat repositions a seat.
func (e *Engine) MoveSeat(ctx context.Context, client string, tab model.Tab, id model.ID, x, y float64) (Result, error) {
	return e.mutate(ctx, "move_seat", client, tab, tableOfSeat(id), func(l *model.Layout) error {
		return l.MoveSeat(id, x, y)
	})
}

// SetSeatEnabled enables or disables a seat.
func (e *Engine) SetSeatEnabled(ctx context.Context, client string, tab model.Tab, id model.ID, enabled bool) (Result, error) {
	return e.mutate(ctx, "enable_seat", client, tab, tableOfSeat(id), func(l *model.Layout) error {
		return l.SetSeatEnabled(id, enabled)
	})
}

// DeleteSeat removes a seat.
func (e *Engine) DeleteSeat(ctx context.Context, client string, tab model.Tab, id model.ID) (Result, error) {
	return e.mutate(ctx, "delete_seat", client, tab, tableOfSeat(id), func(l *model.Layout) error {
		return l.DeleteSeat(id)
	})
}

// AssignGuest seats guest on seat.
func (e *Engine) AssignGuest(ctx context.Context, client string, tab model.Tab, seat, guest model.ID) (Result, error) {
	return e.mutate(ctx, "assign_guest", client, tab, tableOfSeat(seat), func(l *model.Layout) error {
		return l.AssignGuest(seat, guest)
	})
}

// UnassignGuest frees seat.
func (e *Engine) UnassignGuest(ctx context.Context, client string, tab model.Tab, seat model.ID) (Result, error) {
	return e.mutate(ctx, "unassign_guest", client, tab, tableOfSeat(seat), func(l *model.Layout) error {
		return l.UnassignGuest(seat)
	})
}
