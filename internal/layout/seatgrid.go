// Package layout holds the deterministic generators that populate a tab
// from a handful of parameters: ceremony seat grids, banquet table grids
// and the named banquet templates.  Generators never touch live state;
// the engine decides whether their output replaces a tab or becomes a
// preview.
package layout

import "github.com/iliyamo/seating-plan/internal/model"

// SeatGridParams describes a ceremony block.
//
// SeatsPerRow, when positive and smaller than Cols, splits every row into
// sections of that many seats separated by an aisle one spacing wide.  It
// never changes the number of seats.
type SeatGridParams struct {
	Rows        int     `json:"rows" yaml:"rows" validate:"gt=0"`
	Cols        int     `json:"cols" yaml:"cols" validate:"gt=0"`
	Spacing     float64 `json:"spacing" yaml:"spacing" validate:"gt=0"`
	StartX      float64 `json:"startX" yaml:"startX"`
	StartY      float64 `json:"startY" yaml:"startY"`
	SeatsPerRow int     `json:"seatsPerRow,omitempty" yaml:"seatsPerRow" validate:"gte=0"`
}

func (p SeatGridParams) check() error {
	switch {
	case p.Rows <= 0:
		return model.Errorf(model.CodeInvalidInput, "params", model.ID{}, "rows must be positive, got %d", p.Rows)
	case p.Cols <= 0:
		return model.Errorf(model.CodeInvalidInput, "params", model.ID{}, "cols must be positive, got %d", p.Cols)
	case p.Spacing <= 0:
		return model.Errorf(model.CodeInvalidInput, "params", model.ID{}, "spacing must be positive, got %g", p.Spacing)
	case p.SeatsPerRow < 0:
		return model.Errorf(model.CodeInvalidInput, "params", model.ID{}, "seatsPerRow cannot be negative")
	}
	return nil
}

// SeatGrid produces Rows*Cols free-standing seats in row-major order with
// ids 1..n.  Seat 1 sits exactly on (StartX, StartY).
func SeatGrid(p SeatGridParams) ([]model.Seat, error) {
	if err := p.check(); err != nil {
		return nil, err
	}
	section := p.SeatsPerRow
	if section >= p.Cols {
		section = 0
	}
	seats := make([]model.Seat, 0, p.Rows*p.Cols)
	var id int64
	for r := 0; r < p.Rows; r++ {
		for c := 0; c < p.Cols; c++ {
			id++
			x := p.StartX + float64(c)*p.Spacing
			if section > 0 {
				x += float64(c/section) * p.Spacing
			}
			seats = append(seats, model.Seat{
				ID:      model.IntID(id),
				X:       round2(x),
				Y:       round2(p.StartY + float64(r)*p.Spacing),
				Enabled: true,
				Label:   SeatLabel(r, c),
			})
		}
	}
	return seats, nil
}
