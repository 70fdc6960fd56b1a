package layout

import (
	"math"

	"github.com/iliyamo/seating-plan/internal/model"
)

// DefaultSeatsPerTable is used when a banquet request leaves seats unset.
const DefaultSeatsPerTable = 8

const (
	defaultRoundDiameter = 120
	defaultRectWidth     = 180
	defaultRectHeight    = 90
	// distance between a table edge and the centre of its chairs
	seatOffset = 20
)

// BanquetParams describes a uniform grid of banquet tables.
type BanquetParams struct {
	Rows        int         `json:"rows" yaml:"rows" validate:"gt=0"`
	Cols        int         `json:"cols" yaml:"cols" validate:"gt=0"`
	Seats       int         `json:"seats" yaml:"seats" validate:"gte=0"`
	GapX        float64     `json:"gapX" yaml:"gapX" validate:"gt=0"`
	GapY        float64     `json:"gapY" yaml:"gapY" validate:"gt=0"`
	StartX      float64     `json:"startX" yaml:"startX"`
	StartY      float64     `json:"startY" yaml:"startY"`
	Shape       model.Shape `json:"shape,omitempty" yaml:"shape" validate:"omitempty,oneof=rectangle round"`
	TableWidth  float64     `json:"tableWidth,omitempty" yaml:"tableWidth" validate:"gte=0"`
	TableHeight float64     `json:"tableHeight,omitempty" yaml:"tableHeight" validate:"gte=0"`
}

func (p BanquetParams) check() error {
	switch {
	case p.Rows <= 0:
		return model.Errorf(model.CodeInvalidInput, "params", model.ID{}, "rows must be positive, got %d", p.Rows)
	case p.Cols <= 0:
		return model.Errorf(model.CodeInvalidInput, "params", model.ID{}, "cols must be positive, got %d", p.Cols)
	case p.GapX <= 0 || p.GapY <= 0:
		return model.Errorf(model.CodeInvalidInput, "params", model.ID{}, "gapX and gapY must be positive")
	}
	return checkTableStyle(p.Shape, p.TableWidth, p.TableHeight)
}

func checkTableStyle(shape model.Shape, w, h float64) error {
	if shape != "" && !shape.Valid() {
		return model.Errorf(model.CodeInvalidInput, "params", model.ID{}, "unknown shape %q", shape)
	}
	if w < 0 || h < 0 {
		return model.Errorf(model.CodeInvalidInput, "params", model.ID{}, "table size cannot be negative")
	}
	return nil
}

// Banquet lays out Rows*Cols tables in row-major order with ids 1..n,
// table 1 centred on (StartX, StartY), and generates the chairs around
// each of them.  The returned layout has no areas.
func Banquet(p BanquetParams) (*model.Layout, error) {
	if err := p.check(); err != nil {
		return nil, err
	}
	pts := make([]point, 0, p.Rows*p.Cols)
	for r := 0; r < p.Rows; r++ {
		for c := 0; c < p.Cols; c++ {
			pts = append(pts, point{p.StartX + float64(c)*p.GapX, p.StartY + float64(r)*p.GapY})
		}
	}
	return tablesAt(pts, tableStyle{shape: p.Shape, seats: p.Seats, width: p.TableWidth, height: p.TableHeight}), nil
}

type point struct{ x, y float64 }

type tableStyle struct {
	shape         model.Shape
	seats         int
	width, height float64
}

func (s tableStyle) normalized() tableStyle {
	if s.shape == "" {
		s.shape = model.ShapeRound
	}
	if s.seats <= 0 {
		s.seats = DefaultSeatsPerTable
	}
	if s.shape == model.ShapeRound {
		if s.width <= 0 {
			s.width = defaultRoundDiameter
		}
		s.height = s.width
	} else {
		if s.width <= 0 {
			s.width = defaultRectWidth
		}
		if s.height <= 0 {
			s.height = defaultRectHeight
		}
	}
	return s
}

// tablesAt builds one table per point, ids in point order, plus chairs.
func tablesAt(pts []point, style tableStyle) *model.Layout {
	style = style.normalized()
	out := model.NewLayout()
	var seatID int64
	for i, pt := range pts {
		t := model.Table{
			ID:       model.IntID(int64(i + 1)),
			X:        round2(pt.x),
			Y:        round2(pt.y),
			Width:    style.width,
			Height:   style.height,
			Shape:    style.shape,
			Capacity: style.seats,
			Seats:    style.seats,
		}
		out.Tables = append(out.Tables, t)
		chairs := TableSeats(t, seatID+1)
		seatID += int64(len(chairs))
		out.Seats = append(out.Seats, chairs...)
	}
	return out
}

// TableSeats places t.Seats chairs around a table, ids starting at
// firstID.  Round tables get chairs evenly on a circle starting at the
// top; rectangles split them between the two long sides.  The table's
// rotation is applied around its centre.
func TableSeats(t model.Table, firstID int64) []model.Seat {
	n := t.Seats
	if n <= 0 {
		return nil
	}
	offsets := make([]point, 0, n)
	if t.Shape == model.ShapeRound {
		r := t.Width/2 + seatOffset
		for k := 0; k < n; k++ {
			a := -math.Pi/2 + 2*math.Pi*float64(k)/float64(n)
			offsets = append(offsets, point{r * math.Cos(a), r * math.Sin(a)})
		}
	} else {
		top := (n + 1) / 2
		bottom := n - top
		offsets = append(offsets, side(top, t.Width, -(t.Height/2+seatOffset))...)
		offsets = append(offsets, side(bottom, t.Width, t.Height/2+seatOffset)...)
	}
	sin, cos := math.Sincos(t.Rotation * math.Pi / 180)
	seats := make([]model.Seat, 0, n)
	for k, o := range offsets {
		seats = append(seats, model.Seat{
			ID:      model.IntID(firstID + int64(k)),
			X:       round2(t.X + o.x*cos - o.y*sin),
			Y:       round2(t.Y + o.x*sin + o.y*cos),
			Enabled: true,
			TableID: t.ID,
			Label:   TableSeatLabel(t.ID, k),
		})
	}
	return seats
}

func side(count int, width, y float64) []point {
	pts := make([]point, 0, count)
	for k := 0; k < count; k++ {
		pts = append(pts, point{-width/2 + (float64(k)+0.5)*width/float64(count), y})
	}
	return pts
}
