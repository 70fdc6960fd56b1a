package layout

import (
	"math"
	"sort"

	"github.com/iliyamo/seating-plan/internal/model"
)

// Template names a banquet preset.
type Template string

const (
	TemplateGrid     Template = "grid"
	TemplateCircular Template = "circular"
	TemplateUShape   Template = "u_shape"
	TemplateLShape   Template = "l_shape"
	TemplateImperial Template = "imperial"
)

// TemplateParams drives every preset.  Tables is the number of tables,
// Spacing the distance between neighbouring table centres.  Cols is used
// by the grid and imperial presets only (default: square-ish grid for
// grid, 2 for imperial).  Table 1 is always centred on (StartX, StartY).
type TemplateParams struct {
	Tables      int         `json:"tables" yaml:"tables" validate:"gt=0"`
	Seats       int         `json:"seats" yaml:"seats" validate:"gte=0"`
	Spacing     float64     `json:"spacing" yaml:"spacing" validate:"gt=0"`
	StartX      float64     `json:"startX" yaml:"startX"`
	StartY      float64     `json:"startY" yaml:"startY"`
	Cols        int         `json:"cols,omitempty" yaml:"cols" validate:"gte=0"`
	Shape       model.Shape `json:"shape,omitempty" yaml:"shape" validate:"omitempty,oneof=rectangle round"`
	TableWidth  float64     `json:"tableWidth,omitempty" yaml:"tableWidth" validate:"gte=0"`
	TableHeight float64     `json:"tableHeight,omitempty" yaml:"tableHeight" validate:"gte=0"`
}

// TemplateInfo describes a preset for listing endpoints.
type TemplateInfo struct {
	Name        Template `json:"name"`
	Description string   `json:"description"`
}

type placer func(p TemplateParams) []point

var templates = map[Template]struct {
	desc  string
	place placer
}{
	TemplateGrid:     {"uniform rows and columns of tables", gridPoints},
	TemplateCircular: {"tables evenly spaced on a circle", circularPoints},
	TemplateUShape:   {"tables along three sides of a rectangle", uShapePoints},
	TemplateLShape:   {"tables along two perpendicular arms", lShapePoints},
	TemplateImperial: {"head table followed by rows of guest tables", imperialPoints},
}

// Templates lists the available presets sorted by name.
func Templates() []TemplateInfo {
	out := make([]TemplateInfo, 0, len(templates))
	for name, t := range templates {
		out = append(out, TemplateInfo{Name: name, Description: t.desc})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Generate runs the named preset.  Output has the same shape as Banquet
// so callers can swap generators freely.  The imperial head table is
// table 1 and is twice as wide as the others.
func Generate(name Template, p TemplateParams) (*model.Layout, error) {
	t, ok := templates[name]
	if !ok {
		return nil, model.Errorf(model.CodeInvalidInput, "params", model.ID{}, "unknown template %q", name)
	}
	if p.Tables <= 0 {
		return nil, model.Errorf(model.CodeInvalidInput, "params", model.ID{}, "tables must be positive, got %d", p.Tables)
	}
	if p.Spacing <= 0 {
		return nil, model.Errorf(model.CodeInvalidInput, "params", model.ID{}, "spacing must be positive, got %g", p.Spacing)
	}
	if p.Cols < 0 {
		return nil, model.Errorf(model.CodeInvalidInput, "params", model.ID{}, "cols cannot be negative")
	}
	if err := checkTableStyle(p.Shape, p.TableWidth, p.TableHeight); err != nil {
		return nil, err
	}
	style := tableStyle{shape: p.Shape, seats: p.Seats, width: p.TableWidth, height: p.TableHeight}
	out := tablesAt(t.place(p), style)
	if name == TemplateImperial {
		widenHeadTable(out)
	}
	return out, nil
}

func widenHeadTable(l *model.Layout) {
	head := &l.Tables[0]
	head.Shape = model.ShapeRectangle
	if head.Height == head.Width {
		head.Height = defaultRectHeight
	}
	head.Width *= 2
	head.Seats *= 2
	head.Capacity = head.Seats
	// regenerate chairs: the head table's change shifts every later id
	var seats []model.Seat
	var next int64 = 1
	for _, t := range l.Tables {
		chairs := TableSeats(t, next)
		next += int64(len(chairs))
		seats = append(seats, chairs...)
	}
	l.ReplaceSeats(seats)
}

func gridPoints(p TemplateParams) []point {
	cols := p.Cols
	if cols <= 0 {
		cols = int(math.Ceil(math.Sqrt(float64(p.Tables))))
	}
	pts := make([]point, 0, p.Tables)
	for i := 0; i < p.Tables; i++ {
		pts = append(pts, point{p.StartX + float64(i%cols)*p.Spacing, p.StartY + float64(i/cols)*p.Spacing})
	}
	return pts
}

// circularPoints puts table 1 at the top of a circle whose circumference
// is Tables*Spacing.
func circularPoints(p TemplateParams) []point {
	n := float64(p.Tables)
	r := n * p.Spacing / (2 * math.Pi)
	cx, cy := p.StartX, p.StartY+r
	pts := make([]point, 0, p.Tables)
	for i := 0; i < p.Tables; i++ {
		a := -math.Pi/2 + 2*math.Pi*float64(i)/n
		pts = append(pts, point{cx + r*math.Cos(a), cy + r*math.Sin(a)})
	}
	return pts
}

func uShapePoints(p TemplateParams) []point {
	arm := p.Tables / 3
	base := p.Tables - 2*arm
	// the right arm needs its own column
	if base < 2 && arm > 0 {
		arm--
		base += 2
	}
	pts := make([]point, 0, p.Tables)
	for i := 0; i < arm; i++ {
		pts = append(pts, point{p.StartX, p.StartY + float64(i)*p.Spacing})
	}
	bottom := p.StartY + float64(arm)*p.Spacing
	for i := 0; i < base; i++ {
		pts = append(pts, point{p.StartX + float64(i)*p.Spacing, bottom})
	}
	rightX := p.StartX + float64(base-1)*p.Spacing
	for i := arm - 1; i >= 0; i-- {
		pts = append(pts, point{rightX, p.StartY + float64(i)*p.Spacing})
	}
	return pts
}

func lShapePoints(p TemplateParams) []point {
	arm := p.Tables / 2
	base := p.Tables - arm
	pts := make([]point, 0, p.Tables)
	for i := 0; i < arm; i++ {
		pts = append(pts, point{p.StartX, p.StartY + float64(i)*p.Spacing})
	}
	bottom := p.StartY + float64(arm)*p.Spacing
	for i := 0; i < base; i++ {
		pts = append(pts, point{p.StartX + float64(i)*p.Spacing, bottom})
	}
	return pts
}

// imperialPoints places the head table at the start and the remaining
// tables in centred rows below it.
func imperialPoints(p TemplateParams) []point {
	cols := p.Cols
	if cols <= 0 {
		cols = 2
	}
	pts := []point{{p.StartX, p.StartY}}
	for i := 0; i < p.Tables-1; i++ {
		row, col := i/cols, i%cols
		x := p.StartX + (float64(col)-float64(cols-1)/2)*p.Spacing
		y := p.StartY + float64(row+1)*p.Spacing
		pts = append(pts, point{x, y})
	}
	return pts
}
