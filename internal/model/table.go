package model

import (
	"encoding/json"
	"slices"
)

// Shape is the outline of a table.
type Shape string

const (
	ShapeRectangle Shape = "rectangle"
	ShapeRound     Shape = "round"
)

// Valid reports whether s is a supported shape.
func (s Shape) Valid() bool { return s == ShapeRectangle || s == ShapeRound }

// Table is a banquet table.  X and Y are the centre of the table; for
// round tables Width is the diameter.  Locked freezes geometry (move,
// resize, rotate, delete) but still allows guests to be (re)assigned.
// Seats counts the seat slots drawn around the table and may differ from
// Capacity while a layout is being edited.  Tables are enabled unless
// Disabled is set; on the wire this is the "enabled" property, which
// defaults to true when absent.
type Table struct {
	ID       ID       `json:"id"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Rotation float64  `json:"rotation"`
	Shape    Shape    `json:"shape"`
	Capacity int      `json:"capacity"`
	Locked   bool     `json:"locked"`
	Seats    int      `json:"seats"`
	Disabled bool     `json:"-"`
	Label    string   `json:"label,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// Enabled reports whether the solver may seat guests at the table.
func (t Table) Enabled() bool { return !t.Disabled }

type tableFields Table

// MarshalJSON writes the table with an explicit "enabled" property.
func (t Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		tableFields
		Enabled bool `json:"enabled"`
	}{tableFields(t), !t.Disabled})
}

// UnmarshalJSON decodes onto the current value, so a partial document
// only changes the properties it names.
func (t *Table) UnmarshalJSON(b []byte) error {
	aux := struct {
		*tableFields
		Enabled *bool `json:"enabled"`
	}{tableFields: (*tableFields)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if aux.Enabled != nil {
		t.Disabled = !*aux.Enabled
	}
	return nil
}

// Geometry returns the table's bounding rectangle.
func (t Table) Geometry() Geometry {
	h := t.Height
	if t.Shape == ShapeRound {
		h = t.Width
	}
	return Geometry{X: t.X, Y: t.Y, Width: t.Width, Height: h, Rotation: t.Rotation}
}

// HasTag reports whether the table carries tag.
func (t Table) HasTag(tag string) bool { return slices.Contains(t.Tags, tag) }
