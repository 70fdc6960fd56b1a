package model

// AreaKind names the purpose of a zone on the floor plan.
type AreaKind string

const (
	AreaDanceFloor AreaKind = "dance_floor"
	AreaBar        AreaKind = "bar"
	AreaBuffer     AreaKind = "buffer"
	AreaStage      AreaKind = "stage"
	AreaZone       AreaKind = "zone"
)

// Valid reports whether k is one of the known kinds.
func (k AreaKind) Valid() bool {
	switch k {
	case AreaDanceFloor, AreaBar, AreaBuffer, AreaStage, AreaZone:
		return true
	}
	return false
}

// Geometry is a rectangle positioned by its centre and rotated (degrees,
// clockwise) around that centre.
type Geometry struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
}

// Area represents a named zone of the venue such as the dance floor or
// a bar.  Areas are decorative and organizational: they are never
// assignment targets, but guests may prefer to sit close to one.
//
// Fields:
//
//	ID       – normalized identifier.
//	Kind     – purpose of the zone.
//	Geometry – centre, size and rotation.
//	Label    – display name.
//	ZIndex   – paint order for renderers.
type Area struct {
	ID       ID       `json:"id"`
	Kind     AreaKind `json:"kind"`
	Geometry Geometry `json:"geometry"`
	Label    string   `json:"label"`
	ZIndex   int      `json:"zIndex"`
}
