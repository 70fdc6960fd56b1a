package model

// Seat describes a single place a guest can occupy.  Ceremony seats are
// usually tableless and laid out in rows; banquet seats belong to a table.
// A disabled seat keeps its position for layout continuity but is never
// an assignment target and does not count towards occupancy.
//
// Fields:
//
//	ID         – normalized identifier, unique within a tab.
//	X, Y       – seat centre on the canvas.
//	Enabled    – whether the seat may be used.
//	GuestID    – guest seated here, zero when free.
//	TableID    – owning table, zero for free-standing seats.
//	Label      – human label such as "A3" or "T2-5".
//	Accessible – reserved for guests with accessibility needs.
type Seat struct {
	ID         ID      `json:"id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Enabled    bool    `json:"enabled"`
	GuestID    ID      `json:"guestId"`
	TableID    ID      `json:"tableId"`
	Label      string  `json:"label,omitempty"`
	Accessible bool    `json:"accessible,omitempty"`
}

// Occupied reports whether the seat counts as taken.
func (s Seat) Occupied() bool { return s.Enabled && !s.GuestID.IsZero() }
