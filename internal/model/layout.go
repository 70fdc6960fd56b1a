package model

import (
	"fmt"
	"slices"
)

// Tab selects one of the independently edited canvases.
type Tab string

const (
	TabCeremony Tab = "ceremony"
	TabBanquet  Tab = "banquet"
)

// Tabs lists every tab in a stable order.
var Tabs = []Tab{TabCeremony, TabBanquet}

// ParseTab validates a tab name.  The empty string is rejected so callers
// decide their own default.
func ParseTab(s string) (Tab, error) {
	switch Tab(s) {
	case TabCeremony, TabBanquet:
		return Tab(s), nil
	}
	return "", Errorf(CodeInvalidInput, "tab", ID{}, "unknown tab %q", s)
}

// HallSize is the bounding box of a tab's canvas.
type HallSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DefaultHallSize is used until a tab is given an explicit size.
var DefaultHallSize = HallSize{Width: 1800, Height: 1200}

// SeatRelease controls what happens to a table's seats when the table is
// deleted.
type SeatRelease int

const (
	// DeleteSeats removes the table's seats together with the table.
	DeleteSeats SeatRelease = iota
	// OrphanSeats keeps the seats but clears their table and guest.
	OrphanSeats
)

// Layout is the spatial model of one tab.  All mutators keep the model
// consistent: ids are unique per kind, no seat points at a missing table
// and a guest sits on at most one enabled seat.  A mutator that returns an
// error leaves the layout unchanged.
type Layout struct {
	Areas  []Area  `json:"areas"`
	Tables []Table `json:"tables"`
	Seats  []Seat  `json:"seats"`
}

// NewLayout returns an empty layout with non-nil slices.
func NewLayout() *Layout {
	return &Layout{Areas: []Area{}, Tables: []Table{}, Seats: []Seat{}}
}

// Clone returns a deep copy.
func (l *Layout) Clone() *Layout {
	if l == nil {
		return NewLayout()
	}
	out := &Layout{
		Areas:  append(make([]Area, 0, len(l.Areas)), l.Areas...),
		Tables: make([]Table, len(l.Tables)),
		Seats:  append(make([]Seat, 0, len(l.Seats)), l.Seats...),
	}
	for i, t := range l.Tables {
		t.Tags = slices.Clone(t.Tags)
		out.Tables[i] = t
	}
	return out
}

// ---- lookups ----

// Table returns a pointer into the layout for the table with id.
func (l *Layout) Table(id ID) (*Table, bool) {
	for i := range l.Tables {
		if l.Tables[i].ID == id {
			return &l.Tables[i], true
		}
	}
	return nil, false
}

// Seat returns a pointer into the layout for the seat with id.
func (l *Layout) Seat(id ID) (*Seat, bool) {
	for i := range l.Seats {
		if l.Seats[i].ID == id {
			return &l.Seats[i], true
		}
	}
	return nil, false
}

// Area returns a pointer into the layout for the area with id.
func (l *Layout) Area(id ID) (*Area, bool) {
	for i := range l.Areas {
		if l.Areas[i].ID == id {
			return &l.Areas[i], true
		}
	}
	return nil, false
}

// SeatOfGuest finds the enabled seat a guest currently occupies.
func (l *Layout) SeatOfGuest(guest ID) (*Seat, bool) {
	if guest.IsZero() {
		return nil, false
	}
	for i := range l.Seats {
		if l.Seats[i].Enabled && l.Seats[i].GuestID == guest {
			return &l.Seats[i], true
		}
	}
	return nil, false
}

// Occupancy counts the enabled, assigned seats of a table.
func (l *Layout) Occupancy(table ID) int {
	n := 0
	for _, s := range l.Seats {
		if s.TableID == table && s.Occupied() {
			n++
		}
	}
	return n
}

// SeatsOf lists the seats attached to a table, in layout order.
func (l *Layout) SeatsOf(table ID) []Seat {
	var out []Seat
	for _, s := range l.Seats {
		if s.TableID == table {
			out = append(out, s)
		}
	}
	return out
}

// NextTableID returns one more than the largest numeric table id.
func (l *Layout) NextTableID() ID {
	var max int64
	for _, t := range l.Tables {
		if n, ok := t.ID.Int(); ok && n > max {
			max = n
		}
	}
	return IntID(max + 1)
}

// NextSeatID returns one more than the largest numeric seat id.
func (l *Layout) NextSeatID() ID {
	var max int64
	for _, s := range l.Seats {
		if n, ok := s.ID.Int(); ok && n > max {
			max = n
		}
	}
	return IntID(max + 1)
}

// NextAreaID returns one more than the largest numeric area id.
func (l *Layout) NextAreaID() ID {
	var max int64
	for _, a := range l.Areas {
		if n, ok := a.ID.Int(); ok && n > max {
			max = n
		}
	}
	return IntID(max + 1)
}

// ---- areas ----

// AddArea inserts a new area.
func (l *Layout) AddArea(a Area) error {
	if a.ID.IsZero() {
		return Errorf(CodeInvalidInput, "area", a.ID, "id is required")
	}
	if _, ok := l.Area(a.ID); ok {
		return Errorf(CodeDuplicate, "area", a.ID, "already exists")
	}
	if err := checkArea(a); err != nil {
		return err
	}
	l.Areas = append(l.Areas, a)
	return nil
}

// UpdateArea replaces an existing area.
func (l *Layout) UpdateArea(a Area) error {
	cur, ok := l.Area(a.ID)
	if !ok {
		return notFound("area", a.ID)
	}
	if err := checkArea(a); err != nil {
		return err
	}
	*cur = a
	return nil
}

// DeleteArea removes an area.
func (l *Layout) DeleteArea(id ID) error {
	i := slices.IndexFunc(l.Areas, func(a Area) bool { return a.ID == id })
	if i < 0 {
		return notFound("area", id)
	}
	l.Areas = slices.Delete(l.Areas, i, i+1)
	return nil
}

func checkArea(a Area) error {
	if !a.Kind.Valid() {
		return Errorf(CodeInvalidInput, "area", a.ID, "unknown kind %q", a.Kind)
	}
	if a.Geometry.Width <= 0 || a.Geometry.Height <= 0 {
		return Errorf(CodeInvalidInput, "area", a.ID, "width and height must be positive")
	}
	return nil
}

// ---- tables ----

// AddTable inserts a new table.
func (l *Layout) AddTable(t Table) error {
	if t.ID.IsZero() {
		return Errorf(CodeInvalidInput, "table", t.ID, "id is required")
	}
	if _, ok := l.Table(t.ID); ok {
		return Errorf(CodeDuplicate, "table", t.ID, "already exists")
	}
	if err := checkTable(t); err != nil {
		return err
	}
	t.Tags = slices.Clone(t.Tags)
	l.Tables = append(l.Tables, t)
	return nil
}

// UpdateTable replaces the attributes of an existing table.  Geometry
// changes are refused while the table is locked.
func (l *Layout) UpdateTable(t Table) error {
	cur, ok := l.Table(t.ID)
	if !ok {
		return notFound("table", t.ID)
	}
	if err := checkTable(t); err != nil {
		return err
	}
	if cur.Locked && cur.Geometry() != t.Geometry() {
		return Errorf(CodeTableLocked, "table", t.ID, "geometry is locked")
	}
	dx, dy := t.X-cur.X, t.Y-cur.Y
	t.Tags = slices.Clone(t.Tags)
	*cur = t
	l.shiftSeats(t.ID, dx, dy)
	return nil
}

// MoveTable moves a table and its seats so that the table centre lands
// on (x, y).
func (l *Layout) MoveTable(id ID, x, y float64) error {
	t, err := l.unlockedTable(id)
	if err != nil {
		return err
	}
	dx, dy := x-t.X, y-t.Y
	t.X, t.Y = x, y
	l.shiftSeats(id, dx, dy)
	return nil
}

// ResizeTable changes a table's footprint.
func (l *Layout) ResizeTable(id ID, width, height float64) error {
	t, err := l.unlockedTable(id)
	if err != nil {
		return err
	}
	if width <= 0 || (t.Shape == ShapeRectangle && height <= 0) {
		return Errorf(CodeInvalidInput, "table", id, "width and height must be positive")
	}
	t.Width, t.Height = width, height
	return nil
}

// RotateTable sets a table's rotation in degrees.
func (l *Layout) RotateTable(id ID, degrees float64) error {
	t, err := l.unlockedTable(id)
	if err != nil {
		return err
	}
	t.Rotation = degrees
	return nil
}

// SetTableLocked toggles the geometry lock of a table.
func (l *Layout) SetTableLocked(id ID, locked bool) error {
	t, ok := l.Table(id)
	if !ok {
		return notFound("table", id)
	}
	t.Locked = locked
	return nil
}

// DeleteTable removes a table.  Its seats are deleted or orphaned
// according to release; orphaned seats lose both table and guest so no
// seat is ever left pointing at a missing table.
func (l *Layout) DeleteTable(id ID, release SeatRelease) error {
	if _, err := l.unlockedTable(id); err != nil {
		return err
	}
	l.Tables = slices.DeleteFunc(l.Tables, func(t Table) bool { return t.ID == id })
	switch release {
	case OrphanSeats:
		for i := range l.Seats {
			if l.Seats[i].TableID == id {
				l.Seats[i].TableID = ID{}
				l.Seats[i].GuestID = ID{}
			}
		}
	default:
		l.Seats = slices.DeleteFunc(l.Seats, func(s Seat) bool { return s.TableID == id })
	}
	return nil
}

func (l *Layout) unlockedTable(id ID) (*Table, error) {
	t, ok := l.Table(id)
	if !ok {
		return nil, notFound("table", id)
	}
	if t.Locked {
		return nil, Errorf(CodeTableLocked, "table", id, "geometry is locked")
	}
	return t, nil
}

func (l *Layout) shiftSeats(table ID, dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	for i := range l.Seats {
		if l.Seats[i].TableID == table {
			l.Seats[i].X += dx
			l.Seats[i].Y += dy
		}
	}
}

func checkTable(t Table) error {
	if !t.Shape.Valid() {
		return Errorf(CodeInvalidInput, "table", t.ID, "unknown shape %q", t.Shape)
	}
	if t.Capacity <= 0 {
		return Errorf(CodeInvalidInput, "table", t.ID, "capacity must be a positive integer")
	}
	if t.Seats < 0 {
		return Errorf(CodeInvalidInput, "table", t.ID, "seat count cannot be negative")
	}
	if t.Width <= 0 || (t.Shape == ShapeRectangle && t.Height <= 0) {
		return Errorf(CodeInvalidInput, "table", t.ID, "width and height must be positive")
	}
	return nil
}

// ---- seats ----

// AddSeat inserts a new seat.
func (l *Layout) AddSeat(s Seat) error {
	if s.ID.IsZero() {
		return Errorf(CodeInvalidInput, "seat", s.ID, "id is required")
	}
	if _, ok := l.Seat(s.ID); ok {
		return Errorf(CodeDuplicate, "seat", s.ID, "already exists")
	}
	if !s.TableID.IsZero() {
		if _, ok := l.Table(s.TableID); !ok {
			return notFound("table", s.TableID)
		}
	}
	if s.Enabled && !s.GuestID.IsZero() {
		if other, ok := l.SeatOfGuest(s.GuestID); ok {
			return Errorf(CodeAlreadySeated, "guest", s.GuestID, "already seated at seat %s", other.ID)
		}
	}
	l.Seats = append(l.Seats, s)
	return nil
}

// MoveSeat repositions a seat.  Seats of a locked table stay put.
func (l *Layout) MoveSeat(id ID, x, y float64) error {
	s, ok := l.Seat(id)
	if !ok {
		return notFound("seat", id)
	}
	if !s.TableID.IsZero() {
		if t, ok := l.Table(s.TableID); ok && t.Locked {
			return Errorf(CodeTableLocked, "table", t.ID, "geometry is locked")
		}
	}
	s.X, s.Y = x, y
	return nil
}

// SetSeatEnabled enables or disables a seat.  A guest stays on a
// disabled seat (validation reports it) but re-enabling is refused if the
// guest has meanwhile been seated elsewhere.
func (l *Layout) SetSeatEnabled(id ID, enabled bool) error {
	s, ok := l.Seat(id)
	if !ok {
		return notFound("seat", id)
	}
	if enabled && !s.Enabled && !s.GuestID.IsZero() {
		if other, ok := l.SeatOfGuest(s.GuestID); ok {
			return Errorf(CodeAlreadySeated, "guest", s.GuestID, "already seated at seat %s", other.ID)
		}
	}
	s.Enabled = enabled
	return nil
}

// DeleteSeat removes a seat.
func (l *Layout) DeleteSeat(id ID) error {
	i := slices.IndexFunc(l.Seats, func(s Seat) bool { return s.ID == id })
	if i < 0 {
		return notFound("seat", id)
	}
	l.Seats = slices.Delete(l.Seats, i, i+1)
	return nil
}

// AssignGuest seats a guest.  The seat must be enabled and free, the
// guest must not already sit elsewhere and the seat's table must have
// room left.
func (l *Layout) AssignGuest(seatID, guest ID) error {
	if guest.IsZero() {
		return Errorf(CodeInvalidInput, "guest", guest, "guest id is required")
	}
	s, ok := l.Seat(seatID)
	if !ok {
		return notFound("seat", seatID)
	}
	if !s.Enabled {
		return Errorf(CodeSeatDisabled, "seat", seatID, "seat is disabled")
	}
	if s.GuestID == guest {
		return nil
	}
	if !s.GuestID.IsZero() {
		return Errorf(CodeDuplicate, "seat", seatID, "already occupied by guest %s", s.GuestID)
	}
	if other, ok := l.SeatOfGuest(guest); ok {
		return Errorf(CodeAlreadySeated, "guest", guest, "already seated at seat %s", other.ID)
	}
	if !s.TableID.IsZero() {
		t, ok := l.Table(s.TableID)
		if !ok {
			return notFound("table", s.TableID)
		}
		if l.Occupancy(t.ID) >= t.Capacity {
			return Errorf(CodeCapacity, "table", t.ID, "table is full (%d)", t.Capacity)
		}
	}
	s.GuestID = guest
	return nil
}

// UnassignGuest frees a seat.  Freeing an already free seat is a no-op.
func (l *Layout) UnassignGuest(seatID ID) error {
	s, ok := l.Seat(seatID)
	if !ok {
		return notFound("seat", seatID)
	}
	s.GuestID = ID{}
	return nil
}

// ReplaceSeats swaps in a whole seat set, as produced by a generator.
func (l *Layout) ReplaceSeats(seats []Seat) {
	l.Seats = append(make([]Seat, 0, len(seats)), seats...)
}

// Check verifies the structural invariants of a layout received from
// outside the engine (remote replacement, snapshot restore, storage).
func (l *Layout) Check() error {
	tables := make(map[ID]struct{}, len(l.Tables))
	for _, t := range l.Tables {
		if _, dup := tables[t.ID]; dup {
			return Errorf(CodeDuplicate, "table", t.ID, "duplicate id")
		}
		tables[t.ID] = struct{}{}
	}
	seats := make(map[ID]struct{}, len(l.Seats))
	for _, s := range l.Seats {
		if _, dup := seats[s.ID]; dup {
			return Errorf(CodeDuplicate, "seat", s.ID, "duplicate id")
		}
		seats[s.ID] = struct{}{}
	}
	areas := make(map[ID]struct{}, len(l.Areas))
	for _, a := range l.Areas {
		if _, dup := areas[a.ID]; dup {
			return Errorf(CodeDuplicate, "area", a.ID, "duplicate id")
		}
		areas[a.ID] = struct{}{}
	}
	return nil
}

func (l *Layout) String() string {
	return fmt.Sprintf("layout(areas=%d tables=%d seats=%d)", len(l.Areas), len(l.Tables), len(l.Seats))
}
