package model

// ConflictType names a rule the current layout violates.
type ConflictType string

const (
	ConflictOverlap        ConflictType = "overlap"
	ConflictCapacity       ConflictType = "capacity"
	ConflictSeatSlots      ConflictType = "seat_slots"
	ConflictAisle          ConflictType = "aisle"
	ConflictDanglingSeat   ConflictType = "dangling_seat"
	ConflictDuplicateGuest ConflictType = "duplicate_guest"
	ConflictDisabledSeat   ConflictType = "disabled_seat"
	ConflictOutOfBounds    ConflictType = "out_of_bounds"
)

// Severity decides whether a conflict blocks export and auto-assign
// confirmation.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Conflict is derived from the layout after every mutation and never
// stored.
type Conflict struct {
	Type      ConflictType `json:"type"`
	Severity  Severity     `json:"severity"`
	EntityIDs []ID         `json:"entityIds"`
	Message   string       `json:"message"`
}
