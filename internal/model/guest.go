package model

// Guest is the read-only view of an invitee supplied by the guest list.
// The engine does not own guest data; it only needs enough of it to
// score seating choices.
//
// Fields:
//
//	ID               – guest identifier (normalized).
//	Name             – display name, used by exports only.
//	PartyID          – guests sharing a party prefer the same table.
//	IncompatibleWith – guests that must never share a table with this one.
//	Dietary          – dietary marker matched against table tags.
//	Accessibility    – needs an accessible seat.
//	PreferredArea    – area the guest would like to sit near.
type Guest struct {
	ID               ID     `json:"id" yaml:"id"`
	Name             string `json:"name" yaml:"name"`
	PartyID          string `json:"partyId,omitempty" yaml:"partyId"`
	IncompatibleWith []ID   `json:"incompatibleWith,omitempty" yaml:"incompatibleWith"`
	Dietary          string `json:"dietary,omitempty" yaml:"dietary"`
	Accessibility    bool   `json:"accessibility,omitempty" yaml:"accessibility"`
	PreferredArea    ID     `json:"preferredArea,omitempty" yaml:"preferredArea"`
}
