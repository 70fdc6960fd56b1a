package model

import "time"

// EventKind names a collaboration event relayed between engine instances.
type EventKind string

const (
	EventPresence       EventKind = "presence"
	EventLockAcquired   EventKind = "lock_acquired"
	EventLockReleased   EventKind = "lock_released"
	EventLockDenied     EventKind = "lock_denied"
	EventLayoutReplaced EventKind = "layout_replaced"
)

// CollabEvent is the normalized shape exchanged with the real-time
// channel.  Only the fields relevant to Kind are set.
type CollabEvent struct {
	Kind     EventKind      `json:"kind"`
	Origin   string         `json:"origin"`
	PlanID   string         `json:"planId"`
	Tab      Tab            `json:"tab,omitempty"`
	ClientID string         `json:"clientId,omitempty"`
	Status   PresenceStatus `json:"status,omitempty"`
	TableID  ID             `json:"tableId,omitempty"`
	HolderID string         `json:"holderId,omitempty"`
	Lock     *Lock          `json:"lock,omitempty"`
	Layout   *Layout        `json:"layout,omitempty"`
	HallSize *HallSize      `json:"hallSize,omitempty"`
	At       time.Time      `json:"at"`
}
