package model

import "time"

// Lock is a short-lived advisory claim on a table, held by one client.
// Locks are never persisted with the layout; they expire on their own at
// ExpiresAt and are treated as absent from then on.
//
// Fields:
//
//	TableID    – locked table.
//	ClientID   – collaborator holding the lock.
//	AcquiredAt – when the current holder first obtained it.
//	ExpiresAt  – end of validity; renewed by further edits.
type Lock struct {
	TableID    ID        `json:"tableId"`
	ClientID   string    `json:"clientId"`
	AcquiredAt time.Time `json:"acquiredAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Expired reports whether the lock is no longer valid at now.
func (l Lock) Expired(now time.Time) bool { return !now.Before(l.ExpiresAt) }

// LockEventKind classifies a lock-related notification.
type LockEventKind string

const (
	LockAcquired    LockEventKind = "acquired"
	LockReleased    LockEventKind = "released"
	LockDenied      LockEventKind = "denied"
	LockUnavailable LockEventKind = "unavailable"
)

// LockEvent is the latest lock contention notice shown to a client, for
// example "table 4 is being edited by client-b".
type LockEvent struct {
	Kind     LockEventKind `json:"kind"`
	TableID  ID            `json:"tableId"`
	ClientID string        `json:"clientId"`
	HolderID string        `json:"holderId,omitempty"`
	Message  string        `json:"message"`
	At       time.Time     `json:"at"`
}
