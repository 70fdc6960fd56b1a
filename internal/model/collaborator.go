package model

import "time"

// PresenceStatus describes the liveness of a collaborator.
type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "online"
	PresenceIdle    PresenceStatus = "idle"
	PresenceOffline PresenceStatus = "offline"
)

// Valid reports whether s is a known status.
func (s PresenceStatus) Valid() bool {
	switch s {
	case PresenceOnline, PresenceIdle, PresenceOffline:
		return true
	}
	return false
}

// Collaborator is a roster entry for another connected client.
type Collaborator struct {
	ClientID string         `json:"clientId"`
	Status   PresenceStatus `json:"status"`
	LastSeen time.Time      `json:"lastSeen"`
}

// CollaborationStatus summarizes the roster for display.
type CollaborationStatus struct {
	Connected bool `json:"connected"`
	Online    int  `json:"online"`
	Idle      int  `json:"idle"`
	Locks     int  `json:"locks"`
}
