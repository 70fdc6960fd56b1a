package model

import "time"

// Snapshot is a named, durable checkpoint of one tab, distinct from the
// transient undo history.  Snapshots outlive the editing session through
// the persistence store.
//
// Fields:
//
//	ID        – opaque identifier (uuid).
//	Name      – user supplied label.
//	Tab       – tab the checkpoint was taken from.
//	Layout    – areas, tables and seats at capture time.
//	HallSize  – canvas size at capture time.
//	CreatedAt – capture timestamp (UTC).
type Snapshot struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Tab       Tab       `json:"tab"`
	Layout    *Layout   `json:"layout"`
	HallSize  HallSize  `json:"hallSize"`
	CreatedAt time.Time `json:"createdAt"`
}

// SnapshotInfo is the listing form of a snapshot without its payload.
type SnapshotInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Tab       Tab       `json:"tab"`
	CreatedAt time.Time `json:"createdAt"`
}

// Info strips the payload.
func (s Snapshot) Info() SnapshotInfo {
	return SnapshotInfo{ID: s.ID, Name: s.Name, Tab: s.Tab, CreatedAt: s.CreatedAt}
}
