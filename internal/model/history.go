package model

import "time"

// HistoryEntry is an immutable full-state capture of one tab pushed after
// every committed mutation.  Holders must Clone the layout before handing
// it out.
type HistoryEntry struct {
	Tab       Tab       `json:"tab"`
	Layout    *Layout   `json:"layout"`
	Timestamp time.Time `json:"timestamp"`
}
