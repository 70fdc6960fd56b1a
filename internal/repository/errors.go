// Package repository persists seating plans.  A plan is stored as one
// layout document per tab plus any number of named snapshots.  These
// sentinel values allow higher layers to distinguish a missing document
// from a storage failure.
package repository

import "errors"

// ErrNotFound is returned when no layout document or snapshot exists for
// the requested key.  The engine treats a missing layout as an empty tab;
// handlers translate a missing snapshot into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write collides with an existing record,
// such as saving a snapshot under an id that is already taken.  Handlers
// should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
