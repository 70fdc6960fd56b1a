package model

import "fmt"

// Code classifies an invariant violation or rejected input.
type Code string

const (
	CodeNotFound      Code = "NOT_FOUND"
	CodeDuplicate     Code = "DUPLICATE"
	CodeAlreadySeated Code = "ALREADY_SEATED"
	CodeTableLocked   Code = "TABLE_LOCKED"
	CodeLockHeld      Code = "LOCK_HELD"
	CodeInvalidInput  Code = "INVALID_INPUT"
	CodeCapacity      Code = "CAPACITY"
	CodeSeatDisabled  Code = "SEAT_DISABLED"
	CodeBlocked       Code = "BLOCKED"
)

// Error is returned by mutators when a precondition does not hold.  The
// offending entity is named so callers can point at it.
type Error struct {
	Code    Code
	Entity  string // "table", "seat", "area", "guest", "snapshot", "params"
	ID      ID
	Message string
}

func (e *Error) Error() string {
	if e.ID.IsZero() {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Entity, e.Message)
	}
	return fmt.Sprintf("%s: %s %s: %s", e.Code, e.Entity, e.ID, e.Message)
}

// Is matches any *Error with the same code, so the sentinels below work
// with errors.Is regardless of entity or message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound      = &Error{Code: CodeNotFound}
	ErrDuplicate     = &Error{Code: CodeDuplicate}
	ErrAlreadySeated = &Error{Code: CodeAlreadySeated}
	ErrTableLocked   = &Error{Code: CodeTableLocked}
	ErrLockHeld      = &Error{Code: CodeLockHeld}
	ErrInvalidInput  = &Error{Code: CodeInvalidInput}
	ErrCapacity      = &Error{Code: CodeCapacity}
	ErrSeatDisabled  = &Error{Code: CodeSeatDisabled}
	ErrBlocked       = &Error{Code: CodeBlocked}
)

// Errorf builds an *Error.
func Errorf(code Code, entity string, id ID, format string, args ...any) *Error {
	return &Error{Code: code, Entity: entity, ID: id, Message: fmt.Sprintf(format, args...)}
}

func notFound(entity string, id ID) *Error {
	return Errorf(CodeNotFound, entity, id, "does not exist")
}
