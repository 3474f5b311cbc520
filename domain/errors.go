/*
errors.go - Error taxonomy shared by every package

PURPOSE:
  All error types in one place. Store, reconciliation and handler code return
  these (or wrap them) so the HTTP layer can map them to status codes with
  errors.Is / errors.As alone.

ERROR CATEGORIES:
  1. NotFound      - a referenced entity does not exist
  2. Conflict      - duplicate unique key, overlapping timetable slot
  3. InvalidState  - malformed amount or time range
  4. Validation    - request body failed shape validation

SEE ALSO:
  - api/handlers.go: errorStatus maps these to HTTP responses
  - store/sqlstore/errors.go: translates driver errors into these
*/
package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced entity doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned for duplicate unique keys and overlapping slots.
	ErrConflict = errors.New("conflict")

	// ErrInvalidState is returned when an amount or time range is malformed.
	ErrInvalidState = errors.New("invalid state")

	// ErrValidation is returned when a request fails field validation.
	ErrValidation = errors.New("validation failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	if e.ID == nil {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NotFound is shorthand for &NotFoundError{...}.
func NotFound(entity string, id any) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// DuplicateError reports a unique key that is already taken.
// Message, when set, is returned verbatim to API clients.
type DuplicateError struct {
	Entity  string
	Field   string
	Value   any
	Message string
}

func (e *DuplicateError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Field == "" {
		return fmt.Sprintf("%s already exists", e.Entity)
	}
	return fmt.Sprintf("%s with %s %v already exists", e.Entity, e.Field, e.Value)
}

func (e *DuplicateError) Unwrap() error { return ErrConflict }

// SlotConflictError lists every slot a candidate overlaps.
type SlotConflictError struct {
	Conflicts []TimetableSlot
}

func (e *SlotConflictError) Error() string {
	ids := make([]string, len(e.Conflicts))
	for i, s := range e.Conflicts {
		ids[i] = fmt.Sprint(s.ID)
	}
	return fmt.Sprintf("time slot conflicts with existing slots: %s", strings.Join(ids, ", "))
}

func (e *SlotConflictError) Unwrap() error { return ErrConflict }

// ConflictIDs returns the ids of the conflicting slots.
func (e *SlotConflictError) ConflictIDs() []uint {
	ids := make([]uint, len(e.Conflicts))
	for i, s := range e.Conflicts {
		ids[i] = s.ID
	}
	return ids
}

// InvalidStateError describes a malformed value.
type InvalidStateError struct {
	Field  string
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// ValidationError carries per-field messages keyed by JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		parts = append(parts, f+": "+msg)
	}
	sort.Strings(parts)
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrValidation)
}
