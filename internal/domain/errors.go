package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies domain failures so transport layers can map them
// to user-facing responses without string matching.
type ErrorKind string

const (
	KindNotFound             ErrorKind = "not_found"
	KindInactiveEntity       ErrorKind = "inactive_entity"
	KindInvalidOdometer      ErrorKind = "invalid_odometer"
	KindOccupancyConflict    ErrorKind = "occupancy_conflict"
	KindInvalidEventOrdering ErrorKind = "invalid_event_ordering"
	KindConflict             ErrorKind = "conflict"
)

// Error is a domain validation failure. Entity and Field identify what the
// failure refers to; both may be empty when not applicable.
type Error struct {
	Kind    ErrorKind
	Entity  string
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Entity != "" {
		return fmt.Sprintf("%s: %s", e.Entity, e.Message)
	}
	return e.Message
}

// KindOf returns the kind of a domain error, or "" for any other error.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// NotFound reports a missing entity.
func NotFound(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, Message: fmt.Sprintf("%s not found", id)}
}

// Inactive reports an entity that exists but is disabled.
func Inactive(entity, id string) *Error {
	return &Error{Kind: KindInactiveEntity, Entity: entity, Message: fmt.Sprintf("%s is inactive", id)}
}

// InvalidOdometer reports an odometer regression or negative reading.
func InvalidOdometer(message string) *Error {
	return &Error{Kind: KindInvalidOdometer, Entity: "vehicle", Field: "km", Message: message}
}

// OccupancyConflict reports a single-occupancy violation.
func OccupancyConflict(entity, message string) *Error {
	return &Error{Kind: KindOccupancyConflict, Entity: entity, Message: message}
}

// InvalidEventOrdering reports an EXIT timestamp that is not strictly after
// its matching ENTRY.
func InvalidEventOrdering(message string) *Error {
	return &Error{Kind: KindInvalidEventOrdering, Field: "occurred_at", Message: message}
}

// Conflict reports a unique-field violation such as a duplicate plate or phone.
func Conflict(entity, field string) *Error {
	return &Error{Kind: KindConflict, Entity: entity, Field: field, Message: fmt.Sprintf("%s already in use", field)}
}
