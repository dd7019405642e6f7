package domain

import (
	"errors"
	"fmt"
)

// RejectionKind classifies why a command was refused
type RejectionKind string

const (
	RejectionValidation    RejectionKind = "VALIDATION"
	RejectionInvalidState  RejectionKind = "INVALID_STATE"
	RejectionNotFound      RejectionKind = "NOT_FOUND"
	RejectionAlreadyExists RejectionKind = "ALREADY_EXISTS"
)

// Rejection is a business-rule refusal of a command. It is an expected
// outcome surfaced to the caller, never a system fault. A rejected command
// emits no events and leaves the aggregate untouched.
type Rejection struct {
	Kind        RejectionKind
	AggregateID string
	Message     string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("command rejected (%s): %s", r.Kind, r.Message)
}

// Reject creates a rejection with the given kind
func Reject(kind RejectionKind, aggregateID, format string, args ...interface{}) *Rejection {
	return &Rejection{
		Kind:        kind,
		AggregateID: aggregateID,
		Message:     fmt.Sprintf(format, args...),
	}
}

// AsRejection unwraps a rejection from an error chain
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// ReplayError indicates an event in stored history has no legal transition
// from the aggregate's current replayed state. This means corrupted history
// or a deployed defect; processing of the aggregate must halt rather than
// guess.
type ReplayError struct {
	AggregateID string
	EventType   string
	Version     int
	Reason      string
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("replay integrity fault on aggregate %s at version %d (%s): %s",
		e.AggregateID, e.Version, e.EventType, e.Reason)
}

// IsReplayError reports whether err is a replay-integrity fault
func IsReplayError(err error) bool {
	var re *ReplayError
	return errors.As(err, &re)
}
