package eventstore

import (
	"context"

	"github.com/pkg/errors"

	"example.com/scaffold/services/platform/domain"
)

// ErrConcurrencyConflict is returned when an append's expected version
// does not match the aggregate's current version in the store. The
// caller holds a stale view and must reload before retrying.
var ErrConcurrencyConflict = errors.New("eventstore: expected version does not match current version")

// EventStore is the interface for event storage
type EventStore interface {
	// Append appends events to an aggregate's stream if and only if the
	// stream's current version equals expectedVersion. It returns the
	// new current version, or ErrConcurrencyConflict.
	Append(ctx context.Context, aggregateType, aggregateID string, expectedVersion int, events []domain.Event) (int, error)

	// Read returns an aggregate's events with version >= fromVersion,
	// in ascending version order, with payloads decoded. A stream with
	// no events returns an empty slice.
	Read(ctx context.Context, aggregateID string, fromVersion int) ([]domain.Event, error)

	// CurrentVersion returns the version of the last event in the
	// stream, or 0 when the aggregate does not exist.
	CurrentVersion(ctx context.Context, aggregateID string) (int, error)

	// UnpublishedEvents returns events not yet handed to the bus,
	// oldest first.
	UnpublishedEvents(ctx context.Context, limit int) ([]domain.Event, error)

	// MarkPublished records that an event was handed to the bus
	MarkPublished(ctx context.Context, eventID string) error

	// MarkPublishFailed records a delivery error against an event so it
	// can be inspected. The event stays unpublished and will be retried.
	MarkPublishFailed(ctx context.Context, eventID string, reason string) error
}
