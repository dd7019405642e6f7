package eventstore

import (
	"context"

	"github.com/pkg/errors"

	"example.com/scaffold/services/platform/domain"
)

// Repository loads aggregates from the event store and saves the
// events they record
type Repository struct {
	store EventStore
}

// NewRepository creates a repository over the given event store
func NewRepository(store EventStore) *Repository {
	return &Repository{store: store}
}

// Load replays an aggregate's stream into the given empty aggregate.
// An aggregate with no events is left at version 0, which the domain
// treats as "does not exist".
func (r *Repository) Load(ctx context.Context, aggregate domain.Aggregate) error {
	if aggregate.GetID() == "" {
		return errors.New("aggregate ID is empty")
	}
	if aggregate.GetVersion() != 0 {
		return errors.New("cannot load into a non-empty aggregate")
	}

	events, err := r.store.Read(ctx, aggregate.GetID(), 1)
	if err != nil {
		return err
	}

	for _, event := range events {
		if err := aggregate.Replay(event); err != nil {
			return err
		}
	}

	return nil
}

// Save appends the aggregate's uncommitted events to its stream. The
// expected version is the version the aggregate was loaded at, so a
// concurrent writer surfaces as ErrConcurrencyConflict and the caller
// decides whether to reload and retry.
func (r *Repository) Save(ctx context.Context, aggregate domain.Aggregate) error {
	events := aggregate.Uncommitted()
	if len(events) == 0 {
		return nil
	}

	expectedVersion := aggregate.GetVersion() - len(events)
	_, err := r.store.Append(ctx, aggregate.GetType(), aggregate.GetID(), expectedVersion, events)
	if err != nil {
		return err
	}

	aggregate.ClearUncommitted()
	return nil
}
