package eventstore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/scaffold/services/platform/domain"
)

func TestMemoryStoreAppendAndRead(t *testing.T) {
	store := NewMemoryEventStore()
	ctx := context.Background()

	aggregate := domain.NewProjectAggregate("proj-1")
	require.NoError(t, aggregate.Create("billing", "", "user-1", "org-1", ""))
	require.NoError(t, aggregate.Update("billing-v2", ""))

	version, err := store.Append(ctx, aggregate.GetType(), aggregate.GetID(), 0, aggregate.Uncommitted())
	require.NoError(t, err)
	require.Equal(t, 2, version)

	events, err := store.Read(ctx, "proj-1", 1)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, 1, events[0].Version)
	require.Equal(t, 2, events[1].Version)

	partial, err := store.Read(ctx, "proj-1", 2)
	require.NoError(t, err)
	require.Len(t, partial, 1)
	require.Equal(t, domain.ProjectUpdated, partial[0].Type)
}

func TestMemoryStoreStaleAppendConflicts(t *testing.T) {
	store := NewMemoryEventStore()
	ctx := context.Background()

	first := domain.NewProjectAggregate("proj-1")
	require.NoError(t, first.Create("billing", "", "user-1", "org-1", ""))
	_, err := store.Append(ctx, first.GetType(), first.GetID(), 0, first.Uncommitted())
	require.NoError(t, err)

	// A second writer that never saw the first append must conflict
	stale := domain.NewProjectAggregate("proj-1")
	require.NoError(t, stale.Create("billing", "", "user-2", "org-1", ""))
	_, err = store.Append(ctx, stale.GetType(), stale.GetID(), 0, stale.Uncommitted())
	require.ErrorIs(t, err, ErrConcurrencyConflict)

	events, err := store.Read(ctx, "proj-1", 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestMemoryStoreConcurrentWritersOneWinner(t *testing.T) {
	store := NewMemoryEventStore()
	ctx := context.Background()

	seed := domain.NewProjectAggregate("proj-1")
	require.NoError(t, seed.Create("billing", "", "user-1", "org-1", ""))
	_, err := store.Append(ctx, seed.GetType(), seed.GetID(), 0, seed.Uncommitted())
	require.NoError(t, err)

	const writers = 16
	var wg sync.WaitGroup
	results := make(chan error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			aggregate := domain.NewProjectAggregate("proj-1")
			events, err := store.Read(ctx, "proj-1", 1)
			if err != nil {
				results <- err
				return
			}
			for _, event := range events {
				if err := aggregate.Replay(event); err != nil {
					results <- err
					return
				}
			}

			if err := aggregate.Update("renamed", ""); err != nil {
				results <- err
				return
			}

			_, err = store.Append(ctx, aggregate.GetType(), aggregate.GetID(), 1, aggregate.Uncommitted())
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	winners, conflicts := 0, 0
	for err := range results {
		if err == nil {
			winners++
			continue
		}
		require.ErrorIs(t, err, ErrConcurrencyConflict)
		conflicts++
	}

	require.Equal(t, 1, winners)
	require.Equal(t, writers-1, conflicts)

	version, err := store.CurrentVersion(ctx, "proj-1")
	require.NoError(t, err)
	require.Equal(t, 2, version)
}

func TestMemoryStoreOutboxFlow(t *testing.T) {
	store := NewMemoryEventStore()
	ctx := context.Background()

	aggregate := domain.NewProjectAggregate("proj-1")
	require.NoError(t, aggregate.Create("billing", "", "user-1", "org-1", ""))
	require.NoError(t, aggregate.Update("renamed", ""))
	_, err := store.Append(ctx, aggregate.GetType(), aggregate.GetID(), 0, aggregate.Uncommitted())
	require.NoError(t, err)

	pending, err := store.UnpublishedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	require.NoError(t, store.MarkPublished(ctx, pending[0].ID))

	pending, err = store.UnpublishedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, 2, pending[0].Version)
}
