package eventstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"example.com/scaffold/services/platform/domain"
	"example.com/scaffold/services/platform/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))

	return db
}

func TestGormStoreRoundTrip(t *testing.T) {
	db := newTestDB(t)
	store := NewGormEventStore(db)
	ctx := context.Background()

	aggregate := domain.NewProjectAggregate("proj-1")
	require.NoError(t, aggregate.Create("billing", "desc", "user-1", "org-1", "tmpl-1"))
	require.NoError(t, aggregate.Update("billing-v2", "desc-v2"))

	version, err := store.Append(ctx, aggregate.GetType(), aggregate.GetID(), 0, aggregate.Uncommitted())
	require.NoError(t, err)
	require.Equal(t, 2, version)

	events, err := store.Read(ctx, "proj-1", 1)
	require.NoError(t, err)
	require.Len(t, events, 2)

	created, ok := events[0].Data.(domain.ProjectCreatedEvent)
	require.True(t, ok)
	require.Equal(t, "billing", created.Name)
	require.Equal(t, "org-1", created.OrganizationID)

	updated, ok := events[1].Data.(domain.ProjectUpdatedEvent)
	require.True(t, ok)
	require.Equal(t, "billing-v2", updated.Name)

	// Replaying the stored stream reproduces the source state
	replayed := domain.NewProjectAggregate("proj-1")
	for _, event := range events {
		require.NoError(t, replayed.Replay(event))
	}
	require.Equal(t, aggregate.State, replayed.State)
}

func TestGormStoreConcurrencyConflict(t *testing.T) {
	db := newTestDB(t)
	store := NewGormEventStore(db)
	ctx := context.Background()

	first := domain.NewProjectAggregate("proj-1")
	require.NoError(t, first.Create("billing", "", "user-1", "org-1", ""))
	_, err := store.Append(ctx, first.GetType(), first.GetID(), 0, first.Uncommitted())
	require.NoError(t, err)

	stale := domain.NewProjectAggregate("proj-1")
	require.NoError(t, stale.Create("billing", "", "user-2", "org-1", ""))
	_, err = store.Append(ctx, stale.GetType(), stale.GetID(), 0, stale.Uncommitted())
	require.ErrorIs(t, err, ErrConcurrencyConflict)

	// The losing append wrote nothing
	version, err := store.CurrentVersion(ctx, "proj-1")
	require.NoError(t, err)
	require.Equal(t, 1, version)
}

func TestGormStoreVersionsAreGapless(t *testing.T) {
	db := newTestDB(t)
	store := NewGormEventStore(db)
	ctx := context.Background()

	aggregate := domain.NewProjectAggregate("proj-1")
	require.NoError(t, aggregate.Create("billing", "", "user-1", "org-1", ""))
	_, err := store.Append(ctx, aggregate.GetType(), aggregate.GetID(), 0, aggregate.Uncommitted())
	require.NoError(t, err)
	aggregate.ClearUncommitted()

	require.NoError(t, aggregate.Update("v2", ""))
	require.NoError(t, aggregate.Archive("admin", ""))
	_, err = store.Append(ctx, aggregate.GetType(), aggregate.GetID(), 1, aggregate.Uncommitted())
	require.NoError(t, err)

	events, err := store.Read(ctx, "proj-1", 1)
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, event := range events {
		require.Equal(t, i+1, event.Version)
	}
}

func TestGormStoreNonContiguousBatchRejected(t *testing.T) {
	db := newTestDB(t)
	store := NewGormEventStore(db)
	ctx := context.Background()

	aggregate := domain.NewProjectAggregate("proj-1")
	require.NoError(t, aggregate.Create("billing", "", "user-1", "org-1", ""))
	events := aggregate.Uncommitted()
	events[0].Version = 3

	_, err := store.Append(ctx, aggregate.GetType(), aggregate.GetID(), 0, events)
	require.Error(t, err)
}

func TestGormStoreOutbox(t *testing.T) {
	db := newTestDB(t)
	store := NewGormEventStore(db)
	ctx := context.Background()

	aggregate := domain.NewProjectAggregate("proj-1")
	require.NoError(t, aggregate.Create("billing", "", "user-1", "org-1", ""))
	require.NoError(t, aggregate.Update("v2", ""))
	_, err := store.Append(ctx, aggregate.GetType(), aggregate.GetID(), 0, aggregate.Uncommitted())
	require.NoError(t, err)

	pending, err := store.UnpublishedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, 1, pending[0].Version)

	require.NoError(t, store.MarkPublished(ctx, pending[0].ID))

	pending, err = store.UnpublishedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, 2, pending[0].Version)

	// A failed delivery keeps the event pending and records the reason
	require.NoError(t, store.MarkPublishFailed(ctx, pending[0].ID, "link detached"))

	pending, err = store.UnpublishedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	var row models.Event
	require.NoError(t, db.First(&row, "event_id = ?", pending[0].ID).Error)
	require.NotNil(t, row.Error)
	require.Equal(t, "link detached", *row.Error)
}
