package messaging

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"example.com/scaffold/services/platform/domain"
	"example.com/scaffold/services/platform/eventstore"
)

type fakeSender struct {
	sent    []EventMessage
	failOn  string
	failErr error
}

func (f *fakeSender) Send(_ context.Context, messageID string, body []byte) error {
	if f.failOn != "" && messageID == f.failOn {
		return f.failErr
	}

	var msg EventMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func seedStore(t *testing.T) (*eventstore.MemoryEventStore, []domain.Event) {
	t.Helper()

	store := eventstore.NewMemoryEventStore()
	aggregate := domain.NewProjectAggregate("proj-1")
	require.NoError(t, aggregate.Create("billing", "", "user-1", "org-1", ""))
	require.NoError(t, aggregate.Update("billing-v2", ""))
	require.NoError(t, aggregate.Archive("admin-1", ""))

	events := aggregate.Uncommitted()
	_, err := store.Append(context.Background(), aggregate.GetType(), aggregate.GetID(), 0, events)
	require.NoError(t, err)

	return store, events
}

func TestPublisherSendsInStoreOrder(t *testing.T) {
	store, events := seedStore(t)
	sender := &fakeSender{}
	publisher := NewPublisher(store, sender, 10)

	published, err := publisher.PublishBatch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, published)

	require.Len(t, sender.sent, 3)
	for i, msg := range sender.sent {
		require.Equal(t, events[i].ID, msg.EventID)
		require.Equal(t, i+1, msg.Version)
	}

	// All events are flagged, nothing left to relay
	pending, err := store.UnpublishedEvents(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestPublisherRedeliversAfterCrashBetweenSendAndFlag(t *testing.T) {
	store, events := seedStore(t)
	sender := &fakeSender{}
	publisher := NewPublisher(store, sender, 10)

	_, err := publisher.PublishBatch(context.Background())
	require.NoError(t, err)

	// Simulate losing the flag for the last event
	storeEvents, err := store.Read(context.Background(), "proj-1", 1)
	require.NoError(t, err)
	require.Len(t, storeEvents, 3)

	fresh := eventstore.NewMemoryEventStore()
	_, err = fresh.Append(context.Background(), "project", "proj-1", 0, storeEvents)
	require.NoError(t, err)
	require.NoError(t, fresh.MarkPublished(context.Background(), events[0].ID))
	require.NoError(t, fresh.MarkPublished(context.Background(), events[1].ID))

	retrySender := &fakeSender{}
	retryPublisher := NewPublisher(fresh, retrySender, 10)
	published, err := retryPublisher.PublishBatch(context.Background())
	require.NoError(t, err)

	// The unflagged event goes out again; duplicates are the consumer's
	// problem, loss is not
	require.Equal(t, 1, published)
	require.Equal(t, events[2].ID, retrySender.sent[0].EventID)
}

func TestPublisherStopsBatchOnFailure(t *testing.T) {
	store, events := seedStore(t)
	sender := &fakeSender{
		failOn:  events[1].ID,
		failErr: errors.New("amqp: link detached"),
	}
	publisher := NewPublisher(store, sender, 10)

	published, err := publisher.PublishBatch(context.Background())
	require.Error(t, err)
	require.Equal(t, 1, published)
	require.Len(t, sender.sent, 1)

	// The failed event and everything after it stay pending, preserving
	// version order for the next sweep
	pending, err := store.UnpublishedEvents(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, 2, pending[0].Version)
	require.Equal(t, 3, pending[1].Version)
}
