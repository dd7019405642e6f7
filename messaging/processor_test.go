package messaging

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/stretchr/testify/require"

	"example.com/scaffold/services/platform/eventstore"
	"example.com/scaffold/services/platform/handlers"
)

func newProcessor() (*Processor, *eventstore.MemoryEventStore) {
	store := eventstore.NewMemoryEventStore()
	repo := eventstore.NewRepository(store)
	return NewProcessor(
		handlers.NewProjectHandler(repo),
		handlers.NewTemplateHandler(repo),
		handlers.NewProvisioningHandler(repo),
		handlers.NewAnalysisHandler(repo),
	), store
}

func commandBody(t *testing.T, commandType string, cmd interface{}) []byte {
	t.Helper()

	data, err := json.Marshal(cmd)
	require.NoError(t, err)
	body, err := json.Marshal(CommandMessage{CommandType: commandType, Data: data})
	require.NoError(t, err)
	return body
}

func TestProcessorDispatchesCommand(t *testing.T) {
	processor, store := newProcessor()
	ctx := context.Background()

	body := commandBody(t, CreateProject, handlers.CreateProjectCommand{
		ProjectID: "proj-1",
		Name:      "billing",
		OwnerID:   "user-1",
	})

	err := processor.ProcessMessage(ctx, &azservicebus.ReceivedMessage{Body: body})
	require.NoError(t, err)

	version, err := store.CurrentVersion(ctx, "proj-1")
	require.NoError(t, err)
	require.Equal(t, 1, version)
}

func TestProcessorSwallowsRejections(t *testing.T) {
	processor, store := newProcessor()
	ctx := context.Background()

	body := commandBody(t, CreateProject, handlers.CreateProjectCommand{
		ProjectID: "proj-1",
		Name:      "billing",
		OwnerID:   "user-1",
	})
	require.NoError(t, processor.ProcessMessage(ctx, &azservicebus.ReceivedMessage{Body: body}))

	// A redelivered create is rejected by the domain but must not be
	// returned to the queue, it would never succeed
	require.NoError(t, processor.ProcessMessage(ctx, &azservicebus.ReceivedMessage{Body: body}))

	version, err := store.CurrentVersion(ctx, "proj-1")
	require.NoError(t, err)
	require.Equal(t, 1, version)
}

func TestProcessorUnknownCommandType(t *testing.T) {
	processor, _ := newProcessor()

	body := commandBody(t, "DeleteEverything", struct{}{})
	err := processor.ProcessMessage(context.Background(), &azservicebus.ReceivedMessage{Body: body})
	require.Error(t, err)
}
