package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/scaffold/services/platform/domain"
	"example.com/scaffold/services/platform/eventstore"
)

func newProjectHandler() (*ProjectHandler, *eventstore.MemoryEventStore) {
	store := eventstore.NewMemoryEventStore()
	return NewProjectHandler(eventstore.NewRepository(store)), store
}

func TestHandleCreateProject(t *testing.T) {
	handler, store := newProjectHandler()
	ctx := context.Background()

	err := handler.HandleCreateProject(ctx, CreateProjectCommand{
		ProjectID: "proj-1",
		Name:      "billing",
		OwnerID:   "user-1",
	})
	require.NoError(t, err)

	events, err := store.Read(ctx, "proj-1", 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, domain.ProjectCreated, events[0].Type)
}

func TestHandleCreateProjectTwice(t *testing.T) {
	handler, _ := newProjectHandler()
	ctx := context.Background()

	cmd := CreateProjectCommand{ProjectID: "proj-1", Name: "billing", OwnerID: "user-1"}
	require.NoError(t, handler.HandleCreateProject(ctx, cmd))

	err := handler.HandleCreateProject(ctx, cmd)
	rejection, ok := domain.AsRejection(err)
	require.True(t, ok)
	require.Equal(t, domain.RejectionAlreadyExists, rejection.Kind)
}

func TestHandleCreateProjectValidation(t *testing.T) {
	handler, store := newProjectHandler()
	ctx := context.Background()

	err := handler.HandleCreateProject(ctx, CreateProjectCommand{ProjectID: "proj-1"})
	rejection, ok := domain.AsRejection(err)
	require.True(t, ok)
	require.Equal(t, domain.RejectionValidation, rejection.Kind)

	// Nothing was written
	version, err := store.CurrentVersion(ctx, "proj-1")
	require.NoError(t, err)
	require.Equal(t, 0, version)
}

func TestHandleUpdateMissingProject(t *testing.T) {
	handler, _ := newProjectHandler()

	err := handler.HandleUpdateProject(context.Background(), UpdateProjectCommand{
		ProjectID: "proj-missing",
		Name:      "renamed",
	})
	rejection, ok := domain.AsRejection(err)
	require.True(t, ok)
	require.Equal(t, domain.RejectionNotFound, rejection.Kind)
}

func TestHandleArchiveThenUpdateRejected(t *testing.T) {
	handler, _ := newProjectHandler()
	ctx := context.Background()

	require.NoError(t, handler.HandleCreateProject(ctx, CreateProjectCommand{
		ProjectID: "proj-1", Name: "billing", OwnerID: "user-1",
	}))
	require.NoError(t, handler.HandleArchiveProject(ctx, ArchiveProjectCommand{
		ProjectID: "proj-1", ArchivedBy: "admin-1",
	}))

	err := handler.HandleUpdateProject(ctx, UpdateProjectCommand{
		ProjectID: "proj-1", Name: "renamed",
	})
	rejection, ok := domain.AsRejection(err)
	require.True(t, ok)
	require.Equal(t, domain.RejectionInvalidState, rejection.Kind)
}

func TestHandleProvisioningFlow(t *testing.T) {
	store := eventstore.NewMemoryEventStore()
	handler := NewProvisioningHandler(eventstore.NewRepository(store))
	ctx := context.Background()

	require.NoError(t, handler.HandleRequestProvisioning(ctx, RequestProvisioningCommand{
		ProvisioningID: "prov-1",
		ProjectID:      "proj-1",
		RepoName:       "billing-svc",
		Provider:       "github",
		Visibility:     "private",
	}))
	require.NoError(t, handler.HandleStartProvisioning(ctx, StartProvisioningCommand{
		ProvisioningID: "prov-1",
		WorkerID:       "worker-1",
	}))
	require.NoError(t, handler.HandleCompleteProvisioning(ctx, CompleteProvisioningCommand{
		ProvisioningID: "prov-1",
		RepoURL:        "https://github.com/org/billing-svc",
		DefaultBranch:  "main",
	}))

	version, err := store.CurrentVersion(ctx, "prov-1")
	require.NoError(t, err)
	require.Equal(t, 3, version)
}

func TestHandleProvisioningInvalidVisibility(t *testing.T) {
	store := eventstore.NewMemoryEventStore()
	handler := NewProvisioningHandler(eventstore.NewRepository(store))

	err := handler.HandleRequestProvisioning(context.Background(), RequestProvisioningCommand{
		ProvisioningID: "prov-1",
		ProjectID:      "proj-1",
		RepoName:       "billing-svc",
		Visibility:     "secret",
	})
	rejection, ok := domain.AsRejection(err)
	require.True(t, ok)
	require.Equal(t, domain.RejectionValidation, rejection.Kind)
}
