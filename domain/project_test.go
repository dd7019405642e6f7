package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProjectCreate(t *testing.T) {
	aggregate := NewProjectAggregate("proj-1")

	err := aggregate.Create("billing", "billing service", "user-1", "org-1", "tmpl-1")
	require.NoError(t, err)

	require.Equal(t, 1, aggregate.GetVersion())
	require.Equal(t, ProjectStatusActive, aggregate.State.Status)
	require.Equal(t, "billing", aggregate.State.Name)

	events := aggregate.Uncommitted()
	require.Len(t, events, 1)
	require.Equal(t, ProjectCreated, events[0].Type)
	require.Equal(t, 1, events[0].Version)
	require.Equal(t, "proj-1", events[0].AggregateID)
}

func TestProjectCreateTwiceRejected(t *testing.T) {
	aggregate := NewProjectAggregate("proj-1")
	require.NoError(t, aggregate.Create("billing", "", "user-1", "org-1", ""))

	err := aggregate.Create("billing", "", "user-1", "org-1", "")
	rejection, ok := AsRejection(err)
	require.True(t, ok)
	require.Equal(t, RejectionAlreadyExists, rejection.Kind)

	// A rejected command records nothing
	require.Equal(t, 1, aggregate.GetVersion())
	require.Len(t, aggregate.Uncommitted(), 1)
}

func TestProjectCreateValidation(t *testing.T) {
	aggregate := NewProjectAggregate("proj-1")

	err := aggregate.Create("", "", "user-1", "org-1", "")
	rejection, ok := AsRejection(err)
	require.True(t, ok)
	require.Equal(t, RejectionValidation, rejection.Kind)
	require.Equal(t, 0, aggregate.GetVersion())
	require.Empty(t, aggregate.Uncommitted())
}

func TestProjectUpdateBeforeCreateRejected(t *testing.T) {
	aggregate := NewProjectAggregate("proj-1")

	err := aggregate.Update("new name", "")
	rejection, ok := AsRejection(err)
	require.True(t, ok)
	require.Equal(t, RejectionNotFound, rejection.Kind)
}

func TestProjectArchiveAndRestore(t *testing.T) {
	aggregate := NewProjectAggregate("proj-1")
	require.NoError(t, aggregate.Create("billing", "", "user-1", "org-1", ""))
	require.NoError(t, aggregate.Archive("admin-1", "sunset"))
	require.Equal(t, ProjectStatusArchived, aggregate.State.Status)

	// Updates are refused while archived
	err := aggregate.Update("renamed", "")
	rejection, ok := AsRejection(err)
	require.True(t, ok)
	require.Equal(t, RejectionInvalidState, rejection.Kind)

	require.NoError(t, aggregate.Restore("admin-1"))
	require.Equal(t, ProjectStatusActive, aggregate.State.Status)
	require.Equal(t, 3, aggregate.GetVersion())
}

func TestProjectArchiveTwiceRejected(t *testing.T) {
	aggregate := NewProjectAggregate("proj-1")
	require.NoError(t, aggregate.Create("billing", "", "user-1", "org-1", ""))
	require.NoError(t, aggregate.Archive("admin-1", ""))

	err := aggregate.Archive("admin-1", "")
	rejection, ok := AsRejection(err)
	require.True(t, ok)
	require.Equal(t, RejectionInvalidState, rejection.Kind)
}

func TestProjectReplayDeterminism(t *testing.T) {
	source := NewProjectAggregate("proj-1")
	require.NoError(t, source.Create("billing", "desc", "user-1", "org-1", "tmpl-1"))
	require.NoError(t, source.Update("billing-v2", "desc-v2"))
	require.NoError(t, source.Archive("admin-1", "done"))
	events := source.Uncommitted()

	first := NewProjectAggregate("proj-1")
	for _, event := range events {
		require.NoError(t, first.Replay(event))
	}

	second := NewProjectAggregate("proj-1")
	for _, event := range events {
		require.NoError(t, second.Replay(event))
	}

	require.Equal(t, first.State, second.State)
	require.Equal(t, source.State, first.State)
	require.Equal(t, source.GetVersion(), first.GetVersion())
	require.Empty(t, first.Uncommitted())
}

func TestProjectReplayNonContiguousVersion(t *testing.T) {
	source := NewProjectAggregate("proj-1")
	require.NoError(t, source.Create("billing", "", "user-1", "org-1", ""))
	require.NoError(t, source.Update("renamed", ""))
	events := source.Uncommitted()

	target := NewProjectAggregate("proj-1")
	err := target.Replay(events[1])
	require.Error(t, err)
	require.True(t, IsReplayError(err))
	require.Equal(t, 0, target.GetVersion())
}

func TestProjectReplayIllegalTransition(t *testing.T) {
	source := NewProjectAggregate("proj-1")
	require.NoError(t, source.Create("billing", "", "user-1", "org-1", ""))
	created := source.Uncommitted()[0]

	target := NewProjectAggregate("proj-1")
	require.NoError(t, target.Replay(created))

	// A second created event is not legal from the active state
	duplicate := created
	duplicate.Version = 2
	err := target.Replay(duplicate)
	require.True(t, IsReplayError(err))
}
