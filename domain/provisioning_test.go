package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProvisioningLifecycle(t *testing.T) {
	aggregate := NewProvisioningAggregate("prov-1")

	require.NoError(t, aggregate.Request("proj-1", "billing-svc", "github", "private", "user-1"))
	require.Equal(t, ProvisioningStatusPending, aggregate.State.Status)

	require.NoError(t, aggregate.Start("worker-1"))
	require.Equal(t, ProvisioningStatusInProgress, aggregate.State.Status)

	require.NoError(t, aggregate.Complete("https://github.com/org/billing-svc", "main"))
	require.Equal(t, ProvisioningStatusCompleted, aggregate.State.Status)
	require.Equal(t, "https://github.com/org/billing-svc", aggregate.State.RepoURL)
	require.Equal(t, 3, aggregate.GetVersion())
}

func TestProvisioningCompleteWhilePendingRejected(t *testing.T) {
	aggregate := NewProvisioningAggregate("prov-1")
	require.NoError(t, aggregate.Request("proj-1", "billing-svc", "github", "private", "user-1"))

	err := aggregate.Complete("https://github.com/org/billing-svc", "main")
	rejection, ok := AsRejection(err)
	require.True(t, ok)
	require.Equal(t, RejectionInvalidState, rejection.Kind)

	// The rejected command left the aggregate untouched
	require.Equal(t, ProvisioningStatusPending, aggregate.State.Status)
	require.Equal(t, 1, aggregate.GetVersion())
	require.Len(t, aggregate.Uncommitted(), 1)
}

func TestProvisioningFailFromPendingOrInProgress(t *testing.T) {
	pending := NewProvisioningAggregate("prov-1")
	require.NoError(t, pending.Request("proj-1", "repo", "github", "", ""))
	require.NoError(t, pending.Fail("quota exceeded"))
	require.Equal(t, ProvisioningStatusFailed, pending.State.Status)
	require.Equal(t, "quota exceeded", pending.State.FailureReason)

	running := NewProvisioningAggregate("prov-2")
	require.NoError(t, running.Request("proj-1", "repo", "github", "", ""))
	require.NoError(t, running.Start("worker-1"))
	require.NoError(t, running.Fail("remote rejected push"))
	require.Equal(t, ProvisioningStatusFailed, running.State.Status)
}

func TestProvisioningSettledIsTerminal(t *testing.T) {
	aggregate := NewProvisioningAggregate("prov-1")
	require.NoError(t, aggregate.Request("proj-1", "repo", "github", "", ""))
	require.NoError(t, aggregate.Start("worker-1"))
	require.NoError(t, aggregate.Fail("timeout"))

	for _, err := range []error{
		aggregate.Start("worker-2"),
		aggregate.Complete("https://example.com/repo", "main"),
		aggregate.Fail("again"),
	} {
		rejection, ok := AsRejection(err)
		require.True(t, ok)
		require.Equal(t, RejectionInvalidState, rejection.Kind)
	}

	require.Equal(t, 3, aggregate.GetVersion())
}

func TestAnalysisLifecycle(t *testing.T) {
	aggregate := NewAnalysisAggregate("run-1")

	require.NoError(t, aggregate.Request("proj-1", "security", "user-1"))
	require.NoError(t, aggregate.Start("worker-1", "scanner-v2"))
	require.NoError(t, aggregate.Complete(4, "four findings"))

	require.Equal(t, AnalysisStatusCompleted, aggregate.State.Status)
	require.Equal(t, 4, aggregate.State.FindingsCount)
}

func TestAnalysisNegativeFindingsRejected(t *testing.T) {
	aggregate := NewAnalysisAggregate("run-1")
	require.NoError(t, aggregate.Request("proj-1", "security", "user-1"))
	require.NoError(t, aggregate.Start("worker-1", ""))

	err := aggregate.Complete(-1, "")
	rejection, ok := AsRejection(err)
	require.True(t, ok)
	require.Equal(t, RejectionValidation, rejection.Kind)
	require.Equal(t, AnalysisStatusRunning, aggregate.State.Status)
}

func TestTemplateRepublishReplacesVersion(t *testing.T) {
	aggregate := NewTemplateAggregate("tmpl-1")
	require.NoError(t, aggregate.Register("go-service", "", "github.com/org/tmpl", "user-1"))
	require.NoError(t, aggregate.Publish("1.0.0", "abc", "user-1"))
	require.NoError(t, aggregate.Publish("1.1.0", "def", "user-1"))

	require.Equal(t, "1.1.0", aggregate.State.SemVer)
	require.Equal(t, TemplateStatusPublished, aggregate.State.Status)

	require.NoError(t, aggregate.Deprecate("superseded", "user-1"))
	err := aggregate.Publish("1.2.0", "ghi", "user-1")
	rejection, ok := AsRejection(err)
	require.True(t, ok)
	require.Equal(t, RejectionInvalidState, rejection.Kind)
}
