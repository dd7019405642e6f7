package domain

// Provisioning lifecycle states
const (
	ProvisioningStatusPending    = "Pending"
	ProvisioningStatusInProgress = "InProgress"
	ProvisioningStatusCompleted  = "Completed"
	ProvisioningStatusFailed     = "Failed"
)

// ProvisioningState represents the replayed state of a repository
// provisioning request
type ProvisioningState struct {
	ProjectID     string
	RepoName      string
	Provider      string
	Visibility    string
	RequestedBy   string
	WorkerID      string
	RepoURL       string
	DefaultBranch string
	FailureReason string
	Status        string
}

// ProvisioningAggregate tracks the provisioning of a source repository
// for a project
type ProvisioningAggregate struct {
	*AggregateBase
	State ProvisioningState
}

// NewProvisioningAggregate creates an unborn provisioning aggregate
// ready for replay
func NewProvisioningAggregate(id string) *ProvisioningAggregate {
	aggregate := &ProvisioningAggregate{}
	aggregate.AggregateBase = NewAggregateBase(id, ProvisioningAggregateType, aggregate.applyEvent)
	return aggregate
}

// Request records the provisioning request
func (a *ProvisioningAggregate) Request(projectID, repoName, provider, visibility, requestedBy string) error {
	if a.GetVersion() != 0 {
		return Reject(RejectionAlreadyExists, a.GetID(), "provisioning request already exists")
	}
	if projectID == "" {
		return Reject(RejectionValidation, a.GetID(), "project id is required")
	}
	if repoName == "" {
		return Reject(RejectionValidation, a.GetID(), "repository name is required")
	}

	return a.Record(ProvisioningRequestedEvent{
		ProjectID:   projectID,
		RepoName:    repoName,
		Provider:    provider,
		Visibility:  visibility,
		RequestedBy: requestedBy,
	})
}

// Start marks the request as picked up by a worker
func (a *ProvisioningAggregate) Start(workerID string) error {
	if a.GetVersion() == 0 {
		return Reject(RejectionNotFound, a.GetID(), "provisioning request does not exist")
	}
	if a.State.Status != ProvisioningStatusPending {
		return Reject(RejectionInvalidState, a.GetID(), "provisioning is not pending")
	}

	return a.Record(ProvisioningStartedEvent{WorkerID: workerID})
}

// Complete records the provisioned repository location
func (a *ProvisioningAggregate) Complete(repoURL, defaultBranch string) error {
	if a.GetVersion() == 0 {
		return Reject(RejectionNotFound, a.GetID(), "provisioning request does not exist")
	}
	if a.State.Status != ProvisioningStatusInProgress {
		return Reject(RejectionInvalidState, a.GetID(), "provisioning is not in progress")
	}
	if repoURL == "" {
		return Reject(RejectionValidation, a.GetID(), "repository url is required")
	}

	return a.Record(ProvisioningCompletedEvent{RepoURL: repoURL, DefaultBranch: defaultBranch})
}

// Fail records a terminal provisioning failure
func (a *ProvisioningAggregate) Fail(reason string) error {
	if a.GetVersion() == 0 {
		return Reject(RejectionNotFound, a.GetID(), "provisioning request does not exist")
	}
	if a.State.Status != ProvisioningStatusPending && a.State.Status != ProvisioningStatusInProgress {
		return Reject(RejectionInvalidState, a.GetID(), "provisioning is already settled")
	}

	return a.Record(ProvisioningFailedEvent{Reason: reason})
}

func (a *ProvisioningAggregate) applyEvent(event interface{}) error {
	switch e := event.(type) {
	case ProvisioningRequestedEvent:
		if a.State.Status != "" {
			return a.illegalTransition(ProvisioningRequested)
		}
		a.State.ProjectID = e.ProjectID
		a.State.RepoName = e.RepoName
		a.State.Provider = e.Provider
		a.State.Visibility = e.Visibility
		a.State.RequestedBy = e.RequestedBy
		a.State.Status = ProvisioningStatusPending

	case ProvisioningStartedEvent:
		if a.State.Status != ProvisioningStatusPending {
			return a.illegalTransition(ProvisioningStarted)
		}
		a.State.WorkerID = e.WorkerID
		a.State.Status = ProvisioningStatusInProgress

	case ProvisioningCompletedEvent:
		if a.State.Status != ProvisioningStatusInProgress {
			return a.illegalTransition(ProvisioningCompleted)
		}
		a.State.RepoURL = e.RepoURL
		a.State.DefaultBranch = e.DefaultBranch
		a.State.Status = ProvisioningStatusCompleted

	case ProvisioningFailedEvent:
		if a.State.Status != ProvisioningStatusPending && a.State.Status != ProvisioningStatusInProgress {
			return a.illegalTransition(ProvisioningFailed)
		}
		a.State.FailureReason = e.Reason
		a.State.Status = ProvisioningStatusFailed

	default:
		return a.illegalTransition(EventTypeOf(event))
	}

	return nil
}

func (a *ProvisioningAggregate) illegalTransition(eventType string) error {
	return &ReplayError{
		AggregateID: a.GetID(),
		EventType:   eventType,
		Version:     a.GetVersion() + 1,
		Reason:      "event is not legal in state " + stateName(a.State.Status),
	}
}
