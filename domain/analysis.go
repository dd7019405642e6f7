package domain

// Analysis run lifecycle states
const (
	AnalysisStatusRequested = "Requested"
	AnalysisStatusRunning   = "Running"
	AnalysisStatusCompleted = "Completed"
	AnalysisStatusFailed    = "Failed"
)

// AnalysisState represents the replayed state of a code analysis run
type AnalysisState struct {
	ProjectID     string
	AnalysisType  string
	RequestedBy   string
	WorkerID      string
	Model         string
	FindingsCount int
	Summary       string
	FailureReason string
	Status        string
}

// AnalysisAggregate tracks a single analysis run against a project
type AnalysisAggregate struct {
	*AggregateBase
	State AnalysisState
}

// NewAnalysisAggregate creates an unborn analysis aggregate ready for replay
func NewAnalysisAggregate(id string) *AnalysisAggregate {
	aggregate := &AnalysisAggregate{}
	aggregate.AggregateBase = NewAggregateBase(id, AnalysisAggregateType, aggregate.applyEvent)
	return aggregate
}

// Request records a new analysis run for a project
func (a *AnalysisAggregate) Request(projectID, analysisType, requestedBy string) error {
	if a.GetVersion() != 0 {
		return Reject(RejectionAlreadyExists, a.GetID(), "analysis run already exists")
	}
	if projectID == "" {
		return Reject(RejectionValidation, a.GetID(), "project id is required")
	}
	if analysisType == "" {
		return Reject(RejectionValidation, a.GetID(), "analysis type is required")
	}

	return a.Record(AnalysisRequestedEvent{
		ProjectID:    projectID,
		AnalysisType: analysisType,
		RequestedBy:  requestedBy,
	})
}

// Start marks the run as picked up by a worker
func (a *AnalysisAggregate) Start(workerID, model string) error {
	if a.GetVersion() == 0 {
		return Reject(RejectionNotFound, a.GetID(), "analysis run does not exist")
	}
	if a.State.Status != AnalysisStatusRequested {
		return Reject(RejectionInvalidState, a.GetID(), "analysis run is not in the requested state")
	}

	return a.Record(AnalysisStartedEvent{WorkerID: workerID, Model: model})
}

// Complete records the run's findings
func (a *AnalysisAggregate) Complete(findingsCount int, summary string) error {
	if a.GetVersion() == 0 {
		return Reject(RejectionNotFound, a.GetID(), "analysis run does not exist")
	}
	if a.State.Status != AnalysisStatusRunning {
		return Reject(RejectionInvalidState, a.GetID(), "analysis run is not running")
	}
	if findingsCount < 0 {
		return Reject(RejectionValidation, a.GetID(), "findings count cannot be negative")
	}

	return a.Record(AnalysisCompletedEvent{FindingsCount: findingsCount, Summary: summary})
}

// Fail records a terminal analysis failure
func (a *AnalysisAggregate) Fail(reason string) error {
	if a.GetVersion() == 0 {
		return Reject(RejectionNotFound, a.GetID(), "analysis run does not exist")
	}
	if a.State.Status != AnalysisStatusRequested && a.State.Status != AnalysisStatusRunning {
		return Reject(RejectionInvalidState, a.GetID(), "analysis run is already settled")
	}

	return a.Record(AnalysisFailedEvent{Reason: reason})
}

func (a *AnalysisAggregate) applyEvent(event interface{}) error {
	switch e := event.(type) {
	case AnalysisRequestedEvent:
		if a.State.Status != "" {
			return a.illegalTransition(AnalysisRequested)
		}
		a.State.ProjectID = e.ProjectID
		a.State.AnalysisType = e.AnalysisType
		a.State.RequestedBy = e.RequestedBy
		a.State.Status = AnalysisStatusRequested

	case AnalysisStartedEvent:
		if a.State.Status != AnalysisStatusRequested {
			return a.illegalTransition(AnalysisStarted)
		}
		a.State.WorkerID = e.WorkerID
		a.State.Model = e.Model
		a.State.Status = AnalysisStatusRunning

	case AnalysisCompletedEvent:
		if a.State.Status != AnalysisStatusRunning {
			return a.illegalTransition(AnalysisCompleted)
		}
		a.State.FindingsCount = e.FindingsCount
		a.State.Summary = e.Summary
		a.State.Status = AnalysisStatusCompleted

	case AnalysisFailedEvent:
		if a.State.Status != AnalysisStatusRequested && a.State.Status != AnalysisStatusRunning {
			return a.illegalTransition(AnalysisFailed)
		}
		a.State.FailureReason = e.Reason
		a.State.Status = AnalysisStatusFailed

	default:
		return a.illegalTransition(EventTypeOf(event))
	}

	return nil
}

func (a *AnalysisAggregate) illegalTransition(eventType string) error {
	return &ReplayError{
		AggregateID: a.GetID(),
		EventType:   eventType,
		Version:     a.GetVersion() + 1,
		Reason:      "event is not legal in state " + stateName(a.State.Status),
	}
}
