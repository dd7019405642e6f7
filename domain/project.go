package domain

// Project lifecycle states
const (
	ProjectStatusActive   = "Active"
	ProjectStatusArchived = "Archived"
)

// ProjectState represents the replayed state of a project
type ProjectState struct {
	Name           string
	Description    string
	OwnerID        string
	OrganizationID string
	TemplateID     string
	Status         string
}

// ProjectAggregate is the aggregate for a scaffolded project
type ProjectAggregate struct {
	*AggregateBase
	State ProjectState
}

// NewProjectAggregate creates an unborn project aggregate ready for replay
func NewProjectAggregate(id string) *ProjectAggregate {
	aggregate := &ProjectAggregate{}
	aggregate.AggregateBase = NewAggregateBase(id, ProjectAggregateType, aggregate.applyEvent)
	return aggregate
}

// Create records the project's first event. Rejected if the project
// already exists or required fields are missing.
func (a *ProjectAggregate) Create(name, description, ownerID, organizationID, templateID string) error {
	if a.GetVersion() != 0 {
		return Reject(RejectionAlreadyExists, a.GetID(), "project already exists")
	}
	if name == "" {
		return Reject(RejectionValidation, a.GetID(), "project name is required")
	}
	if ownerID == "" {
		return Reject(RejectionValidation, a.GetID(), "project owner is required")
	}

	return a.Record(ProjectCreatedEvent{
		Name:           name,
		Description:    description,
		OwnerID:        ownerID,
		OrganizationID: organizationID,
		TemplateID:     templateID,
	})
}

// Update changes project metadata
func (a *ProjectAggregate) Update(name, description string) error {
	if a.GetVersion() == 0 {
		return Reject(RejectionNotFound, a.GetID(), "project does not exist")
	}
	if a.State.Status == ProjectStatusArchived {
		return Reject(RejectionInvalidState, a.GetID(), "cannot update an archived project")
	}
	if name == "" {
		return Reject(RejectionValidation, a.GetID(), "project name is required")
	}

	return a.Record(ProjectUpdatedEvent{Name: name, Description: description})
}

// Archive moves an active project to the archived state
func (a *ProjectAggregate) Archive(archivedBy, reason string) error {
	if a.GetVersion() == 0 {
		return Reject(RejectionNotFound, a.GetID(), "project does not exist")
	}
	if a.State.Status != ProjectStatusActive {
		return Reject(RejectionInvalidState, a.GetID(), "project is not active")
	}

	return a.Record(ProjectArchivedEvent{ArchivedBy: archivedBy, Reason: reason})
}

// Restore brings an archived project back to active
func (a *ProjectAggregate) Restore(restoredBy string) error {
	if a.GetVersion() == 0 {
		return Reject(RejectionNotFound, a.GetID(), "project does not exist")
	}
	if a.State.Status != ProjectStatusArchived {
		return Reject(RejectionInvalidState, a.GetID(), "project is not archived")
	}

	return a.Record(ProjectRestoredEvent{RestoredBy: restoredBy})
}

func (a *ProjectAggregate) applyEvent(event interface{}) error {
	switch e := event.(type) {
	case ProjectCreatedEvent:
		if a.State.Status != "" {
			return a.illegalTransition(ProjectCreated)
		}
		a.State.Name = e.Name
		a.State.Description = e.Description
		a.State.OwnerID = e.OwnerID
		a.State.OrganizationID = e.OrganizationID
		a.State.TemplateID = e.TemplateID
		a.State.Status = ProjectStatusActive

	case ProjectUpdatedEvent:
		if a.State.Status != ProjectStatusActive {
			return a.illegalTransition(ProjectUpdated)
		}
		a.State.Name = e.Name
		a.State.Description = e.Description

	case ProjectArchivedEvent:
		if a.State.Status != ProjectStatusActive {
			return a.illegalTransition(ProjectArchived)
		}
		a.State.Status = ProjectStatusArchived

	case ProjectRestoredEvent:
		if a.State.Status != ProjectStatusArchived {
			return a.illegalTransition(ProjectRestored)
		}
		a.State.Status = ProjectStatusActive

	default:
		return a.illegalTransition(EventTypeOf(event))
	}

	return nil
}

func (a *ProjectAggregate) illegalTransition(eventType string) error {
	return &ReplayError{
		AggregateID: a.GetID(),
		EventType:   eventType,
		Version:     a.GetVersion() + 1,
		Reason:      "event is not legal in state " + stateName(a.State.Status),
	}
}

func stateName(s string) string {
	if s == "" {
		return "unborn"
	}
	return s
}
