package domain

// Template lifecycle states
const (
	TemplateStatusDraft      = "Draft"
	TemplateStatusPublished  = "Published"
	TemplateStatusDeprecated = "Deprecated"
)

// TemplateState represents the replayed state of a scaffolding template
type TemplateState struct {
	Name        string
	Description string
	SourceRepo  string
	OwnerID     string
	SemVer      string
	ContentHash string
	Status      string
}

// TemplateAggregate is the aggregate for a scaffolding template
type TemplateAggregate struct {
	*AggregateBase
	State TemplateState
}

// NewTemplateAggregate creates an unborn template aggregate ready for replay
func NewTemplateAggregate(id string) *TemplateAggregate {
	aggregate := &TemplateAggregate{}
	aggregate.AggregateBase = NewAggregateBase(id, TemplateAggregateType, aggregate.applyEvent)
	return aggregate
}

// Register records the template's first event
func (a *TemplateAggregate) Register(name, description, sourceRepo, ownerID string) error {
	if a.GetVersion() != 0 {
		return Reject(RejectionAlreadyExists, a.GetID(), "template already exists")
	}
	if name == "" {
		return Reject(RejectionValidation, a.GetID(), "template name is required")
	}
	if sourceRepo == "" {
		return Reject(RejectionValidation, a.GetID(), "template source repository is required")
	}

	return a.Record(TemplateRegisteredEvent{
		Name:        name,
		Description: description,
		SourceRepo:  sourceRepo,
		OwnerID:     ownerID,
	})
}

// Publish pins a draft template to a released version. Re-publishing an
// already published template is allowed and replaces the pinned version.
func (a *TemplateAggregate) Publish(semVer, contentHash, publishedBy string) error {
	if a.GetVersion() == 0 {
		return Reject(RejectionNotFound, a.GetID(), "template does not exist")
	}
	if a.State.Status == TemplateStatusDeprecated {
		return Reject(RejectionInvalidState, a.GetID(), "cannot publish a deprecated template")
	}
	if semVer == "" {
		return Reject(RejectionValidation, a.GetID(), "template version is required")
	}

	return a.Record(TemplatePublishedEvent{
		SemVer:      semVer,
		ContentHash: contentHash,
		PublishedBy: publishedBy,
	})
}

// Deprecate retires a template from further use
func (a *TemplateAggregate) Deprecate(reason, deprecatedBy string) error {
	if a.GetVersion() == 0 {
		return Reject(RejectionNotFound, a.GetID(), "template does not exist")
	}
	if a.State.Status == TemplateStatusDeprecated {
		return Reject(RejectionInvalidState, a.GetID(), "template is already deprecated")
	}

	return a.Record(TemplateDeprecatedEvent{Reason: reason, DeprecatedBy: deprecatedBy})
}

func (a *TemplateAggregate) applyEvent(event interface{}) error {
	switch e := event.(type) {
	case TemplateRegisteredEvent:
		if a.State.Status != "" {
			return a.illegalTransition(TemplateRegistered)
		}
		a.State.Name = e.Name
		a.State.Description = e.Description
		a.State.SourceRepo = e.SourceRepo
		a.State.OwnerID = e.OwnerID
		a.State.Status = TemplateStatusDraft

	case TemplatePublishedEvent:
		if a.State.Status != TemplateStatusDraft && a.State.Status != TemplateStatusPublished {
			return a.illegalTransition(TemplatePublished)
		}
		a.State.SemVer = e.SemVer
		a.State.ContentHash = e.ContentHash
		a.State.Status = TemplateStatusPublished

	case TemplateDeprecatedEvent:
		if a.State.Status != TemplateStatusDraft && a.State.Status != TemplateStatusPublished {
			return a.illegalTransition(TemplateDeprecated)
		}
		a.State.Status = TemplateStatusDeprecated

	default:
		return a.illegalTransition(EventTypeOf(event))
	}

	return nil
}

func (a *TemplateAggregate) illegalTransition(eventType string) error {
	return &ReplayError{
		AggregateID: a.GetID(),
		EventType:   eventType,
		Version:     a.GetVersion() + 1,
		Reason:      "event is not legal in state " + stateName(a.State.Status),
	}
}
