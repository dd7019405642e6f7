package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Aggregate type names
const (
	ProjectAggregateType      = "project"
	TemplateAggregateType     = "template"
	ProvisioningAggregateType = "provisioning"
	AnalysisAggregateType     = "analysis"
)

// EventType constants
const (
	// Project events
	ProjectCreated  = "V1_PROJECT_CREATED"
	ProjectUpdated  = "V1_PROJECT_UPDATED"
	ProjectArchived = "V1_PROJECT_ARCHIVED"
	ProjectRestored = "V1_PROJECT_RESTORED"

	// Template events
	TemplateRegistered = "V1_TEMPLATE_REGISTERED"
	TemplatePublished  = "V1_TEMPLATE_PUBLISHED"
	TemplateDeprecated = "V1_TEMPLATE_DEPRECATED"

	// Provisioning events
	ProvisioningRequested = "V1_PROVISIONING_REQUESTED"
	ProvisioningStarted   = "V1_PROVISIONING_STARTED"
	ProvisioningCompleted = "V1_PROVISIONING_COMPLETED"
	ProvisioningFailed    = "V1_PROVISIONING_FAILED"

	// Analysis events
	AnalysisRequested = "V1_ANALYSIS_REQUESTED"
	AnalysisStarted   = "V1_ANALYSIS_STARTED"
	AnalysisCompleted = "V1_ANALYSIS_COMPLETED"
	AnalysisFailed    = "V1_ANALYSIS_FAILED"
)

// Event represents a domain event. Version is unique and gapless per
// aggregate, starting at 1; committed events are never mutated.
type Event struct {
	ID            string      `json:"id"`
	AggregateID   string      `json:"aggregate_id"`
	AggregateType string      `json:"aggregate_type"`
	Type          string      `json:"type"`
	Version       int         `json:"version"`
	Timestamp     time.Time   `json:"timestamp"`
	CorrelationID string      `json:"correlation_id"`
	CausationID   string      `json:"causation_id"`
	Data          interface{} `json:"data"`
}

// Project events

// ProjectCreatedEvent records the creation of a scaffolded project
type ProjectCreatedEvent struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	OwnerID        string `json:"owner_id"`
	OrganizationID string `json:"organization_id"`
	TemplateID     string `json:"template_id"`
}

// ProjectUpdatedEvent records a change to project metadata
type ProjectUpdatedEvent struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ProjectArchivedEvent records a project being archived
type ProjectArchivedEvent struct {
	ArchivedBy string `json:"archived_by"`
	Reason     string `json:"reason"`
}

// ProjectRestoredEvent records an archived project being restored
type ProjectRestoredEvent struct {
	RestoredBy string `json:"restored_by"`
}

// Template events

// TemplateRegisteredEvent records a new scaffolding template draft
type TemplateRegisteredEvent struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SourceRepo  string `json:"source_repo"`
	OwnerID     string `json:"owner_id"`
}

// TemplatePublishedEvent records a template version becoming available
type TemplatePublishedEvent struct {
	SemVer      string `json:"sem_ver"`
	ContentHash string `json:"content_hash"`
	PublishedBy string `json:"published_by"`
}

// TemplateDeprecatedEvent records a template being retired
type TemplateDeprecatedEvent struct {
	Reason       string `json:"reason"`
	DeprecatedBy string `json:"deprecated_by"`
}

// Provisioning events

// ProvisioningRequestedEvent records a repository-provisioning request
type ProvisioningRequestedEvent struct {
	ProjectID   string `json:"project_id"`
	RepoName    string `json:"repo_name"`
	Provider    string `json:"provider"`
	Visibility  string `json:"visibility"`
	RequestedBy string `json:"requested_by"`
}

// ProvisioningStartedEvent records a worker picking up the request
type ProvisioningStartedEvent struct {
	WorkerID string `json:"worker_id"`
}

// ProvisioningCompletedEvent records the provisioned repository
type ProvisioningCompletedEvent struct {
	RepoURL       string `json:"repo_url"`
	DefaultBranch string `json:"default_branch"`
}

// ProvisioningFailedEvent records a provisioning failure
type ProvisioningFailedEvent struct {
	Reason string `json:"reason"`
}

// Analysis events

// AnalysisRequestedEvent records a requested AI analysis run
type AnalysisRequestedEvent struct {
	ProjectID    string `json:"project_id"`
	AnalysisType string `json:"analysis_type"`
	RequestedBy  string `json:"requested_by"`
}

// AnalysisStartedEvent records an analysis run starting
type AnalysisStartedEvent struct {
	WorkerID string `json:"worker_id"`
	Model    string `json:"model"`
}

// AnalysisCompletedEvent records analysis results
type AnalysisCompletedEvent struct {
	FindingsCount int    `json:"findings_count"`
	Summary       string `json:"summary"`
}

// AnalysisFailedEvent records an analysis failure
type AnalysisFailedEvent struct {
	Reason string `json:"reason"`
}

// EventTypeOf returns the event type name for a payload struct, or an
// empty string for an unknown payload
func EventTypeOf(payload interface{}) string {
	switch payload.(type) {
	case ProjectCreatedEvent:
		return ProjectCreated
	case ProjectUpdatedEvent:
		return ProjectUpdated
	case ProjectArchivedEvent:
		return ProjectArchived
	case ProjectRestoredEvent:
		return ProjectRestored
	case TemplateRegisteredEvent:
		return TemplateRegistered
	case TemplatePublishedEvent:
		return TemplatePublished
	case TemplateDeprecatedEvent:
		return TemplateDeprecated
	case ProvisioningRequestedEvent:
		return ProvisioningRequested
	case ProvisioningStartedEvent:
		return ProvisioningStarted
	case ProvisioningCompletedEvent:
		return ProvisioningCompleted
	case ProvisioningFailedEvent:
		return ProvisioningFailed
	case AnalysisRequestedEvent:
		return AnalysisRequested
	case AnalysisStartedEvent:
		return AnalysisStarted
	case AnalysisCompletedEvent:
		return AnalysisCompleted
	case AnalysisFailedEvent:
		return AnalysisFailed
	default:
		return ""
	}
}

// DecodeEventData unmarshals a stored payload into its typed struct
func DecodeEventData(eventType string, data []byte) (interface{}, error) {
	var target interface{}

	switch eventType {
	case ProjectCreated:
		target = &ProjectCreatedEvent{}
	case ProjectUpdated:
		target = &ProjectUpdatedEvent{}
	case ProjectArchived:
		target = &ProjectArchivedEvent{}
	case ProjectRestored:
		target = &ProjectRestoredEvent{}
	case TemplateRegistered:
		target = &TemplateRegisteredEvent{}
	case TemplatePublished:
		target = &TemplatePublishedEvent{}
	case TemplateDeprecated:
		target = &TemplateDeprecatedEvent{}
	case ProvisioningRequested:
		target = &ProvisioningRequestedEvent{}
	case ProvisioningStarted:
		target = &ProvisioningStartedEvent{}
	case ProvisioningCompleted:
		target = &ProvisioningCompletedEvent{}
	case ProvisioningFailed:
		target = &ProvisioningFailedEvent{}
	case AnalysisRequested:
		target = &AnalysisRequestedEvent{}
	case AnalysisStarted:
		target = &AnalysisStartedEvent{}
	case AnalysisCompleted:
		target = &AnalysisCompletedEvent{}
	case AnalysisFailed:
		target = &AnalysisFailedEvent{}
	default:
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s payload: %w", eventType, err)
	}

	// Return the value, not the pointer, so appliers can switch on concrete types
	switch v := target.(type) {
	case *ProjectCreatedEvent:
		return *v, nil
	case *ProjectUpdatedEvent:
		return *v, nil
	case *ProjectArchivedEvent:
		return *v, nil
	case *ProjectRestoredEvent:
		return *v, nil
	case *TemplateRegisteredEvent:
		return *v, nil
	case *TemplatePublishedEvent:
		return *v, nil
	case *TemplateDeprecatedEvent:
		return *v, nil
	case *ProvisioningRequestedEvent:
		return *v, nil
	case *ProvisioningStartedEvent:
		return *v, nil
	case *ProvisioningCompletedEvent:
		return *v, nil
	case *ProvisioningFailedEvent:
		return *v, nil
	case *AnalysisRequestedEvent:
		return *v, nil
	case *AnalysisStartedEvent:
		return *v, nil
	case *AnalysisCompletedEvent:
		return *v, nil
	case *AnalysisFailedEvent:
		return *v, nil
	default:
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}
}
