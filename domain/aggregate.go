package domain

import (
	"time"

	"github.com/google/uuid"
)

// Aggregate is the interface for all aggregates
type Aggregate interface {
	GetID() string
	GetType() string
	GetVersion() int
	Uncommitted() []Event
	ClearUncommitted()
	Replay(event Event) error
}

// AggregateBase provides common aggregate functionality. State is derived
// purely by folding events: Replay applies history, Record captures new
// events produced by command methods. Nothing else mutates state.
type AggregateBase struct {
	id            string
	aggregateType string
	version       int
	uncommitted   []Event
	correlationID string
	causationID   string
	applier       func(event interface{}) error
}

// NewAggregateBase creates a new aggregate base
func NewAggregateBase(id, aggregateType string, applier func(interface{}) error) *AggregateBase {
	return &AggregateBase{
		id:            id,
		aggregateType: aggregateType,
		version:       0,
		uncommitted:   []Event{},
		applier:       applier,
	}
}

// GetID returns the aggregate ID
func (a *AggregateBase) GetID() string {
	return a.id
}

// GetType returns the aggregate type
func (a *AggregateBase) GetType() string {
	return a.aggregateType
}

// GetVersion returns the version of the last applied event; 0 means the
// aggregate has no history yet
func (a *AggregateBase) GetVersion() int {
	return a.version
}

// Uncommitted returns events recorded since the last save or load
func (a *AggregateBase) Uncommitted() []Event {
	return a.uncommitted
}

// ClearUncommitted clears the uncommitted events
func (a *AggregateBase) ClearUncommitted() {
	a.uncommitted = []Event{}
}

// SetCorrelation attaches request-tracing identifiers to events recorded
// by subsequent command methods
func (a *AggregateBase) SetCorrelation(correlationID, causationID string) {
	a.correlationID = correlationID
	a.causationID = causationID
}

// Record applies a new event payload to the aggregate state and queues it
// for persistence. Command methods must only call Record with events legal
// from the current state; an applier error here is a programming error,
// not a rejection.
func (a *AggregateBase) Record(payload interface{}) error {
	eventType := EventTypeOf(payload)
	if eventType == "" {
		return &ReplayError{
			AggregateID: a.id,
			Version:     a.version + 1,
			Reason:      "event payload has no registered type",
		}
	}

	if err := a.applier(payload); err != nil {
		return err
	}

	a.version++
	a.uncommitted = append(a.uncommitted, Event{
		ID:            uuid.New().String(),
		AggregateID:   a.id,
		AggregateType: a.aggregateType,
		Type:          eventType,
		Version:       a.version,
		Timestamp:     time.Now().UTC(),
		CorrelationID: a.correlationID,
		CausationID:   a.causationID,
		Data:          payload,
	})

	return nil
}

// Replay applies a stored event during rehydration. The applier must be a
// pure function of (state, payload): no clock reads, no randomness, no
// side effects, so that replay is deterministic.
func (a *AggregateBase) Replay(event Event) error {
	if event.Version != a.version+1 {
		return &ReplayError{
			AggregateID: a.id,
			EventType:   event.Type,
			Version:     event.Version,
			Reason:      "event version is not contiguous with replayed state",
		}
	}

	if err := a.applier(event.Data); err != nil {
		return err
	}

	a.version = event.Version
	return nil
}
