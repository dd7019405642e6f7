package eventstore

import (
	"context"
	"sync"

	"example.com/scaffold/services/platform/domain"
)

// MemoryEventStore is an in-memory EventStore used by tests and local
// runs without a database
type MemoryEventStore struct {
	mutex     sync.Mutex
	streams   map[string][]domain.Event
	order     []string
	published map[string]bool
	failures  map[string]string
}

// NewMemoryEventStore creates an empty in-memory event store
func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{
		streams:   make(map[string][]domain.Event),
		published: make(map[string]bool),
		failures:  make(map[string]string),
	}
}

// Append appends events to an aggregate's stream under optimistic concurrency
func (s *MemoryEventStore) Append(_ context.Context, _, aggregateID string, expectedVersion int, events []domain.Event) (int, error) {
	if len(events) == 0 {
		return expectedVersion, nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	stream := s.streams[aggregateID]
	if len(stream) != expectedVersion {
		return 0, ErrConcurrencyConflict
	}

	for _, event := range events {
		s.streams[aggregateID] = append(s.streams[aggregateID], event)
		s.order = append(s.order, event.ID)
	}

	return len(s.streams[aggregateID]), nil
}

// Read returns an aggregate's events with version >= fromVersion
func (s *MemoryEventStore) Read(_ context.Context, aggregateID string, fromVersion int) ([]domain.Event, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	events := make([]domain.Event, 0)
	for _, event := range s.streams[aggregateID] {
		if event.Version >= fromVersion {
			events = append(events, event)
		}
	}

	return events, nil
}

// CurrentVersion returns the version of the last event in the stream
func (s *MemoryEventStore) CurrentVersion(_ context.Context, aggregateID string) (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return len(s.streams[aggregateID]), nil
}

// UnpublishedEvents returns events not yet handed to the bus, in append order
func (s *MemoryEventStore) UnpublishedEvents(_ context.Context, limit int) ([]domain.Event, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	byID := make(map[string]domain.Event)
	for _, stream := range s.streams {
		for _, event := range stream {
			byID[event.ID] = event
		}
	}

	events := make([]domain.Event, 0)
	for _, id := range s.order {
		if s.published[id] {
			continue
		}
		events = append(events, byID[id])
		if len(events) == limit {
			break
		}
	}

	return events, nil
}

// MarkPublished records that an event was handed to the bus
func (s *MemoryEventStore) MarkPublished(_ context.Context, eventID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.published[eventID] = true
	delete(s.failures, eventID)
	return nil
}

// MarkPublishFailed records a delivery error against an event
func (s *MemoryEventStore) MarkPublishFailed(_ context.Context, eventID string, reason string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.failures[eventID] = reason
	return nil
}
