package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/scaffold/services/platform/domain"
	"example.com/scaffold/services/platform/eventstore"
)

// EventMessage is the wire envelope for published domain events
type EventMessage struct {
	EventID       string      `json:"event_id"`
	AggregateID   string      `json:"aggregate_id"`
	AggregateType string      `json:"aggregate_type"`
	EventType     string      `json:"event_type"`
	Version       int         `json:"version"`
	Timestamp     time.Time   `json:"timestamp"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	CausationID   string      `json:"causation_id,omitempty"`
	Data          interface{} `json:"data"`
}

// Sender hands a serialized event to the bus
type Sender interface {
	Send(ctx context.Context, messageID string, body []byte) error
}

// Publisher relays stored events to the bus. Events are flagged in the
// store once handed over, so delivery is at least once and a crash
// between send and flag causes a redelivery, never a loss.
type Publisher struct {
	store     eventstore.EventStore
	sender    Sender
	batchSize int
}

// NewPublisher creates a new outbox publisher
func NewPublisher(store eventstore.EventStore, sender Sender, batchSize int) *Publisher {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Publisher{
		store:     store,
		sender:    sender,
		batchSize: batchSize,
	}
}

// PublishBatch sends one batch of unpublished events in store order.
// It stops at the first failure to keep each aggregate's events
// arriving in version order.
func (p *Publisher) PublishBatch(ctx context.Context) (int, error) {
	events, err := p.store.UnpublishedEvents(ctx, p.batchSize)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, event := range events {
		if err := p.publishEvent(ctx, event); err != nil {
			log.Error().Err(err).Str("event_id", event.ID).Msg("Failed to publish event")
			if markErr := p.store.MarkPublishFailed(ctx, event.ID, err.Error()); markErr != nil {
				log.Error().Err(markErr).Str("event_id", event.ID).Msg("Failed to record publish error")
			}
			return published, err
		}

		if err := p.store.MarkPublished(ctx, event.ID); err != nil {
			return published, err
		}
		published++
	}

	return published, nil
}

func (p *Publisher) publishEvent(ctx context.Context, event domain.Event) error {
	msg := EventMessage{
		EventID:       event.ID,
		AggregateID:   event.AggregateID,
		AggregateType: event.AggregateType,
		EventType:     event.Type,
		Version:       event.Version,
		Timestamp:     event.Timestamp,
		CorrelationID: event.CorrelationID,
		CausationID:   event.CausationID,
		Data:          event.Data,
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event message")
	}

	if err := p.sender.Send(ctx, event.ID, body); err != nil {
		return err
	}

	log.Info().
		Str("event_id", event.ID).
		Str("aggregateID", event.AggregateID).
		Str("eventType", event.Type).
		Int("version", event.Version).
		Msg("Event published")
	return nil
}
