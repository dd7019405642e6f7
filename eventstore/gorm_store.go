package eventstore

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"example.com/scaffold/services/platform/domain"
	"example.com/scaffold/services/platform/models"
)

// GormEventStore implements EventStore using GORM
type GormEventStore struct {
	db *gorm.DB
}

// NewGormEventStore creates a new GORM event store
func NewGormEventStore(db *gorm.DB) *GormEventStore {
	return &GormEventStore{db: db}
}

// Append appends events to an aggregate's stream under optimistic
// concurrency. The version check runs inside the transaction, and the
// unique index on (aggregate_id, version) backs it up against writers
// racing between the check and the insert.
func (s *GormEventStore) Append(ctx context.Context, aggregateType, aggregateID string, expectedVersion int, events []domain.Event) (int, error) {
	if len(events) == 0 {
		return expectedVersion, nil
	}
	if aggregateID == "" {
		return 0, errors.New("aggregate ID is empty")
	}

	newVersion := expectedVersion
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current int
		if err := tx.Model(&models.Event{}).
			Where("aggregate_id = ?", aggregateID).
			Select("COALESCE(MAX(version), 0)").
			Scan(&current).Error; err != nil {
			return errors.Wrap(err, "failed to read current version")
		}

		if current != expectedVersion {
			return ErrConcurrencyConflict
		}

		for _, event := range events {
			newVersion++
			if event.Version != newVersion {
				return errors.Errorf("event version %d is not contiguous, expected %d", event.Version, newVersion)
			}

			data, err := json.Marshal(event.Data)
			if err != nil {
				return errors.Wrap(err, "failed to marshal event data")
			}

			dbEvent := models.Event{
				EventID:       event.ID,
				AggregateID:   aggregateID,
				AggregateType: aggregateType,
				Version:       event.Version,
				Type:          event.Type,
				Data:          data,
				CorrelationID: event.CorrelationID,
				CausationID:   event.CausationID,
				Timestamp:     event.Timestamp,
				Published:     false,
			}

			if err := tx.Create(&dbEvent).Error; err != nil {
				if isDuplicateKey(err) {
					return ErrConcurrencyConflict
				}
				return errors.Wrap(err, "failed to save event")
			}

			log.Info().
				Str("aggregateID", aggregateID).
				Str("eventType", event.Type).
				Int("version", event.Version).
				Msg("Event appended")
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return newVersion, nil
}

// Read returns an aggregate's events with version >= fromVersion, in
// ascending version order, with payloads decoded
func (s *GormEventStore) Read(ctx context.Context, aggregateID string, fromVersion int) ([]domain.Event, error) {
	if aggregateID == "" {
		return nil, errors.New("aggregate ID is empty")
	}

	var dbEvents []models.Event
	if err := s.db.WithContext(ctx).
		Where("aggregate_id = ? AND version >= ?", aggregateID, fromVersion).
		Order("version ASC").
		Find(&dbEvents).Error; err != nil {
		return nil, errors.Wrap(err, "failed to load events")
	}

	events := make([]domain.Event, 0, len(dbEvents))
	for _, dbEvent := range dbEvents {
		event, err := toDomainEvent(dbEvent)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, nil
}

// CurrentVersion returns the version of the last event in the stream
func (s *GormEventStore) CurrentVersion(ctx context.Context, aggregateID string) (int, error) {
	var current int
	if err := s.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("aggregate_id = ?", aggregateID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&current).Error; err != nil {
		return 0, errors.Wrap(err, "failed to read current version")
	}
	return current, nil
}

// UnpublishedEvents returns events not yet handed to the bus, oldest first
func (s *GormEventStore) UnpublishedEvents(ctx context.Context, limit int) ([]domain.Event, error) {
	var dbEvents []models.Event
	if err := s.db.WithContext(ctx).
		Where("published = ?", false).
		Order("id ASC").
		Limit(limit).
		Find(&dbEvents).Error; err != nil {
		return nil, errors.Wrap(err, "failed to load unpublished events")
	}

	events := make([]domain.Event, 0, len(dbEvents))
	for _, dbEvent := range dbEvents {
		event, err := toDomainEvent(dbEvent)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, nil
}

// MarkPublished records that an event was handed to the bus
func (s *GormEventStore) MarkPublished(ctx context.Context, eventID string) error {
	if err := s.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("event_id = ?", eventID).
		Updates(map[string]interface{}{
			"published":    true,
			"published_at": gorm.Expr("CURRENT_TIMESTAMP"),
			"error":        nil,
		}).Error; err != nil {
		return errors.Wrap(err, "failed to mark event as published")
	}
	return nil
}

// MarkPublishFailed records a delivery error against an event
func (s *GormEventStore) MarkPublishFailed(ctx context.Context, eventID string, reason string) error {
	if err := s.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("event_id = ?", eventID).
		Update("error", &reason).Error; err != nil {
		return errors.Wrap(err, "failed to record publish error")
	}
	return nil
}

func toDomainEvent(dbEvent models.Event) (domain.Event, error) {
	data, err := domain.DecodeEventData(dbEvent.Type, dbEvent.Data)
	if err != nil {
		return domain.Event{}, errors.Wrapf(err, "failed to decode event %s", dbEvent.EventID)
	}

	return domain.Event{
		ID:            dbEvent.EventID,
		AggregateID:   dbEvent.AggregateID,
		AggregateType: dbEvent.AggregateType,
		Type:          dbEvent.Type,
		Version:       dbEvent.Version,
		Timestamp:     dbEvent.Timestamp,
		CorrelationID: dbEvent.CorrelationID,
		CausationID:   dbEvent.CausationID,
		Data:          data,
	}, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}
