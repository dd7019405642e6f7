package projections

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/scaffold/services/platform/domain"
	"example.com/scaffold/services/platform/models"
)

const checkpointName = "read-models"

// EventProcessor sweeps the event log and feeds each event to the
// projectors. A checkpoint row records the last swept event so a
// restart resumes where it left off, and redelivered events are
// absorbed by the projectors' version checks.
type EventProcessor struct {
	db                    *gorm.DB
	projectProjector      *ProjectProjector
	templateProjector     *TemplateProjector
	provisioningProjector *ProvisioningProjector
	analysisProjector     *AnalysisProjector
	batchSize             int
	processingInterval    time.Duration
	running               bool
	mutex                 sync.Mutex
	stopChan              chan struct{}
}

// NewEventProcessor creates a new event processor
func NewEventProcessor(
	db *gorm.DB,
	projectProjector *ProjectProjector,
	templateProjector *TemplateProjector,
	provisioningProjector *ProvisioningProjector,
	analysisProjector *AnalysisProjector,
	batchSize int,
	interval time.Duration,
) *EventProcessor {
	if batchSize <= 0 {
		batchSize = 100
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &EventProcessor{
		db:                    db,
		projectProjector:      projectProjector,
		templateProjector:     templateProjector,
		provisioningProjector: provisioningProjector,
		analysisProjector:     analysisProjector,
		batchSize:             batchSize,
		processingInterval:    interval,
		stopChan:              make(chan struct{}),
	}
}

// Start starts the event processor
func (p *EventProcessor) Start() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.running {
		return
	}

	p.running = true
	go p.processEvents()
}

// Stop stops the event processor
func (p *EventProcessor) Stop() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.running {
		return
	}

	p.running = false
	p.stopChan <- struct{}{}
}

func (p *EventProcessor) processEvents() {
	ticker := time.NewTicker(p.processingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := p.ProcessBatch(context.Background()); err != nil {
				log.Error().Err(err).Msg("Failed to process event batch")
			}
		case <-p.stopChan:
			return
		}
	}
}

// ProcessBatch sweeps one batch of events past the checkpoint
func (p *EventProcessor) ProcessBatch(ctx context.Context) error {
	checkpoint, err := p.loadCheckpoint(ctx)
	if err != nil {
		return err
	}

	var events []models.Event
	if err := p.db.WithContext(ctx).
		Where("id > ?", checkpoint.LastEventID).
		Order("id ASC").
		Limit(p.batchSize).
		Find(&events).Error; err != nil {
		return errors.Wrap(err, "failed to load events past checkpoint")
	}

	if len(events) == 0 {
		return nil
	}

	log.Info().Msgf("Projecting %d events", len(events))

	for _, event := range events {
		if err := p.processEvent(ctx, event); err != nil {
			log.Error().Err(err).Str("event_id", event.EventID).Msg("Failed to project event")
			return err
		}

		checkpoint.LastEventID = event.ID
		checkpoint.UpdatedAt = time.Now().UTC()
		if err := p.saveCheckpoint(ctx, checkpoint); err != nil {
			return err
		}
	}

	return nil
}

// Rebuild drops all read models and replays the entire event log
// through the projectors from the beginning
func (p *EventProcessor) Rebuild(ctx context.Context) error {
	log.Info().Msg("Rebuilding read models from the event log")

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tables := []interface{}{
			&models.Project{},
			&models.OrgSummary{},
			&models.Template{},
			&models.Provisioning{},
			&models.AnalysisRun{},
		}
		for _, table := range tables {
			if err := tx.Where("1 = 1").Delete(table).Error; err != nil {
				return errors.Wrap(err, "failed to clear read model table")
			}
		}

		checkpoint := models.ProjectionCheckpoint{
			Name:        checkpointName,
			LastEventID: 0,
			UpdatedAt:   time.Now().UTC(),
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&checkpoint).Error
	})
	if err != nil {
		return err
	}

	for {
		checkpoint, err := p.loadCheckpoint(ctx)
		if err != nil {
			return err
		}
		before := checkpoint.LastEventID

		if err := p.ProcessBatch(ctx); err != nil {
			return err
		}

		checkpoint, err = p.loadCheckpoint(ctx)
		if err != nil {
			return err
		}
		if checkpoint.LastEventID == before {
			return nil
		}
	}
}

func (p *EventProcessor) processEvent(ctx context.Context, event models.Event) error {
	data, err := domain.DecodeEventData(event.Type, event.Data)
	if err != nil {
		return err
	}

	domainEvent := domain.Event{
		ID:            event.EventID,
		AggregateID:   event.AggregateID,
		AggregateType: event.AggregateType,
		Type:          event.Type,
		Version:       event.Version,
		Timestamp:     event.Timestamp,
		CorrelationID: event.CorrelationID,
		CausationID:   event.CausationID,
		Data:          data,
	}

	switch event.AggregateType {
	case domain.ProjectAggregateType:
		return p.projectProjector.Project(ctx, domainEvent)
	case domain.TemplateAggregateType:
		return p.templateProjector.Project(ctx, domainEvent)
	case domain.ProvisioningAggregateType:
		return p.provisioningProjector.Project(ctx, domainEvent)
	case domain.AnalysisAggregateType:
		return p.analysisProjector.Project(ctx, domainEvent)
	default:
		log.Warn().Str("aggregate_type", event.AggregateType).Msg("Unknown aggregate type")
		return nil
	}
}

func (p *EventProcessor) loadCheckpoint(ctx context.Context) (models.ProjectionCheckpoint, error) {
	var checkpoint models.ProjectionCheckpoint
	err := p.db.WithContext(ctx).First(&checkpoint, "name = ?", checkpointName).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ProjectionCheckpoint{Name: checkpointName}, nil
	}
	if err != nil {
		return checkpoint, errors.Wrap(err, "failed to load projection checkpoint")
	}
	return checkpoint, nil
}

func (p *EventProcessor) saveCheckpoint(ctx context.Context, checkpoint models.ProjectionCheckpoint) error {
	if err := p.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&checkpoint).Error; err != nil {
		return errors.Wrap(err, "failed to save projection checkpoint")
	}
	return nil
}
