package projections

import (
	"context"
	"time"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/scaffold/services/platform/config"
	"example.com/scaffold/services/platform/domain"
	"example.com/scaffold/services/platform/eventstore"
	"example.com/scaffold/services/platform/models"
)

// TemplateProjector maintains the template read model
type TemplateProjector struct {
	db            *gorm.DB
	store         eventstore.EventStore
	elasticClient *elasticsearch.Client
	cfg           config.Config
}

// NewTemplateProjector creates a new template projector
func NewTemplateProjector(db *gorm.DB, store eventstore.EventStore, elasticClient *elasticsearch.Client, cfg config.Config) *TemplateProjector {
	return &TemplateProjector{
		db:            db,
		store:         store,
		elasticClient: elasticClient,
		cfg:           cfg,
	}
}

// Project folds an event into the template read model
func (p *TemplateProjector) Project(ctx context.Context, event domain.Event) error {
	var row models.Template
	err := p.db.WithContext(ctx).First(&row, "template_id = ?", event.AggregateID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(err, "failed to load template row")
	}
	exists := err == nil

	if exists && event.Version <= row.LastVersion {
		return nil
	}

	var lastVersion int
	if exists {
		lastVersion = row.LastVersion
	}
	if event.Version != lastVersion+1 {
		log.Warn().
			Str("templateID", event.AggregateID).
			Int("version", event.Version).
			Int("lastVersion", lastVersion).
			Msg("Gap in template stream, re-deriving read model")
		return p.Rederive(ctx, event.AggregateID)
	}

	switch data := event.Data.(type) {
	case domain.TemplateRegisteredEvent:
		row = models.Template{
			TemplateID:  event.AggregateID,
			Name:        data.Name,
			Description: data.Description,
			SourceRepo:  data.SourceRepo,
			OwnerID:     data.OwnerID,
			Status:      domain.TemplateStatusDraft,
			CreatedAt:   event.Timestamp,
		}
	case domain.TemplatePublishedEvent:
		row.SemVer = data.SemVer
		row.ContentHash = data.ContentHash
		row.Status = domain.TemplateStatusPublished
	case domain.TemplateDeprecatedEvent:
		row.Status = domain.TemplateStatusDeprecated
	default:
		return nil
	}

	row.LastVersion = event.Version
	row.UpdatedAt = event.Timestamp

	if err := p.save(ctx, row); err != nil {
		return err
	}

	indexDocument(ctx, p.elasticClient, FormatIndex(TemplatesIndex, p.cfg), row.TemplateID, row)
	return nil
}

// Rederive rebuilds a single template row from its event stream
func (p *TemplateProjector) Rederive(ctx context.Context, templateID string) error {
	aggregate := domain.NewTemplateAggregate(templateID)
	events, err := p.store.Read(ctx, templateID, 1)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	var createdAt, updatedAt time.Time
	for _, event := range events {
		if err := aggregate.Replay(event); err != nil {
			return err
		}
		if event.Version == 1 {
			createdAt = event.Timestamp
		}
		updatedAt = event.Timestamp
	}

	row := models.Template{
		TemplateID:  templateID,
		Name:        aggregate.State.Name,
		Description: aggregate.State.Description,
		SourceRepo:  aggregate.State.SourceRepo,
		OwnerID:     aggregate.State.OwnerID,
		SemVer:      aggregate.State.SemVer,
		ContentHash: aggregate.State.ContentHash,
		Status:      aggregate.State.Status,
		LastVersion: aggregate.GetVersion(),
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}

	if err := p.save(ctx, row); err != nil {
		return err
	}

	indexDocument(ctx, p.elasticClient, FormatIndex(TemplatesIndex, p.cfg), row.TemplateID, row)
	return nil
}

func (p *TemplateProjector) save(ctx context.Context, row models.Template) error {
	if err := p.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error; err != nil {
		return errors.Wrap(err, "failed to save template row")
	}
	return nil
}
