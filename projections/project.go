package projections

import (
	"context"
	"time"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/scaffold/services/platform/cache"
	"example.com/scaffold/services/platform/config"
	"example.com/scaffold/services/platform/domain"
	"example.com/scaffold/services/platform/eventstore"
	"example.com/scaffold/services/platform/models"
)

// ProjectProjector maintains the project read models
type ProjectProjector struct {
	db            *gorm.DB
	store         eventstore.EventStore
	elasticClient *elasticsearch.Client
	cache         cache.CacheClient
	cfg           config.Config
}

// NewProjectProjector creates a new project projector
func NewProjectProjector(db *gorm.DB, store eventstore.EventStore, elasticClient *elasticsearch.Client, cacheClient cache.CacheClient, cfg config.Config) *ProjectProjector {
	return &ProjectProjector{
		db:            db,
		store:         store,
		elasticClient: elasticClient,
		cache:         cacheClient,
		cfg:           cfg,
	}
}

// Project folds an event into the project read model. Events at or
// below the row's last version are redeliveries and are skipped. An
// event more than one ahead means earlier events were missed, in which
// case the row is re-derived from the event stream.
func (p *ProjectProjector) Project(ctx context.Context, event domain.Event) error {
	var row models.Project
	err := p.db.WithContext(ctx).First(&row, "project_id = ?", event.AggregateID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(err, "failed to load project row")
	}
	exists := err == nil

	if exists && event.Version <= row.LastVersion {
		log.Debug().
			Str("projectID", event.AggregateID).
			Int("version", event.Version).
			Int("lastVersion", row.LastVersion).
			Msg("Skipping already applied project event")
		return nil
	}

	var lastVersion int
	if exists {
		lastVersion = row.LastVersion
	}
	if event.Version != lastVersion+1 {
		log.Warn().
			Str("projectID", event.AggregateID).
			Int("version", event.Version).
			Int("lastVersion", lastVersion).
			Msg("Gap in project stream, re-deriving read model")
		return p.Rederive(ctx, event.AggregateID)
	}

	switch data := event.Data.(type) {
	case domain.ProjectCreatedEvent:
		row = models.Project{
			ProjectID:      event.AggregateID,
			Name:           data.Name,
			Description:    data.Description,
			OwnerID:        data.OwnerID,
			OrganizationID: data.OrganizationID,
			TemplateID:     data.TemplateID,
			Status:         domain.ProjectStatusActive,
			CreatedAt:      event.Timestamp,
		}
	case domain.ProjectUpdatedEvent:
		row.Name = data.Name
		row.Description = data.Description
	case domain.ProjectArchivedEvent:
		row.Status = domain.ProjectStatusArchived
	case domain.ProjectRestoredEvent:
		row.Status = domain.ProjectStatusActive
	default:
		return nil
	}

	row.LastVersion = event.Version
	row.UpdatedAt = event.Timestamp

	if err := p.save(ctx, row); err != nil {
		return err
	}

	indexDocument(ctx, p.elasticClient, FormatIndex(ProjectsIndex, p.cfg), row.ProjectID, row)
	indexDocument(ctx, p.elasticClient, FormatIndex(ProjectEventsIndex, p.cfg), event.ID, event)
	p.evict(ctx, row.ProjectID)
	return p.updateOrgSummary(ctx, row.OrganizationID)
}

// Rederive rebuilds a single project row from its event stream
func (p *ProjectProjector) Rederive(ctx context.Context, projectID string) error {
	aggregate := domain.NewProjectAggregate(projectID)
	events, err := p.store.Read(ctx, projectID, 1)
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
		indexDocument(ctx, p.elasticClient, FormatIndex(ProjectEventsIndex, p.cfg), event.ID, event)
	}

	row := models.Project{
		ProjectID:      projectID,
		Name:           aggregate.State.Name,
		Description:    aggregate.State.Description,
		OwnerID:        aggregate.State.OwnerID,
		OrganizationID: aggregate.State.OrganizationID,
		TemplateID:     aggregate.State.TemplateID,
		Status:         aggregate.State.Status,
		LastVersion:    aggregate.GetVersion(),
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}

	if err := p.save(ctx, row); err != nil {
		return err
	}

	indexDocument(ctx, p.elasticClient, FormatIndex(ProjectsIndex, p.cfg), row.ProjectID, row)
	p.evict(ctx, row.ProjectID)
	return p.updateOrgSummary(ctx, row.OrganizationID)
}

// evict drops the cached row so the next query reads the updated model
func (p *ProjectProjector) evict(ctx context.Context, projectID string) {
	if p.cache == nil {
		return
	}
	if err := p.cache.DeleteProject(ctx, projectID); err != nil {
		log.Warn().Err(err).Str("projectID", projectID).Msg("Failed to evict project from cache")
	}
}

func (p *ProjectProjector) save(ctx context.Context, row models.Project) error {
	if err := p.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error; err != nil {
		return errors.Wrap(err, "failed to save project row")
	}
	return nil
}

// updateOrgSummary recounts the organization's projects from the
// detail rows, which keeps the summary correct no matter how many
// times an event is redelivered
func (p *ProjectProjector) updateOrgSummary(ctx context.Context, organizationID string) error {
	if organizationID == "" {
		return nil
	}

	var active, archived int64
	if err := p.db.WithContext(ctx).Model(&models.Project{}).
		Where("organization_id = ? AND status = ?", organizationID, domain.ProjectStatusActive).
		Count(&active).Error; err != nil {
		return errors.Wrap(err, "failed to count active projects")
	}
	if err := p.db.WithContext(ctx).Model(&models.Project{}).
		Where("organization_id = ? AND status = ?", organizationID, domain.ProjectStatusArchived).
		Count(&archived).Error; err != nil {
		return errors.Wrap(err, "failed to count archived projects")
	}

	summary := models.OrgSummary{
		OrganizationID:   organizationID,
		ActiveProjects:   active,
		ArchivedProjects: archived,
		UpdatedAt:        time.Now().UTC(),
	}
	if err := p.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&summary).Error; err != nil {
		return errors.Wrap(err, "failed to save organization summary")
	}

	return nil
}
