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

// AnalysisProjector maintains the analysis run read model
type AnalysisProjector struct {
	db            *gorm.DB
	store         eventstore.EventStore
	elasticClient *elasticsearch.Client
	cache         cache.CacheClient
	cfg           config.Config
}

// NewAnalysisProjector creates a new analysis projector
func NewAnalysisProjector(db *gorm.DB, store eventstore.EventStore, elasticClient *elasticsearch.Client, cacheClient cache.CacheClient, cfg config.Config) *AnalysisProjector {
	return &AnalysisProjector{
		db:            db,
		store:         store,
		elasticClient: elasticClient,
		cache:         cacheClient,
		cfg:           cfg,
	}
}

// Project folds an event into the analysis run read model
func (p *AnalysisProjector) Project(ctx context.Context, event domain.Event) error {
	var row models.AnalysisRun
	err := p.db.WithContext(ctx).First(&row, "analysis_id = ?", event.AggregateID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(err, "failed to load analysis run row")
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
			Str("analysisID", event.AggregateID).
			Int("version", event.Version).
			Int("lastVersion", lastVersion).
			Msg("Gap in analysis stream, re-deriving read model")
		return p.Rederive(ctx, event.AggregateID)
	}

	switch data := event.Data.(type) {
	case domain.AnalysisRequestedEvent:
		row = models.AnalysisRun{
			AnalysisID:   event.AggregateID,
			ProjectID:    data.ProjectID,
			AnalysisType: data.AnalysisType,
			RequestedBy:  data.RequestedBy,
			Status:       domain.AnalysisStatusRequested,
			CreatedAt:    event.Timestamp,
		}
	case domain.AnalysisStartedEvent:
		row.WorkerID = data.WorkerID
		row.Model = data.Model
		row.Status = domain.AnalysisStatusRunning
	case domain.AnalysisCompletedEvent:
		row.FindingsCount = data.FindingsCount
		row.Summary = data.Summary
		row.Status = domain.AnalysisStatusCompleted
	case domain.AnalysisFailedEvent:
		row.FailureReason = data.Reason
		row.Status = domain.AnalysisStatusFailed
	default:
		return nil
	}

	row.LastVersion = event.Version
	row.UpdatedAt = event.Timestamp

	if err := p.save(ctx, row); err != nil {
		return err
	}

	indexDocument(ctx, p.elasticClient, FormatIndex(AnalysisRunsIndex, p.cfg), row.AnalysisID, row)
	p.evict(ctx, row.AnalysisID)
	return nil
}

// Rederive rebuilds a single analysis run row from its event stream
func (p *AnalysisProjector) Rederive(ctx context.Context, analysisID string) error {
	aggregate := domain.NewAnalysisAggregate(analysisID)
	events, err := p.store.Read(ctx, analysisID, 1)
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

	row := models.AnalysisRun{
		AnalysisID:    analysisID,
		ProjectID:     aggregate.State.ProjectID,
		AnalysisType:  aggregate.State.AnalysisType,
		RequestedBy:   aggregate.State.RequestedBy,
		WorkerID:      aggregate.State.WorkerID,
		Model:         aggregate.State.Model,
		FindingsCount: aggregate.State.FindingsCount,
		Summary:       aggregate.State.Summary,
		FailureReason: aggregate.State.FailureReason,
		Status:        aggregate.State.Status,
		LastVersion:   aggregate.GetVersion(),
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}

	if err := p.save(ctx, row); err != nil {
		return err
	}

	indexDocument(ctx, p.elasticClient, FormatIndex(AnalysisRunsIndex, p.cfg), row.AnalysisID, row)
	p.evict(ctx, row.AnalysisID)
	return nil
}

// evict drops the cached row so the next query reads the updated model
func (p *AnalysisProjector) evict(ctx context.Context, analysisID string) {
	if p.cache == nil {
		return
	}
	if err := p.cache.DeleteAnalysisRun(ctx, analysisID); err != nil {
		log.Warn().Err(err).Str("analysisID", analysisID).Msg("Failed to evict analysis run from cache")
	}
}

func (p *AnalysisProjector) save(ctx context.Context, row models.AnalysisRun) error {
	if err := p.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error; err != nil {
		return errors.Wrap(err, "failed to save analysis run row")
	}
	return nil
}
