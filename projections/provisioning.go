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

// ProvisioningProjector maintains the provisioning read model
type ProvisioningProjector struct {
	db            *gorm.DB
	store         eventstore.EventStore
	elasticClient *elasticsearch.Client
	cfg           config.Config
}

// NewProvisioningProjector creates a new provisioning projector
func NewProvisioningProjector(db *gorm.DB, store eventstore.EventStore, elasticClient *elasticsearch.Client, cfg config.Config) *ProvisioningProjector {
	return &ProvisioningProjector{
		db:            db,
		store:         store,
		elasticClient: elasticClient,
		cfg:           cfg,
	}
}

// Project folds an event into the provisioning read model
func (p *ProvisioningProjector) Project(ctx context.Context, event domain.Event) error {
	var row models.Provisioning
	err := p.db.WithContext(ctx).First(&row, "provisioning_id = ?", event.AggregateID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(err, "failed to load provisioning row")
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
			Str("provisioningID", event.AggregateID).
			Int("version", event.Version).
			Int("lastVersion", lastVersion).
			Msg("Gap in provisioning stream, re-deriving read model")
		return p.Rederive(ctx, event.AggregateID)
	}

	switch data := event.Data.(type) {
	case domain.ProvisioningRequestedEvent:
		row = models.Provisioning{
			ProvisioningID: event.AggregateID,
			ProjectID:      data.ProjectID,
			RepoName:       data.RepoName,
			Provider:       data.Provider,
			Visibility:     data.Visibility,
			RequestedBy:    data.RequestedBy,
			Status:         domain.ProvisioningStatusPending,
			CreatedAt:      event.Timestamp,
		}
	case domain.ProvisioningStartedEvent:
		row.WorkerID = data.WorkerID
		row.Status = domain.ProvisioningStatusInProgress
	case domain.ProvisioningCompletedEvent:
		row.RepoURL = data.RepoURL
		row.DefaultBranch = data.DefaultBranch
		row.Status = domain.ProvisioningStatusCompleted
	case domain.ProvisioningFailedEvent:
		row.FailureReason = data.Reason
		row.Status = domain.ProvisioningStatusFailed
	default:
		return nil
	}

	row.LastVersion = event.Version
	row.UpdatedAt = event.Timestamp

	if err := p.save(ctx, row); err != nil {
		return err
	}

	indexDocument(ctx, p.elasticClient, FormatIndex(ProvisioningsIndex, p.cfg), row.ProvisioningID, row)
	return nil
}

// Rederive rebuilds a single provisioning row from its event stream
func (p *ProvisioningProjector) Rederive(ctx context.Context, provisioningID string) error {
	aggregate := domain.NewProvisioningAggregate(provisioningID)
	events, err := p.store.Read(ctx, provisioningID, 1)
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

	row := models.Provisioning{
		ProvisioningID: provisioningID,
		ProjectID:      aggregate.State.ProjectID,
		RepoName:       aggregate.State.RepoName,
		Provider:       aggregate.State.Provider,
		Visibility:     aggregate.State.Visibility,
		RequestedBy:    aggregate.State.RequestedBy,
		WorkerID:       aggregate.State.WorkerID,
		RepoURL:        aggregate.State.RepoURL,
		DefaultBranch:  aggregate.State.DefaultBranch,
		FailureReason:  aggregate.State.FailureReason,
		Status:         aggregate.State.Status,
		LastVersion:    aggregate.GetVersion(),
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}

	if err := p.save(ctx, row); err != nil {
		return err
	}

	indexDocument(ctx, p.elasticClient, FormatIndex(ProvisioningsIndex, p.cfg), row.ProvisioningID, row)
	return nil
}

func (p *ProvisioningProjector) save(ctx context.Context, row models.Provisioning) error {
	if err := p.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error; err != nil {
		return errors.Wrap(err, "failed to save provisioning row")
	}
	return nil
}
