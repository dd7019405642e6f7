package cmd

import (
	"context"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"example.com/scaffold/services/platform/cache"
	"example.com/scaffold/services/platform/eventstore"
	"example.com/scaffold/services/platform/models"
	"example.com/scaffold/services/platform/projections"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild all read models from the event log",
	RunE:  runRebuild,
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

func runRebuild(cmd *cobra.Command, args []string) error {
	log.Info().Msg("Starting read model rebuild")

	db, err := gorm.Open(postgres.Open(cfg.DBSource), &gorm.Config{})
	if err != nil {
		return err
	}

	if err := models.Migrate(db); err != nil {
		return err
	}

	eventStore := eventstore.NewGormEventStore(db)

	var esClient *elasticsearch.Client
	if cfg.ElasticSearchEnabled {
		esClient, err = projections.NewElasticsearchClient(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, rebuilding database read models only")
			esClient = nil
		}
	}

	cacheClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		return err
	}

	projectProjector := projections.NewProjectProjector(db, eventStore, esClient, cacheClient, cfg)
	templateProjector := projections.NewTemplateProjector(db, eventStore, esClient, cfg)
	provisioningProjector := projections.NewProvisioningProjector(db, eventStore, esClient, cfg)
	analysisProjector := projections.NewAnalysisProjector(db, eventStore, esClient, cacheClient, cfg)

	processor := projections.NewEventProcessor(
		db,
		projectProjector,
		templateProjector,
		provisioningProjector,
		analysisProjector,
		cfg.ProjectionBatchSize,
		cfg.ProjectionInterval,
	)

	if err := processor.Rebuild(context.Background()); err != nil {
		return err
	}

	// Cached rows may predate the rebuild
	if err := cacheClient.FlushAll(context.Background()); err != nil {
		log.Warn().Err(err).Msg("Failed to flush cache after rebuild")
	}

	log.Info().Msg("Read model rebuild complete")
	return nil
}
