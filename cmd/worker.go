package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"example.com/scaffold/services/platform/cache"
	"example.com/scaffold/services/platform/eventstore"
	"example.com/scaffold/services/platform/messaging"
	"example.com/scaffold/services/platform/models"
	"example.com/scaffold/services/platform/projections"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the projection worker and outbox publisher",
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	log.Info().Msg("Starting worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := gorm.Open(postgres.Open(cfg.DBSource), &gorm.Config{})
	if err != nil {
		return err
	}

	if cfg.EnableMigrations {
		if err := models.Migrate(db); err != nil {
			return err
		}
	}

	eventStore := eventstore.NewGormEventStore(db)

	var esClient *elasticsearch.Client
	if cfg.ElasticSearchEnabled {
		esClient, err = projections.NewElasticsearchClient(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search functionality")
			esClient = nil
		} else if err := projections.EnsureIndices(esClient, cfg); err != nil {
			return err
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

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		processor.Start()
		<-ctx.Done()
		processor.Stop()
		return nil
	})

	// Relay stored events to the bus when one is configured
	if cfg.AzureQueueConnStr != "" {
		azureClient, err := messaging.NewAzureClient(cfg)
		if err != nil {
			return err
		}

		sender, err := azureClient.NewQueueSender(cfg.AzureEventsQueueName)
		if err != nil {
			return err
		}
		defer sender.Close(context.Background())

		publisher := messaging.NewPublisher(eventStore, sender, cfg.PublishBatchSize)

		g.Go(func() error {
			scheduler, err := gocron.NewScheduler()
			if err != nil {
				return err
			}

			_, err = scheduler.NewJob(
				gocron.DurationJob(cfg.PublishInterval),
				gocron.NewTask(func() {
					if _, err := publisher.PublishBatch(ctx); err != nil {
						log.Error().Err(err).Msg("Failed to publish event batch")
					}
				}),
			)
			if err != nil {
				return err
			}

			scheduler.Start()

			<-ctx.Done()

			return scheduler.Shutdown()
		})
	}

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("Worker error")
		return err
	}

	log.Info().Msg("Worker exited properly")
	return nil
}
