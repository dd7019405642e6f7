package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"example.com/scaffold/services/platform/api"
	"example.com/scaffold/services/platform/cache"
	"example.com/scaffold/services/platform/eventstore"
	"example.com/scaffold/services/platform/handlers"
	"example.com/scaffold/services/platform/messaging"
	"example.com/scaffold/services/platform/models"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Run:   runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, args []string) {
	log.Info().Msg("Starting server")

	db, err := gorm.Open(postgres.Open(cfg.DBSource), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	if cfg.EnableMigrations {
		if err := models.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database")
		}
	}

	eventStore := eventstore.NewGormEventStore(db)
	repo := eventstore.NewRepository(eventStore)

	projectHandler := handlers.NewProjectHandler(repo)
	templateHandler := handlers.NewTemplateHandler(repo)
	provisioningHandler := handlers.NewProvisioningHandler(repo)
	analysisHandler := handlers.NewAnalysisHandler(repo)

	cacheClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Redis")
	}

	// Consume queued commands alongside the HTTP API when a bus is
	// configured
	if cfg.AzureQueueConnStr != "" {
		azureClient, err := messaging.NewAzureClient(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Azure Service Bus")
		}

		msgProcessor := messaging.NewProcessor(projectHandler, templateHandler, provisioningHandler, analysisHandler)

		go func() {
			if err := azureClient.StartConsumer(context.Background(), cfg.AzureCommandsQueueName, msgProcessor); err != nil {
				log.Fatal().Err(err).Msg("Failed to start command queue consumer")
			}
		}()
	}

	server := api.NewServer(cfg, db, eventStore, cacheClient, projectHandler, templateHandler, provisioningHandler, analysisHandler)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
