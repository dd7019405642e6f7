package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"example.com/scaffold/services/platform/cache"
	"example.com/scaffold/services/platform/config"
	"example.com/scaffold/services/platform/eventstore"
	"example.com/scaffold/services/platform/handlers"
)

// Server is the HTTP server for the API
type Server struct {
	cfg                 config.Config
	router              *gin.Engine
	httpServer          *http.Server
	db                  *gorm.DB
	store               eventstore.EventStore
	cache               cache.CacheClient
	projectHandler      *handlers.ProjectHandler
	templateHandler     *handlers.TemplateHandler
	provisioningHandler *handlers.ProvisioningHandler
	analysisHandler     *handlers.AnalysisHandler
}

// NewServer creates a new API server
func NewServer(
	cfg config.Config,
	db *gorm.DB,
	store eventstore.EventStore,
	cacheClient cache.CacheClient,
	projectHandler *handlers.ProjectHandler,
	templateHandler *handlers.TemplateHandler,
	provisioningHandler *handlers.ProvisioningHandler,
	analysisHandler *handlers.AnalysisHandler,
) *Server {
	server := &Server{
		cfg:                 cfg,
		router:              gin.Default(),
		db:                  db,
		store:               store,
		cache:               cacheClient,
		projectHandler:      projectHandler,
		templateHandler:     templateHandler,
		provisioningHandler: provisioningHandler,
		analysisHandler:     analysisHandler,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware adds middleware to the router
func (s *Server) setupMiddleware() {
	s.router.Use(RequestIDMiddleware())

	if s.cfg.CorsEnabled {
		s.router.Use(CORSMiddleware())
	}

	s.router.Use(gin.Recovery())
	s.router.Use(LoggingMiddleware())
}

// setupRoutes defines the API routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	// API v1 group
	v1 := s.router.Group("/api/v1")

	// Project routes
	projectRoutes := v1.Group("/projects")
	{
		projectRoutes.POST("", s.createProject)
		projectRoutes.GET("", s.listProjects)
		projectRoutes.GET("/:id", s.getProject)
		projectRoutes.PUT("/:id", s.updateProject)
		projectRoutes.POST("/:id/archive", s.archiveProject)
		projectRoutes.POST("/:id/restore", s.restoreProject)
		projectRoutes.GET("/:id/events", s.getProjectEvents)
	}

	// Organization routes
	v1.GET("/organizations/:id/summary", s.getOrgSummary)

	// Template routes
	templateRoutes := v1.Group("/templates")
	{
		templateRoutes.POST("", s.registerTemplate)
		templateRoutes.GET("", s.listTemplates)
		templateRoutes.GET("/:id", s.getTemplate)
		templateRoutes.POST("/:id/publish", s.publishTemplate)
		templateRoutes.POST("/:id/deprecate", s.deprecateTemplate)
	}

	// Provisioning routes
	provisioningRoutes := v1.Group("/provisionings")
	{
		provisioningRoutes.POST("", s.requestProvisioning)
		provisioningRoutes.GET("/:id", s.getProvisioning)
		provisioningRoutes.POST("/:id/start", s.startProvisioning)
		provisioningRoutes.POST("/:id/complete", s.completeProvisioning)
		provisioningRoutes.POST("/:id/fail", s.failProvisioning)
	}

	// Analysis routes
	analysisRoutes := v1.Group("/analysis-runs")
	{
		analysisRoutes.POST("", s.requestAnalysis)
		analysisRoutes.GET("/:id", s.getAnalysisRun)
		analysisRoutes.POST("/:id/start", s.startAnalysis)
		analysisRoutes.POST("/:id/complete", s.completeAnalysis)
		analysisRoutes.POST("/:id/fail", s.failAnalysis)
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.cfg.HTTPServerAddress,
		Handler: s.router,
	}

	log.Info().Msgf("HTTP server starting on %s", s.cfg.HTTPServerAddress)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
