package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"example.com/scaffold/services/platform/handlers"
	"example.com/scaffold/services/platform/models"
)

// requestAnalysis records a new analysis run
func (s *Server) requestAnalysis(c *gin.Context) {
	var cmd handlers.RequestAnalysisCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if cmd.AnalysisID == "" {
		cmd.AnalysisID = uuid.New().String()
	}
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = requestID(c)
	}

	if err := s.analysisHandler.HandleRequestAnalysis(c.Request.Context(), cmd); err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"analysis_id": cmd.AnalysisID})
}

// startAnalysis marks an analysis run as running
func (s *Server) startAnalysis(c *gin.Context) {
	var cmd handlers.StartAnalysisCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd.AnalysisID = c.Param("id")
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = requestID(c)
	}

	if err := s.analysisHandler.HandleStartAnalysis(c.Request.Context(), cmd); err != nil {
		respondCommandError(c, err)
		return
	}

	s.evictAnalysisRun(c, cmd.AnalysisID)
	c.JSON(http.StatusOK, gin.H{"analysis_id": cmd.AnalysisID})
}

// completeAnalysis records an analysis run's findings
func (s *Server) completeAnalysis(c *gin.Context) {
	var cmd handlers.CompleteAnalysisCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd.AnalysisID = c.Param("id")
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = requestID(c)
	}

	if err := s.analysisHandler.HandleCompleteAnalysis(c.Request.Context(), cmd); err != nil {
		respondCommandError(c, err)
		return
	}

	s.evictAnalysisRun(c, cmd.AnalysisID)
	c.JSON(http.StatusOK, gin.H{"analysis_id": cmd.AnalysisID})
}

// failAnalysis records a terminal analysis failure
func (s *Server) failAnalysis(c *gin.Context) {
	var cmd handlers.FailAnalysisCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd.AnalysisID = c.Param("id")
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = requestID(c)
	}

	if err := s.analysisHandler.HandleFailAnalysis(c.Request.Context(), cmd); err != nil {
		respondCommandError(c, err)
		return
	}

	s.evictAnalysisRun(c, cmd.AnalysisID)
	c.JSON(http.StatusOK, gin.H{"analysis_id": cmd.AnalysisID})
}

// getAnalysisRun returns an analysis run read model by ID
func (s *Server) getAnalysisRun(c *gin.Context) {
	id := c.Param("id")

	if cached, err := s.cache.GetAnalysisRun(c.Request.Context(), id); err == nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	var run models.AnalysisRun
	err := s.db.WithContext(c.Request.Context()).First(&run, "analysis_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "analysis run not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to load analysis run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if err := s.cache.SetAnalysisRun(c.Request.Context(), &run); err != nil {
		log.Warn().Err(err).Str("analysisID", id).Msg("Failed to cache analysis run")
	}

	c.JSON(http.StatusOK, run)
}

func (s *Server) evictAnalysisRun(c *gin.Context, id string) {
	if err := s.cache.DeleteAnalysisRun(c.Request.Context(), id); err != nil {
		log.Warn().Err(err).Str("analysisID", id).Msg("Failed to evict analysis run from cache")
	}
}
