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

// createProject creates a new project
func (s *Server) createProject(c *gin.Context) {
	var cmd handlers.CreateProjectCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if cmd.ProjectID == "" {
		cmd.ProjectID = uuid.New().String()
	}
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = requestID(c)
	}

	if err := s.projectHandler.HandleCreateProject(c.Request.Context(), cmd); err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"project_id": cmd.ProjectID})
}

// updateProject updates a project's metadata
func (s *Server) updateProject(c *gin.Context) {
	var cmd handlers.UpdateProjectCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd.ProjectID = c.Param("id")
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = requestID(c)
	}

	if err := s.projectHandler.HandleUpdateProject(c.Request.Context(), cmd); err != nil {
		respondCommandError(c, err)
		return
	}

	s.evictProject(c, cmd.ProjectID)
	c.JSON(http.StatusOK, gin.H{"project_id": cmd.ProjectID})
}

// archiveProject archives a project
func (s *Server) archiveProject(c *gin.Context) {
	var cmd handlers.ArchiveProjectCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd.ProjectID = c.Param("id")
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = requestID(c)
	}

	if err := s.projectHandler.HandleArchiveProject(c.Request.Context(), cmd); err != nil {
		respondCommandError(c, err)
		return
	}

	s.evictProject(c, cmd.ProjectID)
	c.JSON(http.StatusOK, gin.H{"project_id": cmd.ProjectID})
}

// restoreProject restores an archived project
func (s *Server) restoreProject(c *gin.Context) {
	var cmd handlers.RestoreProjectCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd.ProjectID = c.Param("id")
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = requestID(c)
	}

	if err := s.projectHandler.HandleRestoreProject(c.Request.Context(), cmd); err != nil {
		respondCommandError(c, err)
		return
	}

	s.evictProject(c, cmd.ProjectID)
	c.JSON(http.StatusOK, gin.H{"project_id": cmd.ProjectID})
}

// getProject returns a project read model by ID
func (s *Server) getProject(c *gin.Context) {
	id := c.Param("id")

	if cached, err := s.cache.GetProject(c.Request.Context(), id); err == nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	var project models.Project
	err := s.db.WithContext(c.Request.Context()).First(&project, "project_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to load project")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if err := s.cache.SetProject(c.Request.Context(), &project); err != nil {
		log.Warn().Err(err).Str("projectID", id).Msg("Failed to cache project")
	}

	c.JSON(http.StatusOK, project)
}

// listProjects returns project read models, filterable by owner,
// organization and status
func (s *Server) listProjects(c *gin.Context) {
	query := s.db.WithContext(c.Request.Context()).Model(&models.Project{})

	if owner := c.Query("owner_id"); owner != "" {
		query = query.Where("owner_id = ?", owner)
	}
	if org := c.Query("organization_id"); org != "" {
		query = query.Where("organization_id = ?", org)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var projects []models.Project
	if err := query.Order("created_at DESC").Find(&projects).Error; err != nil {
		log.Error().Err(err).Msg("Failed to list projects")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// getProjectEvents returns a project's event stream
func (s *Server) getProjectEvents(c *gin.Context) {
	id := c.Param("id")

	events, err := s.store.Read(c.Request.Context(), id, 1)
	if err != nil {
		log.Error().Err(err).Str("projectID", id).Msg("Failed to read events")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if len(events) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

// getOrgSummary returns the per-organization project counts
func (s *Server) getOrgSummary(c *gin.Context) {
	id := c.Param("id")

	var summary models.OrgSummary
	err := s.db.WithContext(c.Request.Context()).First(&summary, "organization_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "organization not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to load organization summary")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (s *Server) evictProject(c *gin.Context, id string) {
	if err := s.cache.DeleteProject(c.Request.Context(), id); err != nil {
		log.Warn().Err(err).Str("projectID", id).Msg("Failed to evict project from cache")
	}
}

func requestID(c *gin.Context) string {
	if id, ok := c.Get(requestIDKey); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
