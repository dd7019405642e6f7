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

// registerTemplate registers a new template
func (s *Server) registerTemplate(c *gin.Context) {
	var cmd handlers.RegisterTemplateCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if cmd.TemplateID == "" {
		cmd.TemplateID = uuid.New().String()
	}
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = requestID(c)
	}

	if err := s.templateHandler.HandleRegisterTemplate(c.Request.Context(), cmd); err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"template_id": cmd.TemplateID})
}

// publishTemplate publishes a template version
func (s *Server) publishTemplate(c *gin.Context) {
	var cmd handlers.PublishTemplateCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd.TemplateID = c.Param("id")
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = requestID(c)
	}

	if err := s.templateHandler.HandlePublishTemplate(c.Request.Context(), cmd); err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"template_id": cmd.TemplateID})
}

// deprecateTemplate deprecates a template
func (s *Server) deprecateTemplate(c *gin.Context) {
	var cmd handlers.DeprecateTemplateCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd.TemplateID = c.Param("id")
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = requestID(c)
	}

	if err := s.templateHandler.HandleDeprecateTemplate(c.Request.Context(), cmd); err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"template_id": cmd.TemplateID})
}

// getTemplate returns a template read model by ID
func (s *Server) getTemplate(c *gin.Context) {
	id := c.Param("id")

	var template models.Template
	err := s.db.WithContext(c.Request.Context()).First(&template, "template_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to load template")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, template)
}

// listTemplates returns template read models, filterable by status
func (s *Server) listTemplates(c *gin.Context) {
	query := s.db.WithContext(c.Request.Context()).Model(&models.Template{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var templates []models.Template
	if err := query.Order("created_at DESC").Find(&templates).Error; err != nil {
		log.Error().Err(err).Msg("Failed to list templates")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"templates": templates})
}
