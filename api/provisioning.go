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

// requestProvisioning records a new provisioning request
func (s *Server) requestProvisioning(c *gin.Context) {
	var cmd handlers.RequestProvisioningCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if cmd.ProvisioningID == "" {
		cmd.ProvisioningID = uuid.New().String()
	}
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = requestID(c)
	}

	if err := s.provisioningHandler.HandleRequestProvisioning(c.Request.Context(), cmd); err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"provisioning_id": cmd.ProvisioningID})
}

// startProvisioning marks a provisioning request as in progress
func (s *Server) startProvisioning(c *gin.Context) {
	var cmd handlers.StartProvisioningCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd.ProvisioningID = c.Param("id")
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = requestID(c)
	}

	if err := s.provisioningHandler.HandleStartProvisioning(c.Request.Context(), cmd); err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"provisioning_id": cmd.ProvisioningID})
}

// completeProvisioning records the provisioned repository
func (s *Server) completeProvisioning(c *gin.Context) {
	var cmd handlers.CompleteProvisioningCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd.ProvisioningID = c.Param("id")
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = requestID(c)
	}

	if err := s.provisioningHandler.HandleCompleteProvisioning(c.Request.Context(), cmd); err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"provisioning_id": cmd.ProvisioningID})
}

// failProvisioning records a terminal provisioning failure
func (s *Server) failProvisioning(c *gin.Context) {
	var cmd handlers.FailProvisioningCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd.ProvisioningID = c.Param("id")
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = requestID(c)
	}

	if err := s.provisioningHandler.HandleFailProvisioning(c.Request.Context(), cmd); err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"provisioning_id": cmd.ProvisioningID})
}

// getProvisioning returns a provisioning read model by ID
func (s *Server) getProvisioning(c *gin.Context) {
	id := c.Param("id")

	var provisioning models.Provisioning
	err := s.db.WithContext(c.Request.Context()).First(&provisioning, "provisioning_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "provisioning request not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to load provisioning request")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, provisioning)
}
