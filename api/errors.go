package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/scaffold/services/platform/domain"
	"example.com/scaffold/services/platform/eventstore"
)

// respondCommandError maps a command outcome to an HTTP response.
// Rejections carry a kind that decides the status, a version conflict
// tells the client to reload and retry, and anything else is a server
// fault.
func respondCommandError(c *gin.Context, err error) {
	if rejection, ok := domain.AsRejection(err); ok {
		c.JSON(rejectionStatus(rejection.Kind), gin.H{
			"error":        rejection.Message,
			"kind":         string(rejection.Kind),
			"aggregate_id": rejection.AggregateID,
		})
		return
	}

	if errors.Is(err, eventstore.ErrConcurrencyConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": "concurrent modification, reload and retry"})
		return
	}

	log.Error().Err(err).Msg("Command failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func rejectionStatus(kind domain.RejectionKind) int {
	switch kind {
	case domain.RejectionValidation:
		return http.StatusBadRequest
	case domain.RejectionNotFound:
		return http.StatusNotFound
	case domain.RejectionAlreadyExists:
		return http.StatusConflict
	case domain.RejectionInvalidState:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}
