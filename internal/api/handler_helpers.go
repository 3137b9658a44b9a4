package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/belonio2793/backlinkoo-automation/internal/domain"
)

// parseUUID parses a UUID from a gin.Context parameter.
func parseUUID(c *gin.Context, paramName, entityType string) (uuid.UUID, bool) {
	idParam := c.Param(paramName)
	id, err := uuid.Parse(idParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + entityType + " ID format",
		})
		return uuid.Nil, false
	}
	return id, true
}

// handleDomainError maps domain sentinel errors to HTTP status codes.
func handleDomainError(c *gin.Context, err error, entityType, operation string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": entityType + " not found",
		})
	case errors.Is(err, domain.ErrCampaignNotActive):
		c.JSON(http.StatusConflict, gin.H{
			"error": "campaign is not active",
		})
	case errors.Is(err, domain.ErrUnknownPlatform):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "platform not recognized",
		})
	case errors.Is(err, domain.ErrInvalidCampaign):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
	case errors.Is(err, domain.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{
			"error": entityType + " already exists",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to " + operation + " " + entityType,
		})
	}
}
