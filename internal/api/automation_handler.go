package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/belonio2793/backlinkoo-automation/internal/logger"
)

const actionAutomationPost = "automation-post"

// AutomationRequest is the publish trigger payload. PlatformID may be
// omitted, in which case the engine picks the next unpublished platform.
type AutomationRequest struct {
	Action     string `binding:"required" json:"action"`
	CampaignID string `binding:"required" json:"campaign_id"`
	PlatformID string `json:"platform_id"`
}

// triggerAutomation runs one publish step for a campaign.
// POST /api/v1/automation
func (r *Router) triggerAutomation(c *gin.Context) {
	var req AutomationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request payload",
			"details": err.Error(),
		})
		return
	}

	if req.Action != actionAutomationPost {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown action " + req.Action,
		})
		return
	}

	campaignID, err := uuid.Parse(req.CampaignID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid campaign ID format",
		})
		return
	}

	result, err := r.engine.PublishStep(c.Request.Context(), campaignID, req.PlatformID)
	if err != nil {
		r.logger.Warn("publish step rejected",
			logger.String("campaign_id", req.CampaignID),
			logger.String("platform_id", req.PlatformID),
			logger.Error(err))
		handleDomainError(c, err, "campaign", "publish for")
		return
	}

	c.JSON(http.StatusAccepted, result)
}
