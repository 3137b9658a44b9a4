package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/belonio2793/backlinkoo-automation/internal/domain"
	"github.com/belonio2793/backlinkoo-automation/internal/logger"
)

const (
	defaultListLimit     = 50
	maxListLimit         = 200
	defaultActivityLimit = 100
)

// listCampaigns returns campaigns, newest first.
// GET /api/v1/campaigns?limit=50&offset=0
func (r *Router) listCampaigns(c *gin.Context) {
	ctx := c.Request.Context()

	limit := parsePositiveQuery(c, "limit", defaultListLimit)
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := parsePositiveQuery(c, "offset", 0)

	campaigns, err := r.campaigns.List(ctx, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list campaigns",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"campaigns": campaigns,
		"count":     len(campaigns),
	})
}

// createCampaign creates an active campaign.
// POST /api/v1/campaigns
func (r *Router) createCampaign(c *gin.Context) {
	ctx := c.Request.Context()

	var req domain.CampaignCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request payload",
			"details": err.Error(),
		})
		return
	}

	campaign, err := domain.NewCampaign(&req)
	if err != nil {
		handleDomainError(c, err, "campaign", "create")
		return
	}

	if err := r.campaigns.Create(ctx, campaign); err != nil {
		handleDomainError(c, err, "campaign", "create")
		return
	}

	r.logger.Info("campaign created",
		logger.String("campaign_id", campaign.ID.String()),
		logger.String("keyword", campaign.Keyword))

	c.JSON(http.StatusCreated, campaign)
}

// getCampaign retrieves a campaign by ID.
// GET /api/v1/campaigns/:id
func (r *Router) getCampaign(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := parseUUID(c, "id", "campaign")
	if !ok {
		return
	}

	campaign, err := r.campaigns.GetByID(ctx, id)
	if err != nil {
		handleDomainError(c, err, "campaign", "get")
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// listCampaignLinks returns the published-link ledger for a campaign.
// GET /api/v1/campaigns/:id/links
func (r *Router) listCampaignLinks(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := parseUUID(c, "id", "campaign")
	if !ok {
		return
	}

	links, err := r.links.ListByCampaign(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list published links",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"links": links,
		"count": len(links),
	})
}

// listCampaignActivity returns the activity feed for a campaign.
// GET /api/v1/campaigns/:id/activity?limit=100
func (r *Router) listCampaignActivity(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := parseUUID(c, "id", "campaign")
	if !ok {
		return
	}

	limit := parsePositiveQuery(c, "limit", defaultActivityLimit)
	if limit > maxListLimit {
		limit = maxListLimit
	}

	entries, err := r.activity.ListByCampaign(ctx, id, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list activity",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activity": entries,
		"count":    len(entries),
	})
}

// PauseRequest optionally carries the operator's reason.
type PauseRequest struct {
	Reason string `json:"reason"`
}

// pauseCampaign pauses an active campaign. Already-claimed continuations
// are dropped by the worker when the step refuses to run.
// POST /api/v1/campaigns/:id/pause
func (r *Router) pauseCampaign(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := parseUUID(c, "id", "campaign")
	if !ok {
		return
	}

	var req PauseRequest
	_ = c.ShouldBindJSON(&req)
	reason := req.Reason
	if reason == "" {
		reason = "paused by operator"
	}

	if err := r.campaigns.Pause(ctx, id, reason); err != nil {
		handleDomainError(c, err, "campaign", "pause")
		return
	}

	if err := r.activity.Append(ctx, id, domain.ActivityLevelInfo, "campaign paused: "+reason); err != nil {
		r.logger.Warn("failed to record pause activity",
			logger.String("campaign_id", id.String()),
			logger.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Campaign paused",
		"status":  domain.CampaignStatusPaused,
	})
}

// resumeCampaign flips a paused campaign back to active and schedules the
// next publish step via the engine's decision procedure.
// POST /api/v1/campaigns/:id/resume
func (r *Router) resumeCampaign(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := parseUUID(c, "id", "campaign")
	if !ok {
		return
	}

	if err := r.campaigns.Resume(ctx, id); err != nil {
		handleDomainError(c, err, "campaign", "resume")
		return
	}

	if err := r.activity.Append(ctx, id, domain.ActivityLevelInfo, "campaign resumed by operator"); err != nil {
		r.logger.Warn("failed to record resume activity",
			logger.String("campaign_id", id.String()),
			logger.Error(err))
	}

	next, err := r.engine.ScheduleNext(ctx, id)
	if err != nil {
		handleDomainError(c, err, "campaign", "schedule next step for")
		return
	}

	resp := gin.H{
		"message": "Campaign resumed",
		"status":  domain.CampaignStatusActive,
	}
	if next != "" {
		resp["next_platform"] = next
	}

	c.JSON(http.StatusOK, resp)
}

// parsePositiveQuery reads a non-negative integer query parameter, falling
// back to def on absence or garbage.
func parsePositiveQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}
