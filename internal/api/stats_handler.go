package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/belonio2793/backlinkoo-automation/internal/logger"
)

const defaultRecentLinksLimit = 20

// getStatsOverview returns the aggregated publish counters.
// GET /api/v1/stats/overview
func (r *Router) getStatsOverview(c *gin.Context) {
	if r.stats == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Stats tracking not configured",
		})
		return
	}

	stats, err := r.stats.GetStats(c.Request.Context())
	if err != nil {
		r.logger.Error("failed to read publish stats", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve statistics",
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// getQueueStats returns the continuation queue depth and worker state.
// GET /api/v1/stats/queue
func (r *Router) getQueueStats(c *gin.Context) {
	if r.queue == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Continuation worker not running in this process",
		})
		return
	}

	stats, err := r.queue.GetStats(c.Request.Context())
	if err != nil {
		r.logger.Error("failed to read queue stats", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve queue statistics",
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// getRecentLinks returns the most recently published links, newest first.
// GET /api/v1/stats/links/recent?limit=20
func (r *Router) getRecentLinks(c *gin.Context) {
	if r.stats == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Stats tracking not configured",
		})
		return
	}

	limit := parsePositiveQuery(c, "limit", defaultRecentLinksLimit)
	if limit > maxListLimit {
		limit = maxListLimit
	}

	links, err := r.stats.GetRecentLinks(c.Request.Context(), limit)
	if err != nil {
		r.logger.Error("failed to read recent links", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve recent links",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"links": links,
		"count": len(links),
	})
}
