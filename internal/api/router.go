// Package api exposes the automation engine over HTTP: the publish
// trigger, campaign CRUD and control actions, stats, health and metrics.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/belonio2793/backlinkoo-automation/internal/config"
	"github.com/belonio2793/backlinkoo-automation/internal/domain"
	"github.com/belonio2793/backlinkoo-automation/internal/logger"
	"github.com/belonio2793/backlinkoo-automation/internal/metrics"
	"github.com/belonio2793/backlinkoo-automation/internal/orchestrator"
	"github.com/belonio2793/backlinkoo-automation/internal/platform"
)

const (
	healthStatusHealthy  = "healthy"
	healthStatusDegraded = "degraded"
	healthCheckTimeout   = 2 * time.Second
	serviceName          = "automation-engine"
	serviceVersion       = "1.0.0"
)

// CampaignStore is the campaign persistence slice the API needs.
type CampaignStore interface {
	Create(ctx context.Context, c *domain.Campaign) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)
	List(ctx context.Context, limit, offset int) ([]domain.Campaign, error)
	Pause(ctx context.Context, id uuid.UUID, reason string) error
	Resume(ctx context.Context, id uuid.UUID) error
	Ping(ctx context.Context) error
}

// LinkStore lists the published-link ledger per campaign.
type LinkStore interface {
	ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]domain.PublishedLink, error)
}

// ActivityStore reads and appends the campaign activity feed.
type ActivityStore interface {
	Append(ctx context.Context, campaignID uuid.UUID, level domain.ActivityLevel, message string) error
	ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit int) ([]domain.ActivityEntry, error)
}

// AutomationEngine runs publish steps. Satisfied by orchestrator.Engine.
type AutomationEngine interface {
	PublishStep(ctx context.Context, campaignID uuid.UUID, platformID string) (*orchestrator.StepResult, error)
	ScheduleNext(ctx context.Context, campaignID uuid.UUID) (string, error)
}

// QueueInspector reports continuation queue statistics. Satisfied by
// worker.ContinuationWorker.
type QueueInspector interface {
	GetStats(ctx context.Context) (map[string]any, error)
}

// StatsSource reads the Redis-backed publish counters and recent links.
// Satisfied by metrics.Tracker.
type StatsSource interface {
	GetStats(ctx context.Context) (*metrics.Stats, error)
	GetRecentLinks(ctx context.Context, limit int) ([]metrics.RecentLink, error)
}

// Router holds the API dependencies.
type Router struct {
	campaigns      CampaignStore
	links          LinkStore
	activity       ActivityStore
	engine         AutomationEngine
	queue          QueueInspector
	stats          StatsSource
	registry       *platform.Registry
	redisClient    *redis.Client
	metricsHandler http.Handler
	cfg            *config.Config
	logger         logger.Logger
}

// Deps collects the router's dependencies. Queue, Stats, RedisClient and
// MetricsHandler are optional.
type Deps struct {
	Campaigns      CampaignStore
	Links          LinkStore
	Activity       ActivityStore
	Engine         AutomationEngine
	Queue          QueueInspector
	Stats          StatsSource
	Registry       *platform.Registry
	RedisClient    *redis.Client
	MetricsHandler http.Handler
	Config         *config.Config
	Logger         logger.Logger
}

// NewRouter creates a new API router.
func NewRouter(deps Deps) *Router {
	return &Router{
		campaigns:      deps.Campaigns,
		links:          deps.Links,
		activity:       deps.Activity,
		engine:         deps.Engine,
		queue:          deps.Queue,
		stats:          deps.Stats,
		registry:       deps.Registry,
		redisClient:    deps.RedisClient,
		metricsHandler: deps.MetricsHandler,
		cfg:            deps.Config,
		logger:         deps.Logger,
	}
}

// SetupRoutes builds the gin engine with middleware and all routes.
func (r *Router) SetupRoutes() *gin.Engine {
	if !r.cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(r.cfg.Server.CORSOrigins))

	// Health and metrics stay public.
	router.GET("/health", r.healthCheck)
	if r.metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(r.metricsHandler))
	}

	v1 := router.Group("/api/v1")
	if r.cfg.Auth.JWTSecret != "" {
		v1.Use(authMiddleware(r.cfg.Auth.JWTSecret))
	}

	v1.POST("/automation", r.triggerAutomation)

	campaigns := v1.Group("/campaigns")
	campaigns.GET("", r.listCampaigns)
	campaigns.POST("", r.createCampaign)
	campaigns.GET("/:id", r.getCampaign)
	campaigns.GET("/:id/links", r.listCampaignLinks)
	campaigns.GET("/:id/activity", r.listCampaignActivity)
	campaigns.POST("/:id/pause", r.pauseCampaign)
	campaigns.POST("/:id/resume", r.resumeCampaign)

	stats := v1.Group("/stats")
	stats.GET("/overview", r.getStatsOverview)
	stats.GET("/queue", r.getQueueStats)
	stats.GET("/links/recent", r.getRecentLinks)

	v1.GET("/platforms", r.listPlatforms)

	return router
}

// healthCheck reports database and Redis connectivity.
func (r *Router) healthCheck(c *gin.Context) {
	health := gin.H{
		"status":  healthStatusHealthy,
		"service": serviceName,
		"version": serviceVersion,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	dbConnected := true
	if err := r.campaigns.Ping(ctx); err != nil {
		dbConnected = false
		health["status"] = healthStatusDegraded
	}
	health["database"] = gin.H{"connected": dbConnected}

	redisConnected := false
	if r.redisClient != nil {
		redisConnected = r.redisClient.Ping(ctx).Err() == nil
	}
	health["redis"] = gin.H{"connected": redisConnected}
	if r.redisClient != nil && !redisConnected && health["status"] == healthStatusHealthy {
		health["status"] = healthStatusDegraded
	}

	c.JSON(http.StatusOK, health)
}

// listPlatforms returns the registry in priority order.
// GET /api/v1/platforms
func (r *Router) listPlatforms(c *gin.Context) {
	all := r.registry.All()
	platforms := make([]gin.H, 0, len(all))
	for _, d := range all {
		platforms = append(platforms, gin.H{
			"id":           d.ID,
			"display_name": d.DisplayName,
			"priority":     d.Priority,
			"enabled":      d.Enabled,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"platforms": platforms,
		"count":     len(platforms),
	})
}
