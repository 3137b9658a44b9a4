package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/belonio2793/backlinkoo-automation/internal/api"
	"github.com/belonio2793/backlinkoo-automation/internal/config"
	"github.com/belonio2793/backlinkoo-automation/internal/domain"
	"github.com/belonio2793/backlinkoo-automation/internal/logger"
	"github.com/belonio2793/backlinkoo-automation/internal/metrics"
	"github.com/belonio2793/backlinkoo-automation/internal/orchestrator"
	"github.com/belonio2793/backlinkoo-automation/internal/platform"
)

type fakeCampaigns struct {
	byID    map[uuid.UUID]*domain.Campaign
	created []*domain.Campaign
	paused  map[uuid.UUID]string
	resumed []uuid.UUID
}

func newFakeCampaigns() *fakeCampaigns {
	return &fakeCampaigns{
		byID:   make(map[uuid.UUID]*domain.Campaign),
		paused: make(map[uuid.UUID]string),
	}
}

func (f *fakeCampaigns) Create(_ context.Context, c *domain.Campaign) error {
	f.created = append(f.created, c)
	f.byID[c.ID] = c
	return nil
}

func (f *fakeCampaigns) GetByID(_ context.Context, id uuid.UUID) (*domain.Campaign, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (f *fakeCampaigns) List(_ context.Context, _, _ int) ([]domain.Campaign, error) {
	out := make([]domain.Campaign, 0, len(f.byID))
	for _, c := range f.byID {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeCampaigns) Pause(_ context.Context, id uuid.UUID, reason string) error {
	c, ok := f.byID[id]
	if !ok || c.Status != domain.CampaignStatusActive {
		return domain.ErrNotFound
	}
	c.Status = domain.CampaignStatusPaused
	f.paused[id] = reason
	return nil
}

func (f *fakeCampaigns) Resume(_ context.Context, id uuid.UUID) error {
	c, ok := f.byID[id]
	if !ok || c.Status != domain.CampaignStatusPaused {
		return domain.ErrNotFound
	}
	c.Status = domain.CampaignStatusActive
	f.resumed = append(f.resumed, id)
	return nil
}

func (f *fakeCampaigns) Ping(_ context.Context) error { return nil }

type fakeLinks struct {
	links []domain.PublishedLink
}

func (f *fakeLinks) ListByCampaign(_ context.Context, _ uuid.UUID) ([]domain.PublishedLink, error) {
	return f.links, nil
}

type fakeActivity struct {
	entries []domain.ActivityEntry
}

func (f *fakeActivity) Append(_ context.Context, campaignID uuid.UUID, level domain.ActivityLevel, message string) error {
	f.entries = append(f.entries, domain.ActivityEntry{
		CampaignID: campaignID,
		Level:      level,
		Message:    message,
		CreatedAt:  time.Now().UTC(),
	})
	return nil
}

func (f *fakeActivity) ListByCampaign(_ context.Context, _ uuid.UUID, _ int) ([]domain.ActivityEntry, error) {
	return f.entries, nil
}

type fakeEngine struct {
	result      *orchestrator.StepResult
	err         error
	next        string
	scheduleErr error
	stepCalls   int
}

func (f *fakeEngine) PublishStep(_ context.Context, campaignID uuid.UUID, platformID string) (*orchestrator.StepResult, error) {
	f.stepCalls++
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &orchestrator.StepResult{
		CampaignID:   campaignID,
		Platform:     platformID,
		PublishedURL: "https://telegra.ph/test-abc",
		Action:       orchestrator.ActionAdvance,
		NextPlatform: "writeas",
	}, nil
}

func (f *fakeEngine) ScheduleNext(_ context.Context, _ uuid.UUID) (string, error) {
	return f.next, f.scheduleErr
}

type fakeQueue struct {
	stats map[string]any
}

func (f *fakeQueue) GetStats(_ context.Context) (map[string]any, error) {
	return f.stats, nil
}

type fakeStats struct{}

func (f *fakeStats) GetStats(_ context.Context) (*metrics.Stats, error) {
	return &metrics.Stats{TotalPublished: 5}, nil
}

func (f *fakeStats) GetRecentLinks(_ context.Context, _ int) ([]metrics.RecentLink, error) {
	return []metrics.RecentLink{{Platform: "telegraph", URL: "https://telegra.ph/test-abc"}}, nil
}

type harness struct {
	router    *gin.Engine
	campaigns *fakeCampaigns
	activity  *fakeActivity
	engine    *fakeEngine
}

func newHarness(t *testing.T, cfg *config.Config) *harness {
	t.Helper()

	if cfg == nil {
		cfg = &config.Config{}
	}

	campaigns := newFakeCampaigns()
	activity := &fakeActivity{}
	engine := &fakeEngine{}

	r := api.NewRouter(api.Deps{
		Campaigns: campaigns,
		Links:     &fakeLinks{},
		Activity:  activity,
		Engine:    engine,
		Queue:     &fakeQueue{stats: map[string]any{"pending": int64(2)}},
		Stats:     &fakeStats{},
		Registry:  platform.NewDefaultRegistry(),
		Config:    cfg,
		Logger:    logger.NewNopLogger(),
	})

	return &harness{
		router:    r.SetupRoutes(),
		campaigns: campaigns,
		activity:  activity,
		engine:    engine,
	}
}

func (h *harness) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func activeCampaign() *domain.Campaign {
	now := time.Now().UTC()
	return &domain.Campaign{
		ID:         uuid.New(),
		Name:       "go hosting",
		Keyword:    "go hosting",
		AnchorText: "best go hosting",
		TargetURL:  "https://example.com",
		Status:     domain.CampaignStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestTriggerAutomation_Accepted(t *testing.T) {
	h := newHarness(t, nil)
	c := activeCampaign()
	h.campaigns.byID[c.ID] = c

	w := h.do(http.MethodPost, "/api/v1/automation", gin.H{
		"action":      "automation-post",
		"campaign_id": c.ID.String(),
		"platform_id": "telegraph",
	}, nil)

	require.Equal(t, http.StatusAccepted, w.Code)

	var result orchestrator.StepResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "telegraph", result.Platform)
	assert.Equal(t, "https://telegra.ph/test-abc", result.PublishedURL)
	assert.Equal(t, orchestrator.ActionAdvance, result.Action)
	assert.Equal(t, 1, h.engine.stepCalls)
}

func TestTriggerAutomation_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{name: "unknown campaign", err: domain.ErrNotFound, wantCode: http.StatusNotFound},
		{name: "paused campaign", err: domain.ErrCampaignNotActive, wantCode: http.StatusConflict},
		{name: "unknown platform", err: domain.ErrUnknownPlatform, wantCode: http.StatusUnprocessableEntity},
		{name: "publish failure", err: domain.ErrPublishFailed, wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			h.engine.err = tt.err

			w := h.do(http.MethodPost, "/api/v1/automation", gin.H{
				"action":      "automation-post",
				"campaign_id": uuid.New().String(),
			}, nil)

			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestTriggerAutomation_BadRequests(t *testing.T) {
	h := newHarness(t, nil)

	w := h.do(http.MethodPost, "/api/v1/automation", gin.H{
		"action":      "delete-everything",
		"campaign_id": uuid.New().String(),
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPost, "/api/v1/automation", gin.H{
		"action":      "automation-post",
		"campaign_id": "not-a-uuid",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPost, "/api/v1/automation", gin.H{
		"campaign_id": uuid.New().String(),
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, 0, h.engine.stepCalls)
}

func TestCreateCampaign(t *testing.T) {
	h := newHarness(t, nil)

	w := h.do(http.MethodPost, "/api/v1/campaigns", gin.H{
		"keyword":     "go hosting",
		"anchor_text": "best go hosting",
		"target_url":  "https://example.com",
	}, nil)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, h.campaigns.created, 1)

	created := h.campaigns.created[0]
	assert.Equal(t, "go hosting", created.Keyword)
	assert.Equal(t, "go hosting", created.Name)
	assert.Equal(t, domain.CampaignStatusActive, created.Status)
}

func TestCreateCampaign_MissingFields(t *testing.T) {
	h := newHarness(t, nil)

	w := h.do(http.MethodPost, "/api/v1/campaigns", gin.H{
		"keyword": "go hosting",
	}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, h.campaigns.created)
}

func TestGetCampaign_NotFound(t *testing.T) {
	h := newHarness(t, nil)

	w := h.do(http.MethodGet, "/api/v1/campaigns/"+uuid.New().String(), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(http.MethodGet, "/api/v1/campaigns/not-a-uuid", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPauseAndResumeCampaign(t *testing.T) {
	h := newHarness(t, nil)
	c := activeCampaign()
	h.campaigns.byID[c.ID] = c
	h.engine.next = "writeas"

	w := h.do(http.MethodPost, "/api/v1/campaigns/"+c.ID.String()+"/pause", gin.H{
		"reason": "maintenance window",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.CampaignStatusPaused, c.Status)
	assert.Equal(t, "maintenance window", h.campaigns.paused[c.ID])

	w = h.do(http.MethodPost, "/api/v1/campaigns/"+c.ID.String()+"/resume", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.CampaignStatusActive, c.Status)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "writeas", resp["next_platform"])

	// Both control actions land in the audit feed.
	require.Len(t, h.activity.entries, 2)
	assert.Contains(t, h.activity.entries[0].Message, "paused")
	assert.Contains(t, h.activity.entries[1].Message, "resumed")
}

func TestResumeCampaign_NotPaused(t *testing.T) {
	h := newHarness(t, nil)
	c := activeCampaign()
	h.campaigns.byID[c.ID] = c

	w := h.do(http.MethodPost, "/api/v1/campaigns/"+c.ID.String()+"/resume", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListCampaignLinksAndActivity(t *testing.T) {
	h := newHarness(t, nil)
	id := uuid.New()

	w := h.do(http.MethodGet, "/api/v1/campaigns/"+id.String()+"/links", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(0), resp["count"])

	w = h.do(http.MethodGet, "/api/v1/campaigns/"+id.String()+"/activity", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatsEndpoints(t *testing.T) {
	h := newHarness(t, nil)

	w := h.do(http.MethodGet, "/api/v1/stats/overview", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats metrics.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(5), stats.TotalPublished)

	w = h.do(http.MethodGet, "/api/v1/stats/queue", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodGet, "/api/v1/stats/links/recent", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestListPlatforms(t *testing.T) {
	h := newHarness(t, nil)

	w := h.do(http.MethodGet, "/api/v1/platforms", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Platforms []map[string]any `json:"platforms"`
		Count     int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 7, resp.Count)
	assert.Equal(t, "telegraph", resp.Platforms[0]["id"])
	assert.Equal(t, true, resp.Platforms[0]["enabled"])
}

func TestHealthCheck(t *testing.T) {
	h := newHarness(t, nil)

	w := h.do(http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	h := newHarness(t, cfg)

	// Unauthenticated requests are rejected on admin routes.
	w := h.do(http.MethodGet, "/api/v1/campaigns", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(http.MethodGet, "/api/v1/campaigns", nil, map[string]string{
		"Authorization": "Bearer not-a-token",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// A valid HS256 token passes.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	w = h.do(http.MethodGet, "/api/v1/campaigns", nil, map[string]string{
		"Authorization": "Bearer " + signed,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// Health stays public.
	w = h.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
