package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/belonio2793/backlinkoo-automation/internal/logger"
)

const (
	keyPrefix      = "metrics"
	keyRecentLinks = "metrics:recent:links"
	keyLastRun     = "metrics:last_run"

	maxRecentLinks = 100
	counterTTL     = 30 * 24 * time.Hour
	recentTTL      = 7 * 24 * time.Hour
)

// RecentLink is one entry in the recently published list.
type RecentLink struct {
	CampaignID string    `json:"campaign_id"`
	Platform   string    `json:"platform"`
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	PostedAt   time.Time `json:"posted_at"`
}

// PlatformStats holds counters for one platform.
type PlatformStats struct {
	Name      string `json:"name"`
	Published int64  `json:"published"`
	Skipped   int64  `json:"skipped"`
	Errors    int64  `json:"errors"`
}

// Stats aggregates counters across platforms.
type Stats struct {
	TotalPublished int64           `json:"total_published"`
	TotalSkipped   int64           `json:"total_skipped"`
	TotalErrors    int64           `json:"total_errors"`
	Platforms      []PlatformStats `json:"platforms"`
	LastRun        time.Time       `json:"last_run"`
}

// Tracker keeps per-platform publish counters and a recent-links list in
// Redis. Counters expire after 30 days so the dashboard reflects live
// activity rather than all-time totals.
type Tracker struct {
	client    redis.UniversalClient
	platforms []string
	logger    logger.Logger
}

// NewTracker creates a stats tracker aggregating over the given platforms.
func NewTracker(client redis.UniversalClient, platforms []string, log logger.Logger) *Tracker {
	return &Tracker{
		client:    client,
		platforms: platforms,
		logger:    log,
	}
}

func counterKey(kind, platform string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, kind, platform)
}

func (t *Tracker) increment(ctx context.Context, kind, platform string) error {
	key := counterKey(kind, platform)

	pipe := t.client.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, counterTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.Warn("failed to increment stats counter",
			logger.String("redis_key", key),
			logger.Error(err),
		)
		return fmt.Errorf("increment %s counter: %w", kind, err)
	}
	return nil
}

// IncrementPublished increments the published counter for a platform.
func (t *Tracker) IncrementPublished(ctx context.Context, platform string) error {
	return t.increment(ctx, "published", platform)
}

// IncrementSkipped increments the skipped counter for a platform.
func (t *Tracker) IncrementSkipped(ctx context.Context, platform string) error {
	return t.increment(ctx, "skipped", platform)
}

// IncrementErrors increments the error counter for a platform.
func (t *Tracker) IncrementErrors(ctx context.Context, platform string) error {
	return t.increment(ctx, "errors", platform)
}

// AddRecentLink prepends a link to the recent list, trimming to the cap.
func (t *Tracker) AddRecentLink(ctx context.Context, link RecentLink) error {
	data, err := json.Marshal(link)
	if err != nil {
		return fmt.Errorf("marshal recent link: %w", err)
	}

	pipe := t.client.Pipeline()
	pipe.LPush(ctx, keyRecentLinks, data)
	pipe.LTrim(ctx, keyRecentLinks, 0, maxRecentLinks-1)
	pipe.Expire(ctx, keyRecentLinks, recentTTL)

	if _, execErr := pipe.Exec(ctx); execErr != nil {
		return fmt.Errorf("add recent link: %w", execErr)
	}
	return nil
}

// GetRecentLinks returns up to limit recently published links, newest first.
func (t *Tracker) GetRecentLinks(ctx context.Context, limit int) ([]RecentLink, error) {
	if limit <= 0 || limit > maxRecentLinks {
		limit = maxRecentLinks
	}

	entries, err := t.client.LRange(ctx, keyRecentLinks, 0, int64(limit-1)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get recent links: %w", err)
	}

	links := make([]RecentLink, 0, len(entries))
	for _, entry := range entries {
		var link RecentLink
		if unmarshalErr := json.Unmarshal([]byte(entry), &link); unmarshalErr != nil {
			t.logger.Warn("skipping malformed recent link entry",
				logger.Error(unmarshalErr))
			continue
		}
		links = append(links, link)
	}
	return links, nil
}

// UpdateLastRun records the time the worker last processed a continuation.
func (t *Tracker) UpdateLastRun(ctx context.Context) error {
	if err := t.client.Set(ctx, keyLastRun, time.Now().UTC().Format(time.RFC3339), 0).Err(); err != nil {
		return fmt.Errorf("update last run: %w", err)
	}
	return nil
}

// GetStats aggregates counters across all configured platforms.
func (t *Tracker) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Platforms: make([]PlatformStats, 0, len(t.platforms))}

	for _, platform := range t.platforms {
		ps := PlatformStats{Name: platform}

		var err error
		if ps.Published, err = t.getCounter(ctx, "published", platform); err != nil {
			return nil, err
		}
		if ps.Skipped, err = t.getCounter(ctx, "skipped", platform); err != nil {
			return nil, err
		}
		if ps.Errors, err = t.getCounter(ctx, "errors", platform); err != nil {
			return nil, err
		}

		stats.TotalPublished += ps.Published
		stats.TotalSkipped += ps.Skipped
		stats.TotalErrors += ps.Errors
		stats.Platforms = append(stats.Platforms, ps)
	}

	lastRun, err := t.client.Get(ctx, keyLastRun).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get last run: %w", err)
	}
	if lastRun != "" {
		if parsed, parseErr := time.Parse(time.RFC3339, lastRun); parseErr == nil {
			stats.LastRun = parsed
		}
	}

	return stats, nil
}

func (t *Tracker) getCounter(ctx context.Context, kind, platform string) (int64, error) {
	val, err := t.client.Get(ctx, counterKey(kind, platform)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("get %s counter for %s: %w", kind, platform, err)
	}
	return val, nil
}
