// Package dedup provides a short-lived Redis guard against duplicate
// publish triggers. The database unique constraint is the real
// idempotency barrier; the guard exists to absorb rapid double-submits
// before they reach content generation and an external API call.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/belonio2793/backlinkoo-automation/internal/logger"
)

type Guard struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// NewGuard creates a publish-trigger guard. Keys expire after ttl so a
// crashed step never wedges a campaign.
func NewGuard(client *redis.Client, ttl time.Duration, log logger.Logger) *Guard {
	return &Guard{
		client: client,
		ttl:    ttl,
		logger: log,
	}
}

func (g *Guard) key(campaignID uuid.UUID, platform string) string {
	return fmt.Sprintf("publish:campaign:%s:%s", campaignID, platform)
}

// TryAcquire claims the campaign/platform pair for the guard window.
// Returns false when another trigger already holds it. Redis errors
// deliberately report acquired: the guard is an optimization, and the
// database constraint catches what it misses.
func (g *Guard) TryAcquire(ctx context.Context, campaignID uuid.UUID, platform string) bool {
	key := g.key(campaignID, platform)

	acquired, err := g.client.SetNX(ctx, key, "1", g.ttl).Result()
	if err != nil {
		g.logger.Error("redis error acquiring publish guard",
			logger.String("redis_key", key),
			logger.Error(err),
		)
		return true
	}

	if !acquired {
		g.logger.Debug("duplicate publish trigger absorbed",
			logger.String("campaign_id", campaignID.String()),
			logger.String("platform", platform),
		)
	}
	return acquired
}

// Release drops the guard early so a failed step can be retried before
// the TTL expires.
func (g *Guard) Release(ctx context.Context, campaignID uuid.UUID, platform string) error {
	key := g.key(campaignID, platform)

	if err := g.client.Del(ctx, key).Err(); err != nil {
		g.logger.Error("redis error releasing publish guard",
			logger.String("redis_key", key),
			logger.Error(err),
		)
		return err
	}
	return nil
}
