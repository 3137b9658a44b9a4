package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/belonio2793/backlinkoo-automation/internal/content"
	"github.com/belonio2793/backlinkoo-automation/internal/domain"
	"github.com/belonio2793/backlinkoo-automation/internal/metrics"
)

// CampaignStore is the campaign slice of the ledger the engine needs.
type CampaignStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	Pause(ctx context.Context, id uuid.UUID, reason string) error
}

// LinkStore is the published-link slice of the ledger.
type LinkStore interface {
	InsertIfAbsent(ctx context.Context, link *domain.PublishedLink) (*domain.PublishedLink, bool, error)
	GetByCampaignAndPlatform(ctx context.Context, campaignID uuid.UUID, platform string) (*domain.PublishedLink, error)
	PublishedPlatforms(ctx context.Context, campaignID uuid.UUID) ([]string, error)
}

// ActivityLog appends human-readable transition records.
type ActivityLog interface {
	Append(ctx context.Context, campaignID uuid.UUID, level domain.ActivityLevel, message string) error
}

// ContinuationQueue arranges the deferred invocation of the next step.
type ContinuationQueue interface {
	Enqueue(ctx context.Context, c *domain.Continuation) error
}

// Publisher dispatches a publish call to the platform's adapter.
type Publisher interface {
	Publish(ctx context.Context, platformID string, campaign *domain.Campaign, article *content.Article) (string, error)
}

// TriggerGuard absorbs rapid duplicate triggers before they reach the
// external platform. Advisory: the ledger constraint is authoritative.
type TriggerGuard interface {
	TryAcquire(ctx context.Context, campaignID uuid.UUID, platform string) bool
	Release(ctx context.Context, campaignID uuid.UUID, platform string) error
}

// Instrumentation receives step outcomes for Prometheus counters.
type Instrumentation interface {
	RecordPublish(platform string, success bool, duration time.Duration)
	RecordSkip(platform string)
	RecordCompletion()
	RecordPause()
	RecordEnqueue()
}

// StatsRecorder receives step outcomes for the Redis dashboard tracker.
type StatsRecorder interface {
	IncrementPublished(ctx context.Context, platform string) error
	IncrementSkipped(ctx context.Context, platform string) error
	IncrementErrors(ctx context.Context, platform string) error
	AddRecentLink(ctx context.Context, link metrics.RecentLink) error
}
