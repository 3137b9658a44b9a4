// Package orchestrator drives a campaign through its platform sequence:
// publish one step, record the outcome, decide what happens next. All
// completion and continuation decisions live here.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/belonio2793/backlinkoo-automation/internal/content"
	"github.com/belonio2793/backlinkoo-automation/internal/domain"
	"github.com/belonio2793/backlinkoo-automation/internal/logger"
	"github.com/belonio2793/backlinkoo-automation/internal/metrics"
	"github.com/belonio2793/backlinkoo-automation/internal/platform"
)

// StepResult reports what one publish step did.
type StepResult struct {
	CampaignID   uuid.UUID  `json:"campaign_id"`
	Platform     string     `json:"platform"`
	PublishedURL string     `json:"published_url,omitempty"`
	Skipped      bool       `json:"skipped"`
	Action       ActionKind `json:"action"`
	NextPlatform string     `json:"next_platform,omitempty"`
}

// Deps collects the engine's collaborators. Guard, Telemetry and Stats are
// optional; the engine runs without them.
type Deps struct {
	Registry  *platform.Registry
	Campaigns CampaignStore
	Links     LinkStore
	Activity  ActivityLog
	Queue     ContinuationQueue
	Generator content.Generator
	Publisher Publisher
	Guard     TriggerGuard
	Telemetry Instrumentation
	Stats     StatsRecorder
	Delay     time.Duration
	Logger    logger.Logger
}

// Engine is the orchestration entry point.
type Engine struct {
	deps  Deps
	delay time.Duration
}

// NewEngine creates the engine. A non-positive delay falls back to 5s.
func NewEngine(deps Deps) *Engine {
	delay := deps.Delay
	if delay <= 0 {
		delay = 5 * time.Second
	}
	return &Engine{deps: deps, delay: delay}
}

// PublishStep performs "publish campaign to platform" and hands off to the
// continuation decision. rawPlatform may be empty, in which case the next
// platform is chosen from scratch. Safe to invoke more than once for the
// same pair: duplicates take the skip path.
func (e *Engine) PublishStep(ctx context.Context, campaignID uuid.UUID, rawPlatform string) (*StepResult, error) {
	campaign, err := e.deps.Campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if !campaign.CanPublish() {
		return nil, fmt.Errorf("%w: campaign %s is %s", domain.ErrCampaignNotActive, campaign.ID, campaign.Status)
	}

	platformID, early, err := e.resolvePlatform(ctx, campaign, rawPlatform)
	if err != nil {
		return nil, err
	}
	if early != nil {
		return early, nil
	}

	result := &StepResult{CampaignID: campaignID, Platform: platformID}

	link, err := e.deps.Links.GetByCampaignAndPlatform(ctx, campaignID, platformID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	switch {
	case link != nil:
		// Duplicate trigger for an already-published pair: no external
		// call, reuse the existing row and still run the decision below.
		result.Skipped = true
		result.PublishedURL = link.PublishedURL
		e.recordSkip(ctx, campaign, platformID)
	case e.deps.Guard != nil && !e.deps.Guard.TryAcquire(ctx, campaignID, platformID):
		// Another trigger for this pair is in flight. Let it run the
		// decision; absorbing here means no double publish attempt.
		result.Skipped = true
		e.logActivity(ctx, campaignID, domain.ActivityLevelInfo,
			fmt.Sprintf("duplicate trigger for %s absorbed, publish already in flight", platformID))
		return result, nil
	default:
		url, pubErr := e.publish(ctx, campaign, platformID, result)
		if pubErr != nil {
			return nil, pubErr
		}
		result.PublishedURL = url
	}

	return e.decideNext(ctx, campaign, result)
}

// resolvePlatform maps the raw trigger input to a canonical enabled
// platform id. When the trigger omits the platform, the next one is chosen
// by Decide against fresh state; Complete or NoOp at that point short-
// circuits into an early result.
func (e *Engine) resolvePlatform(ctx context.Context, campaign *domain.Campaign, raw string) (string, *StepResult, error) {
	if raw != "" {
		canonical := e.deps.Registry.Normalize(raw)
		desc, ok := e.deps.Registry.Lookup(canonical)
		if !ok || !desc.Enabled {
			e.logActivity(ctx, campaign.ID, domain.ActivityLevelWarn,
				fmt.Sprintf("unrecognized platform %q (normalized to %q), nothing published", raw, canonical))
			return "", nil, fmt.Errorf("%w: %q", domain.ErrUnknownPlatform, raw)
		}
		return canonical, nil, nil
	}

	published, err := e.publishedSet(ctx, campaign.ID)
	if err != nil {
		return "", nil, err
	}

	action := Decide(e.deps.Registry.Enabled(), published)
	switch action.Kind {
	case ActionAdvance:
		return action.Next, nil, nil
	case ActionComplete:
		result := &StepResult{CampaignID: campaign.ID, Skipped: true, Action: ActionComplete}
		if err := e.complete(ctx, campaign, len(published) == 0); err != nil {
			return "", nil, err
		}
		return "", result, nil
	default:
		e.reportInvariantViolation(ctx, campaign.ID)
		return "", &StepResult{CampaignID: campaign.ID, Skipped: true, Action: ActionNoOp}, nil
	}
}

// publish generates content, calls the platform adapter and records the
// link. A failure on any leg pauses the campaign.
func (e *Engine) publish(ctx context.Context, campaign *domain.Campaign, platformID string, result *StepResult) (string, error) {
	start := time.Now()

	article, err := e.deps.Generator.Generate(ctx, campaign)
	if err != nil {
		e.releaseGuard(ctx, campaign.ID, platformID)
		e.pause(ctx, campaign, platformID, fmt.Sprintf("content generation failed: %v", err))
		return "", fmt.Errorf("%w: content generation: %v", domain.ErrPublishFailed, err)
	}

	url, err := e.deps.Publisher.Publish(ctx, platformID, campaign, article)
	if err != nil {
		e.releaseGuard(ctx, campaign.ID, platformID)
		e.recordPublish(ctx, campaign, platformID, false, time.Since(start))
		e.pause(ctx, campaign, platformID, fmt.Sprintf("publish to %s failed: %v", platformID, err))
		return "", err
	}

	now := time.Now().UTC()
	link := &domain.PublishedLink{
		ID:           uuid.New(),
		CampaignID:   campaign.ID,
		Platform:     platformID,
		PublishedURL: url,
		Title:        article.Title,
		Status:       domain.LinkStatusPublished,
		PublishedAt:  now,
		CreatedAt:    now,
	}

	stored, inserted, err := e.deps.Links.InsertIfAbsent(ctx, link)
	if err != nil {
		// The platform has the content but the ledger does not. Pause so
		// an operator resolves it instead of publishing again. The guard
		// must not outlive the step or a resume inside its window would be
		// absorbed with no in-flight publish to hand off to.
		e.releaseGuard(ctx, campaign.ID, platformID)
		e.pause(ctx, campaign, platformID, fmt.Sprintf("ledger write for %s failed after publish: %v", platformID, err))
		return "", fmt.Errorf("record published link: %w", err)
	}
	if !inserted {
		// Concurrent trigger won the insert race. Their row is the fact.
		result.Skipped = true
		e.recordSkip(ctx, campaign, platformID)
		return stored.PublishedURL, nil
	}

	e.recordPublish(ctx, campaign, platformID, true, time.Since(start))
	if e.deps.Stats != nil {
		_ = e.deps.Stats.AddRecentLink(ctx, metrics.RecentLink{
			CampaignID: campaign.ID.String(),
			Platform:   platformID,
			URL:        url,
			Title:      article.Title,
			PostedAt:   now,
		})
	}
	e.logActivity(ctx, campaign.ID, domain.ActivityLevelInfo,
		fmt.Sprintf("published to %s: %s", platformID, url))

	return url, nil
}

// decideNext re-reads fresh state, runs the continuation decision and acts
// on it.
func (e *Engine) decideNext(ctx context.Context, campaign *domain.Campaign, result *StepResult) (*StepResult, error) {
	published, err := e.publishedSet(ctx, campaign.ID)
	if err != nil {
		return nil, err
	}

	action := Decide(e.deps.Registry.Enabled(), published)
	result.Action = action.Kind

	switch action.Kind {
	case ActionComplete:
		if err := e.complete(ctx, campaign, len(published) == 0); err != nil {
			return nil, err
		}
	case ActionAdvance:
		result.NextPlatform = action.Next
		cont := domain.NewContinuation(campaign.ID, action.Next, e.delay)
		if err := e.deps.Queue.Enqueue(ctx, cont); err != nil {
			e.pause(ctx, campaign, action.Next,
				fmt.Sprintf("scheduling continuation for %s failed: %v", action.Next, err))
			return nil, fmt.Errorf("%w: %v", domain.ErrScheduleFailed, err)
		}
		if e.deps.Telemetry != nil {
			e.deps.Telemetry.RecordEnqueue()
		}
		e.logActivity(ctx, campaign.ID, domain.ActivityLevelInfo,
			fmt.Sprintf("continuation scheduled for %s in %s", action.Next, e.delay))
	case ActionNoOp:
		e.reportInvariantViolation(ctx, campaign.ID)
	}

	return result, nil
}

// ScheduleNext enqueues the campaign's next unpublished platform. Used by
// the resume flow; returns the chosen platform id, or "" when the campaign
// is already complete.
func (e *Engine) ScheduleNext(ctx context.Context, campaignID uuid.UUID) (string, error) {
	published, err := e.publishedSet(ctx, campaignID)
	if err != nil {
		return "", err
	}

	action := Decide(e.deps.Registry.Enabled(), published)
	if action.Kind != ActionAdvance {
		return "", nil
	}

	cont := domain.NewContinuation(campaignID, action.Next, e.delay)
	if err := e.deps.Queue.Enqueue(ctx, cont); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrScheduleFailed, err)
	}
	if e.deps.Telemetry != nil {
		e.deps.Telemetry.RecordEnqueue()
	}
	e.logActivity(ctx, campaignID, domain.ActivityLevelInfo,
		fmt.Sprintf("continuation scheduled for %s in %s", action.Next, e.delay))
	return action.Next, nil
}

func (e *Engine) publishedSet(ctx context.Context, campaignID uuid.UUID) (domain.PublishedSet, error) {
	platforms, err := e.deps.Links.PublishedPlatforms(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("read published set: %w", err)
	}
	return domain.NewPublishedSet(platforms), nil
}

func (e *Engine) complete(ctx context.Context, campaign *domain.Campaign, vacuous bool) error {
	if err := e.deps.Campaigns.MarkCompleted(ctx, campaign.ID); err != nil {
		return fmt.Errorf("mark campaign completed: %w", err)
	}
	if e.deps.Telemetry != nil {
		e.deps.Telemetry.RecordCompletion()
	}

	message := "campaign completed: every enabled platform has published"
	if vacuous {
		message = "campaign completed vacuously: no platforms are enabled, nothing was published"
	}
	e.logActivity(ctx, campaign.ID, domain.ActivityLevelInfo, message)
	e.deps.Logger.Info("campaign completed",
		logger.String("campaign_id", campaign.ID.String()),
		logger.Bool("vacuous", vacuous))
	return nil
}

// pause transitions the campaign to paused and records why. Best effort:
// a pause failure is logged, not propagated, so the original error wins.
func (e *Engine) pause(ctx context.Context, campaign *domain.Campaign, platformID, reason string) {
	if err := e.deps.Campaigns.Pause(ctx, campaign.ID, reason); err != nil {
		e.deps.Logger.Error("failed to pause campaign",
			logger.String("campaign_id", campaign.ID.String()),
			logger.Error(err))
	}
	if e.deps.Telemetry != nil {
		e.deps.Telemetry.RecordPause()
	}
	if e.deps.Stats != nil {
		_ = e.deps.Stats.IncrementErrors(ctx, platformID)
	}
	e.logActivity(ctx, campaign.ID, domain.ActivityLevelError, reason)
}

func (e *Engine) recordPublish(ctx context.Context, campaign *domain.Campaign, platformID string, success bool, duration time.Duration) {
	if e.deps.Telemetry != nil {
		e.deps.Telemetry.RecordPublish(platformID, success, duration)
	}
	if success && e.deps.Stats != nil {
		_ = e.deps.Stats.IncrementPublished(ctx, platformID)
	}
}

func (e *Engine) recordSkip(ctx context.Context, campaign *domain.Campaign, platformID string) {
	if e.deps.Telemetry != nil {
		e.deps.Telemetry.RecordSkip(platformID)
	}
	if e.deps.Stats != nil {
		_ = e.deps.Stats.IncrementSkipped(ctx, platformID)
	}
	e.logActivity(ctx, campaign.ID, domain.ActivityLevelInfo,
		fmt.Sprintf("already published to %s, skipping duplicate publish", platformID))
}

func (e *Engine) reportInvariantViolation(ctx context.Context, campaignID uuid.UUID) {
	e.logActivity(ctx, campaignID, domain.ActivityLevelError,
		"invariant violation: enabled platforms exist, none unpublished, completion did not hold; status left for inspection")
	e.deps.Logger.Error("continuation decision reached noop",
		logger.String("campaign_id", campaignID.String()))
}

func (e *Engine) releaseGuard(ctx context.Context, campaignID uuid.UUID, platformID string) {
	if e.deps.Guard != nil {
		_ = e.deps.Guard.Release(ctx, campaignID, platformID)
	}
}

func (e *Engine) logActivity(ctx context.Context, campaignID uuid.UUID, level domain.ActivityLevel, message string) {
	if err := e.deps.Activity.Append(ctx, campaignID, level, message); err != nil {
		e.deps.Logger.Warn("failed to append activity entry",
			logger.String("campaign_id", campaignID.String()),
			logger.Error(err))
	}
}
