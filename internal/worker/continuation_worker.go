// Package worker provides the background loop that drains the
// continuation queue: claim due rows, run the publish step, mark the
// outcome. Separate recovery and cleanup loops keep the queue healthy
// across crashes.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/belonio2793/backlinkoo-automation/internal/domain"
	"github.com/belonio2793/backlinkoo-automation/internal/logger"
	"github.com/belonio2793/backlinkoo-automation/internal/orchestrator"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultBatchSize    = 20
	defaultStepTimeout  = 60 * time.Second
	staleRunningAge     = 5 * time.Minute
	cleanupRetention    = 7 * 24 * time.Hour
)

// ContinuationStore is the queue slice the worker needs.
type ContinuationStore interface {
	ClaimDue(ctx context.Context, limit int) ([]domain.Continuation, error)
	MarkDone(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errorMsg string) error
	ResetStale(ctx context.Context, olderThan time.Duration) (int64, error)
	CleanupDone(ctx context.Context, olderThan time.Duration) (int64, error)
	Stats(ctx context.Context) (*domain.ContinuationStats, error)
}

// StepRunner runs one publish step. Satisfied by orchestrator.Engine.
type StepRunner interface {
	PublishStep(ctx context.Context, campaignID uuid.UUID, platformID string) (*orchestrator.StepResult, error)
}

// Instrumentation receives worker outcomes. Satisfied by metrics.Provider.
type Instrumentation interface {
	RecordClaim(runAt time.Time)
	RecordContinuationFailure()
	SetQueueDepth(depth int64)
}

// ContinuationWorker polls the continuation queue and invokes the engine.
type ContinuationWorker struct {
	store     ContinuationStore
	engine    StepRunner
	telemetry Instrumentation
	logger    logger.Logger
	tracer    trace.Tracer

	pollInterval time.Duration
	batchSize    int
	stepTimeout  time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
	started  bool
	mu       sync.Mutex
}

// Config holds worker tuning options.
type Config struct {
	PollInterval time.Duration
	BatchSize    int
	StepTimeout  time.Duration
}

// NewContinuationWorker creates a worker. Telemetry may be nil.
func NewContinuationWorker(store ContinuationStore, engine StepRunner, telemetry Instrumentation, cfg Config, log logger.Logger) *ContinuationWorker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = defaultStepTimeout
	}

	return &ContinuationWorker{
		store:        store,
		engine:       engine,
		telemetry:    telemetry,
		logger:       log,
		tracer:       otel.Tracer("continuation-worker"),
		pollInterval: cfg.PollInterval,
		batchSize:    cfg.BatchSize,
		stepTimeout:  cfg.StepTimeout,
		stopChan:     make(chan struct{}),
	}
}

// Start begins the polling, recovery and cleanup loops.
func (w *ContinuationWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run(ctx)

	w.wg.Add(1)
	go w.runRecovery(ctx)

	w.wg.Add(1)
	go w.runCleanup(ctx)

	w.logger.Info("continuation worker started",
		logger.Duration("poll_interval", w.pollInterval),
		logger.Int("batch_size", w.batchSize))
}

// Stop gracefully stops the worker, waiting for in-flight steps.
func (w *ContinuationWorker) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("continuation worker stopped")
}

// IsRunning returns whether the worker has been started.
func (w *ContinuationWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.started
}

func (w *ContinuationWorker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.processOnce(ctx)

	for {
		select {
		case <-ticker.C:
			w.processOnce(ctx)
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *ContinuationWorker) processOnce(ctx context.Context) {
	due, err := w.store.ClaimDue(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("failed to claim due continuations", logger.Error(err))
		return
	}
	if len(due) == 0 {
		return
	}

	w.logger.Debug("processing due continuations", logger.Int("count", len(due)))
	for i := range due {
		w.processOne(ctx, &due[i])
	}

	if stats, statsErr := w.store.Stats(ctx); statsErr == nil && w.telemetry != nil {
		w.telemetry.SetQueueDepth(stats.Pending)
	}
}

func (w *ContinuationWorker) processOne(ctx context.Context, c *domain.Continuation) {
	ctx, span := w.tracer.Start(ctx, "continuation.publish_step",
		trace.WithAttributes(
			attribute.String("campaign_id", c.CampaignID.String()),
			attribute.String("platform", c.Platform),
			attribute.Int("attempts", c.Attempts),
		))
	defer span.End()

	if w.telemetry != nil {
		w.telemetry.RecordClaim(c.RunAt)
	}

	stepCtx, cancel := context.WithTimeout(ctx, w.stepTimeout)
	defer cancel()

	result, err := w.engine.PublishStep(stepCtx, c.CampaignID, c.Platform)
	if err != nil {
		// A paused or completed campaign refusing its continuation is an
		// expected race, not a queue failure.
		if errors.Is(err, domain.ErrCampaignNotActive) {
			w.logger.Info("continuation dropped, campaign no longer active",
				logger.String("campaign_id", c.CampaignID.String()),
				logger.String("platform", c.Platform))
			w.markDone(ctx, c)
			return
		}

		w.logger.Error("continuation publish step failed",
			logger.String("campaign_id", c.CampaignID.String()),
			logger.String("platform", c.Platform),
			logger.Error(err))
		if w.telemetry != nil {
			w.telemetry.RecordContinuationFailure()
		}
		if markErr := w.store.MarkFailed(ctx, c.ID, err.Error()); markErr != nil {
			w.logger.Error("failed to mark continuation as failed",
				logger.String("continuation_id", c.ID.String()),
				logger.Error(markErr))
		}
		return
	}

	w.logger.Debug("continuation processed",
		logger.String("campaign_id", c.CampaignID.String()),
		logger.String("platform", result.Platform),
		logger.String("action", string(result.Action)),
		logger.Bool("skipped", result.Skipped))
	w.markDone(ctx, c)
}

func (w *ContinuationWorker) markDone(ctx context.Context, c *domain.Continuation) {
	if err := w.store.MarkDone(ctx, c.ID); err != nil {
		// The step ran; the recovery loop will re-claim the row and the
		// idempotency skip path absorbs the replay.
		w.logger.Error("failed to mark continuation as done",
			logger.String("continuation_id", c.ID.String()),
			logger.Error(err))
	}
}

// runRecovery resets stale running rows back to pending. Covers a worker
// that claimed rows and crashed before finishing.
func (w *ContinuationWorker) runRecovery(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			reset, err := w.store.ResetStale(ctx, staleRunningAge)
			if err != nil {
				w.logger.Error("continuation recovery failed", logger.Error(err))
			} else if reset > 0 {
				w.logger.Warn("recovered stale continuations", logger.Int64("reset", reset))
			}
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// runCleanup periodically removes processed rows past the retention window.
func (w *ContinuationWorker) runCleanup(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			deleted, err := w.store.CleanupDone(ctx, cleanupRetention)
			if err != nil {
				w.logger.Error("continuation cleanup failed", logger.Error(err))
			} else if deleted > 0 {
				w.logger.Info("cleaned up processed continuations", logger.Int64("deleted", deleted))
			}
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// GetStats returns queue and worker statistics for the API.
func (w *ContinuationWorker) GetStats(ctx context.Context) (map[string]any, error) {
	stats, err := w.store.Stats(ctx)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"pending":       stats.Pending,
		"running":       stats.Running,
		"done":          stats.Done,
		"failed":        stats.Failed,
		"poll_interval": w.pollInterval.String(),
		"batch_size":    w.batchSize,
		"running_state": w.IsRunning(),
	}, nil
}
