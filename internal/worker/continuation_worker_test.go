package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/belonio2793/backlinkoo-automation/internal/domain"
	"github.com/belonio2793/backlinkoo-automation/internal/logger"
	"github.com/belonio2793/backlinkoo-automation/internal/orchestrator"
)

type fakeStore struct {
	mu       sync.Mutex
	due      []domain.Continuation
	claimErr error
	done     []uuid.UUID
	failed   map[uuid.UUID]string
	stats    domain.ContinuationStats
}

func newFakeStore() *fakeStore {
	return &fakeStore{failed: make(map[uuid.UUID]string)}
}

func (s *fakeStore) ClaimDue(_ context.Context, limit int) ([]domain.Continuation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimErr != nil {
		return nil, s.claimErr
	}
	if len(s.due) > limit {
		batch := s.due[:limit]
		s.due = s.due[limit:]
		return batch, nil
	}
	batch := s.due
	s.due = nil
	return batch, nil
}

func (s *fakeStore) MarkDone(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = append(s.done, id)
	return nil
}

func (s *fakeStore) MarkFailed(_ context.Context, id uuid.UUID, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[id] = errorMsg
	return nil
}

func (s *fakeStore) ResetStale(_ context.Context, _ time.Duration) (int64, error) {
	return 0, nil
}

func (s *fakeStore) CleanupDone(_ context.Context, _ time.Duration) (int64, error) {
	return 0, nil
}

func (s *fakeStore) Stats(_ context.Context) (*domain.ContinuationStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.stats
	return &stats, nil
}

type fakeRunner struct {
	mu    sync.Mutex
	calls []string
	errBy map[string]error
}

func (r *fakeRunner) PublishStep(_ context.Context, campaignID uuid.UUID, platformID string) (*orchestrator.StepResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, platformID)
	if err, ok := r.errBy[platformID]; ok {
		return nil, err
	}
	return &orchestrator.StepResult{
		CampaignID: campaignID,
		Platform:   platformID,
		Action:     orchestrator.ActionAdvance,
	}, nil
}

type fakeTelemetry struct {
	mu       sync.Mutex
	claims   int
	failures int
	depth    int64
}

func (t *fakeTelemetry) RecordClaim(_ time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.claims++
}

func (t *fakeTelemetry) RecordContinuationFailure() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures++
}

func (t *fakeTelemetry) SetQueueDepth(depth int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.depth = depth
}

func dueContinuation(platform string) domain.Continuation {
	now := time.Now().UTC()
	return domain.Continuation{
		ID:         uuid.New(),
		CampaignID: uuid.New(),
		Platform:   platform,
		Status:     domain.ContinuationStatusRunning,
		RunAt:      now.Add(-time.Second),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func newTestWorker(store *fakeStore, runner *fakeRunner, telemetry Instrumentation) *ContinuationWorker {
	return NewContinuationWorker(store, runner, telemetry, Config{}, logger.NewNopLogger())
}

func TestContinuationWorker_ProcessOnce_Success(t *testing.T) {
	store := newFakeStore()
	c := dueContinuation("telegraph")
	store.due = []domain.Continuation{c}
	store.stats = domain.ContinuationStats{Pending: 3}
	runner := &fakeRunner{}
	telemetry := &fakeTelemetry{}

	w := newTestWorker(store, runner, telemetry)
	w.processOnce(context.Background())

	assert.Equal(t, []string{"telegraph"}, runner.calls)
	require.Len(t, store.done, 1)
	assert.Equal(t, c.ID, store.done[0])
	assert.Empty(t, store.failed)
	assert.Equal(t, 1, telemetry.claims)
	assert.Equal(t, int64(3), telemetry.depth)
}

func TestContinuationWorker_ProcessOnce_StepFailure(t *testing.T) {
	store := newFakeStore()
	c := dueContinuation("writeas")
	store.due = []domain.Continuation{c}
	runner := &fakeRunner{errBy: map[string]error{
		"writeas": fmt.Errorf("%w: account creation rejected", domain.ErrPublishFailed),
	}}
	telemetry := &fakeTelemetry{}

	w := newTestWorker(store, runner, telemetry)
	w.processOnce(context.Background())

	assert.Empty(t, store.done)
	require.Contains(t, store.failed, c.ID)
	assert.Contains(t, store.failed[c.ID], "account creation rejected")
	assert.Equal(t, 1, telemetry.failures)
}

func TestContinuationWorker_ProcessOnce_InactiveCampaignDropped(t *testing.T) {
	store := newFakeStore()
	c := dueContinuation("telegraph")
	store.due = []domain.Continuation{c}
	runner := &fakeRunner{errBy: map[string]error{
		"telegraph": domain.ErrCampaignNotActive,
	}}
	telemetry := &fakeTelemetry{}

	w := newTestWorker(store, runner, telemetry)
	w.processOnce(context.Background())

	// Paused after enqueue is an expected race: drop the row, do not
	// count it as a queue failure.
	require.Len(t, store.done, 1)
	assert.Equal(t, c.ID, store.done[0])
	assert.Empty(t, store.failed)
	assert.Equal(t, 0, telemetry.failures)
}

func TestContinuationWorker_ProcessOnce_ClaimError(t *testing.T) {
	store := newFakeStore()
	store.claimErr = errors.New("connection refused")
	runner := &fakeRunner{}

	w := newTestWorker(store, runner, nil)
	w.processOnce(context.Background())

	assert.Empty(t, runner.calls)
	assert.Empty(t, store.done)
}

func TestContinuationWorker_ProcessOnce_Batch(t *testing.T) {
	store := newFakeStore()
	store.due = []domain.Continuation{
		dueContinuation("telegraph"),
		dueContinuation("writeas"),
		dueContinuation("telegraph"),
	}
	runner := &fakeRunner{}

	w := newTestWorker(store, runner, nil)
	w.processOnce(context.Background())

	assert.Equal(t, []string{"telegraph", "writeas", "telegraph"}, runner.calls)
	assert.Len(t, store.done, 3)
}

func TestContinuationWorker_StartStop(t *testing.T) {
	store := newFakeStore()
	store.due = []domain.Continuation{dueContinuation("telegraph")}
	runner := &fakeRunner{}

	w := NewContinuationWorker(store, runner, nil, Config{
		PollInterval: 10 * time.Millisecond,
	}, logger.NewNopLogger())

	assert.False(t, w.IsRunning())
	w.Start(context.Background())
	assert.True(t, w.IsRunning())

	// The initial pass runs before the first tick.
	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.done) == 1
	}, time.Second, 5*time.Millisecond)

	w.Stop()
}

func TestContinuationWorkerConfig_Defaults(t *testing.T) {
	w := NewContinuationWorker(newFakeStore(), &fakeRunner{}, nil, Config{}, logger.NewNopLogger())

	assert.Equal(t, defaultPollInterval, w.pollInterval)
	assert.Equal(t, defaultBatchSize, w.batchSize)
	assert.Equal(t, defaultStepTimeout, w.stepTimeout)
}

func TestContinuationWorker_GetStats(t *testing.T) {
	store := newFakeStore()
	store.stats = domain.ContinuationStats{Pending: 2, Running: 1, Done: 10, Failed: 1}

	w := newTestWorker(store, &fakeRunner{}, nil)
	stats, err := w.GetStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats["pending"])
	assert.Equal(t, int64(10), stats["done"])
	assert.Equal(t, defaultBatchSize, stats["batch_size"])
	assert.Equal(t, false, stats["running_state"])
}
