package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/belonio2793/backlinkoo-automation/internal/domain"
)

const continuationColumns = `id, campaign_id, platform, status, run_at,
		attempts, error_message, created_at, updated_at`

// ContinuationRepository manages the automation_continuations queue: the
// persisted deferred-invocation primitive that advances a campaign to its
// next platform without an always-on scheduler.
type ContinuationRepository struct {
	db *sqlx.DB
}

// NewContinuationRepository creates a new repository.
func NewContinuationRepository(db *sqlx.DB) *ContinuationRepository {
	return &ContinuationRepository{db: db}
}

// Enqueue inserts a pending continuation. A failure here must bubble up so
// the orchestrator can pause the campaign instead of leaving it active
// with no pending work.
func (r *ContinuationRepository) Enqueue(ctx context.Context, c *domain.Continuation) error {
	query := `
		INSERT INTO automation_continuations
			(id, campaign_id, platform, status, run_at, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.CampaignID, c.Platform, c.Status, c.RunAt, c.Attempts, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("enqueue continuation: %w", err)
	}
	return nil
}

// ClaimDue atomically claims up to limit due continuations, marking them
// running. FOR UPDATE SKIP LOCKED keeps concurrent workers from claiming
// the same row.
func (r *ContinuationRepository) ClaimDue(ctx context.Context, limit int) ([]domain.Continuation, error) {
	query := `
		UPDATE automation_continuations
		SET status = 'running', attempts = attempts + 1, updated_at = NOW()
		WHERE id IN (
			SELECT id FROM automation_continuations
			WHERE status = 'pending'
			  AND run_at <= NOW()
			ORDER BY run_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + continuationColumns

	claimed := []domain.Continuation{}
	rows, err := r.db.QueryxContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("claim due continuations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.Continuation
		if scanErr := rows.StructScan(&c); scanErr != nil {
			return nil, fmt.Errorf("scan continuation: %w", scanErr)
		}
		claimed = append(claimed, c)
	}
	return claimed, rows.Err()
}

// MarkDone marks a claimed continuation as processed.
func (r *ContinuationRepository) MarkDone(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE automation_continuations
		SET status = 'done', updated_at = NOW()
		WHERE id = $1`
	return r.execExpectOneRow(ctx, "mark continuation done", query, id)
}

// MarkFailed marks a claimed continuation as failed with the error text.
// Failed continuations stay in the table for diagnosis; retrying a step is
// an explicit resume action, not an automatic loop.
func (r *ContinuationRepository) MarkFailed(ctx context.Context, id uuid.UUID, errorMsg string) error {
	query := `
		UPDATE automation_continuations
		SET status = 'failed', error_message = $2, updated_at = NOW()
		WHERE id = $1`
	return r.execExpectOneRow(ctx, "mark continuation failed", query, id, errorMsg)
}

// ResetStale returns running continuations older than the threshold to
// pending. Covers a worker that claimed rows and crashed before finishing.
func (r *ContinuationRepository) ResetStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
		UPDATE automation_continuations
		SET status = 'pending', updated_at = NOW()
		WHERE status = 'running'
		  AND updated_at < NOW() - $1::interval`

	result, err := r.db.ExecContext(ctx, query, olderThan.String())
	if err != nil {
		return 0, fmt.Errorf("reset stale continuations: %w", err)
	}
	return result.RowsAffected()
}

// CleanupDone removes processed continuations older than the retention
// window.
func (r *ContinuationRepository) CleanupDone(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
		DELETE FROM automation_continuations
		WHERE status = 'done'
		  AND updated_at < NOW() - $1::interval`

	result, err := r.db.ExecContext(ctx, query, olderThan.String())
	if err != nil {
		return 0, fmt.Errorf("cleanup done continuations: %w", err)
	}
	return result.RowsAffected()
}

// Stats returns queue counts for monitoring.
func (r *ContinuationRepository) Stats(ctx context.Context) (*domain.ContinuationStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending') as pending,
			COUNT(*) FILTER (WHERE status = 'running') as running,
			COUNT(*) FILTER (WHERE status = 'done') as done,
			COUNT(*) FILTER (WHERE status = 'failed') as failed
		FROM automation_continuations`

	var stats domain.ContinuationStats
	err := r.db.QueryRowxContext(ctx, query).Scan(
		&stats.Pending, &stats.Running, &stats.Done, &stats.Failed)
	if err != nil {
		return nil, fmt.Errorf("continuation stats: %w", err)
	}
	return &stats, nil
}

func (r *ContinuationRepository) execExpectOneRow(ctx context.Context, op, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rows, rowsErr := result.RowsAffected()
	if rowsErr != nil {
		return fmt.Errorf("%s: get affected rows: %w", op, rowsErr)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
