package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/belonio2793/backlinkoo-automation/internal/domain"
)

// campaignColumns is the column list for SELECT/RETURNING on
// automation_campaigns (single source for schema changes).
const campaignColumns = `id, name, keyword, anchor_text, target_url, status,
		error_message, created_at, updated_at, completed_at`

// CampaignRepository manages automation_campaigns rows.
type CampaignRepository struct {
	db *sqlx.DB
}

// NewCampaignRepository creates a new repository.
func NewCampaignRepository(db *sqlx.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// Create inserts a new campaign.
func (r *CampaignRepository) Create(ctx context.Context, c *domain.Campaign) error {
	query := `
		INSERT INTO automation_campaigns
			(id, name, keyword, anchor_text, target_url, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.Name, c.Keyword, c.AnchorText, c.TargetURL, c.Status, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

// GetByID retrieves a campaign by id.
func (r *CampaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM automation_campaigns WHERE id = $1`

	var c domain.Campaign
	err := r.db.GetContext(ctx, &c, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return &c, nil
}

// List retrieves campaigns, newest first.
func (r *CampaignRepository) List(ctx context.Context, limit, offset int) ([]domain.Campaign, error) {
	query := `SELECT ` + campaignColumns + `
		FROM automation_campaigns
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	campaigns := []domain.Campaign{}
	if err := r.db.SelectContext(ctx, &campaigns, query, limit, offset); err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	return campaigns, nil
}

// UpdateStatus sets the campaign status. The guard clause refuses to leave
// a terminal state: a completed or failed campaign stays that way no matter
// what a late step reports.
func (r *CampaignRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.CampaignStatus) error {
	query := `
		UPDATE automation_campaigns
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		  AND status NOT IN ('completed', 'failed')`
	return r.execExpectOneRow(ctx, "update campaign status", query, id, status)
}

// MarkCompleted flips a campaign to completed with a completion timestamp.
// Idempotent: completing an already-completed campaign is not an error.
func (r *CampaignRepository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE automation_campaigns
		SET status = 'completed',
		    completed_at = COALESCE(completed_at, NOW()),
		    updated_at = NOW()
		WHERE id = $1
		  AND status <> 'failed'`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark campaign completed: %w", err)
	}
	rows, rowsErr := result.RowsAffected()
	if rowsErr != nil {
		return fmt.Errorf("get affected rows: %w", rowsErr)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Pause transitions a campaign to paused and records why. Terminal states
// are left untouched.
func (r *CampaignRepository) Pause(ctx context.Context, id uuid.UUID, reason string) error {
	query := `
		UPDATE automation_campaigns
		SET status = 'paused', error_message = $2, updated_at = NOW()
		WHERE id = $1
		  AND status NOT IN ('completed', 'failed')`
	return r.execExpectOneRow(ctx, "pause campaign", query, id, reason)
}

// Resume transitions a paused campaign back to active and clears the error.
func (r *CampaignRepository) Resume(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE automation_campaigns
		SET status = 'active', error_message = NULL, updated_at = NOW()
		WHERE id = $1
		  AND status = 'paused'`
	return r.execExpectOneRow(ctx, "resume campaign", query, id)
}

// Ping verifies database connectivity for health checks.
func (r *CampaignRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// execExpectOneRow runs an exec and returns domain.ErrNotFound when no row
// was affected.
func (r *CampaignRepository) execExpectOneRow(ctx context.Context, op, query string, args ...any) error {
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
