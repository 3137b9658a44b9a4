package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/belonio2793/backlinkoo-automation/internal/domain"
)

// ActivityRepository appends to and reads the automation_activity table.
// The table is append-only: no update or delete statements exist here.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository creates a new repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Append writes one activity entry.
func (r *ActivityRepository) Append(ctx context.Context, campaignID uuid.UUID, level domain.ActivityLevel, message string) error {
	query := `
		INSERT INTO automation_activity (campaign_id, level, message, created_at)
		VALUES ($1, $2, $3, NOW())`

	if _, err := r.db.ExecContext(ctx, query, campaignID, level, message); err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

// ListByCampaign retrieves activity entries for a campaign, newest first.
func (r *ActivityRepository) ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit int) ([]domain.ActivityEntry, error) {
	query := `
		SELECT id, campaign_id, level, message, created_at
		FROM automation_activity
		WHERE campaign_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	entries := []domain.ActivityEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, campaignID, limit); err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return entries, nil
}
