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

const linkColumns = `id, campaign_id, platform, published_url, title, status,
		published_at, created_at`

// LinkRepository manages automation_published_links rows. The UNIQUE
// (campaign_id, platform) constraint on the table is the engine's
// idempotency guarantee; all inserts go through InsertIfAbsent.
type LinkRepository struct {
	db *sqlx.DB
}

// NewLinkRepository creates a new repository.
func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// InsertIfAbsent atomically inserts a published link unless one already
// exists for the (campaign, platform) pair. It returns the row that ends
// up in the table (the new one, or the pre-existing one when a concurrent
// writer won the race) and whether this call inserted it.
//
// Platform must already be canonical; the orchestrator normalizes before
// any storage.
func (r *LinkRepository) InsertIfAbsent(ctx context.Context, link *domain.PublishedLink) (*domain.PublishedLink, bool, error) {
	query := `
		INSERT INTO automation_published_links
			(id, campaign_id, platform, published_url, title, status, published_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (campaign_id, platform) DO NOTHING
		RETURNING ` + linkColumns

	var inserted domain.PublishedLink
	err := r.db.QueryRowxContext(ctx, query,
		link.ID, link.CampaignID, link.Platform, link.PublishedURL,
		link.Title, link.Status, link.PublishedAt, link.CreatedAt,
	).StructScan(&inserted)

	if err == nil {
		return &inserted, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("insert published link: %w", err)
	}

	// Conflict path: the row exists, fetch it.
	existing, getErr := r.GetByCampaignAndPlatform(ctx, link.CampaignID, link.Platform)
	if getErr != nil {
		return nil, false, fmt.Errorf("fetch existing published link after conflict: %w", getErr)
	}
	return existing, false, nil
}

// GetByCampaignAndPlatform retrieves the link for a (campaign, canonical
// platform) pair.
func (r *LinkRepository) GetByCampaignAndPlatform(ctx context.Context, campaignID uuid.UUID, platform string) (*domain.PublishedLink, error) {
	query := `SELECT ` + linkColumns + `
		FROM automation_published_links
		WHERE campaign_id = $1 AND platform = $2`

	var link domain.PublishedLink
	err := r.db.GetContext(ctx, &link, query, campaignID, platform)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get published link: %w", err)
	}
	return &link, nil
}

// ListByCampaign retrieves every published link for a campaign in publish
// order.
func (r *LinkRepository) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]domain.PublishedLink, error) {
	query := `SELECT ` + linkColumns + `
		FROM automation_published_links
		WHERE campaign_id = $1
		ORDER BY published_at ASC`

	links := []domain.PublishedLink{}
	if err := r.db.SelectContext(ctx, &links, query, campaignID); err != nil {
		return nil, fmt.Errorf("list published links: %w", err)
	}
	return links, nil
}

// PublishedPlatforms returns the canonical platform ids a campaign has
// published to. Callers must read this fresh before every completion
// decision rather than caching it across steps.
func (r *LinkRepository) PublishedPlatforms(ctx context.Context, campaignID uuid.UUID) ([]string, error) {
	query := `SELECT platform FROM automation_published_links WHERE campaign_id = $1`

	platforms := []string{}
	if err := r.db.SelectContext(ctx, &platforms, query, campaignID); err != nil {
		return nil, fmt.Errorf("list published platforms: %w", err)
	}
	return platforms, nil
}
