package database_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/belonio2793/backlinkoo-automation/internal/database"
	"github.com/belonio2793/backlinkoo-automation/internal/domain"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func linkRows(link *domain.PublishedLink) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "campaign_id", "platform", "published_url", "title", "status",
		"published_at", "created_at",
	}).AddRow(
		link.ID, link.CampaignID, link.Platform, link.PublishedURL,
		link.Title, link.Status, link.PublishedAt, link.CreatedAt,
	)
}

func testLink(campaignID uuid.UUID) *domain.PublishedLink {
	now := time.Now().UTC()
	return &domain.PublishedLink{
		ID:           uuid.New(),
		CampaignID:   campaignID,
		Platform:     "telegraph",
		PublishedURL: "https://telegra.ph/go-hosting-01-01",
		Title:        "go hosting: Professional Guide",
		Status:       domain.LinkStatusPublished,
		PublishedAt:  now,
		CreatedAt:    now,
	}
}

func TestLinkRepository_InsertIfAbsent_New(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewLinkRepository(db)
	ctx := context.Background()

	campaignID := uuid.New()
	link := testLink(campaignID)

	mock.ExpectQuery("INSERT INTO automation_published_links").
		WithArgs(link.ID, link.CampaignID, link.Platform, link.PublishedURL,
			link.Title, link.Status, link.PublishedAt, link.CreatedAt).
		WillReturnRows(linkRows(link))

	got, inserted, err := repo.InsertIfAbsent(ctx, link)
	if err != nil {
		t.Fatalf("InsertIfAbsent() error = %v", err)
	}
	if !inserted {
		t.Error("inserted = false, want true for a fresh pair")
	}
	if got.Platform != "telegraph" {
		t.Errorf("Platform = %q, want %q", got.Platform, "telegraph")
	}

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}

func TestLinkRepository_InsertIfAbsent_Conflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewLinkRepository(db)
	ctx := context.Background()

	campaignID := uuid.New()
	link := testLink(campaignID)
	existing := testLink(campaignID)
	existing.PublishedURL = "https://telegra.ph/earlier-winner"

	// ON CONFLICT DO NOTHING with RETURNING yields no rows for the loser.
	mock.ExpectQuery("INSERT INTO automation_published_links").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT (.+) FROM automation_published_links").
		WithArgs(campaignID, "telegraph").
		WillReturnRows(linkRows(existing))

	got, inserted, err := repo.InsertIfAbsent(ctx, link)
	if err != nil {
		t.Fatalf("InsertIfAbsent() error = %v", err)
	}
	if inserted {
		t.Error("inserted = true, want false on conflict")
	}
	if got.PublishedURL != existing.PublishedURL {
		t.Errorf("PublishedURL = %q, want the pre-existing row's %q",
			got.PublishedURL, existing.PublishedURL)
	}

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}

func TestLinkRepository_GetByCampaignAndPlatform_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewLinkRepository(db)

	campaignID := uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM automation_published_links").
		WithArgs(campaignID, "writeas").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByCampaignAndPlatform(context.Background(), campaignID, "writeas")
	if err != domain.ErrNotFound {
		t.Errorf("error = %v, want domain.ErrNotFound", err)
	}
}

func TestLinkRepository_PublishedPlatforms(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewLinkRepository(db)

	campaignID := uuid.New()
	mock.ExpectQuery("SELECT platform FROM automation_published_links").
		WithArgs(campaignID).
		WillReturnRows(sqlmock.NewRows([]string{"platform"}).
			AddRow("telegraph").
			AddRow("writeas"))

	platforms, err := repo.PublishedPlatforms(context.Background(), campaignID)
	if err != nil {
		t.Fatalf("PublishedPlatforms() error = %v", err)
	}
	if len(platforms) != 2 {
		t.Fatalf("got %d platforms, want 2", len(platforms))
	}
	if platforms[0] != "telegraph" || platforms[1] != "writeas" {
		t.Errorf("platforms = %v", platforms)
	}
}
