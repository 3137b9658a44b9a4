package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/belonio2793/backlinkoo-automation/internal/database"
	"github.com/belonio2793/backlinkoo-automation/internal/domain"
)

func TestContinuationRepository_Enqueue(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewContinuationRepository(db)

	c := domain.NewContinuation(uuid.New(), "writeas", 5*time.Second)

	mock.ExpectExec("INSERT INTO automation_continuations").
		WithArgs(c.ID, c.CampaignID, c.Platform, c.Status, c.RunAt,
			c.Attempts, c.CreatedAt, c.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Enqueue(context.Background(), c); err != nil {
		t.Errorf("Enqueue() error = %v", err)
	}

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}

func TestContinuationRepository_ClaimDue(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewContinuationRepository(db)

	now := time.Now().UTC()
	id := uuid.New()
	campaignID := uuid.New()

	rows := sqlmock.NewRows([]string{
		"id", "campaign_id", "platform", "status", "run_at",
		"attempts", "error_message", "created_at", "updated_at",
	}).AddRow(id, campaignID, "writeas", "running", now, 1, nil, now, now)

	mock.ExpectQuery("UPDATE automation_continuations").
		WithArgs(20).
		WillReturnRows(rows)

	claimed, err := repo.ClaimDue(context.Background(), 20)
	if err != nil {
		t.Fatalf("ClaimDue() error = %v", err)
	}
	if len(claimed) != 1 {
		t.Fatalf("got %d continuations, want 1", len(claimed))
	}
	if claimed[0].CampaignID != campaignID {
		t.Errorf("CampaignID = %v, want %v", claimed[0].CampaignID, campaignID)
	}
	if claimed[0].Status != domain.ContinuationStatusRunning {
		t.Errorf("Status = %q, want running", claimed[0].Status)
	}
}

func TestContinuationRepository_ClaimDue_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewContinuationRepository(db)

	mock.ExpectQuery("UPDATE automation_continuations").
		WithArgs(20).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "campaign_id", "platform", "status", "run_at",
			"attempts", "error_message", "created_at", "updated_at",
		}))

	claimed, err := repo.ClaimDue(context.Background(), 20)
	if err != nil {
		t.Fatalf("ClaimDue() error = %v", err)
	}
	if len(claimed) != 0 {
		t.Errorf("got %d continuations, want none", len(claimed))
	}
}

func TestContinuationRepository_MarkDone_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewContinuationRepository(db)

	id := uuid.New()
	mock.ExpectExec("UPDATE automation_continuations").
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkDone(context.Background(), id)
	if err != domain.ErrNotFound {
		t.Errorf("MarkDone() error = %v, want domain.ErrNotFound", err)
	}
}

func TestContinuationRepository_MarkFailed(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewContinuationRepository(db)

	id := uuid.New()
	mock.ExpectExec("UPDATE automation_continuations").
		WithArgs(id, "writeas returned 500").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkFailed(context.Background(), id, "writeas returned 500"); err != nil {
		t.Errorf("MarkFailed() error = %v", err)
	}
}

func TestContinuationRepository_ResetStale(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewContinuationRepository(db)

	mock.ExpectExec("UPDATE automation_continuations").
		WillReturnResult(sqlmock.NewResult(0, 3))

	reset, err := repo.ResetStale(context.Background(), 10*time.Minute)
	if err != nil {
		t.Fatalf("ResetStale() error = %v", err)
	}
	if reset != 3 {
		t.Errorf("reset = %d, want 3", reset)
	}
}
