package domain

import (
	"time"

	"github.com/google/uuid"
)

// ContinuationStatus represents the state of a deferred publish invocation.
type ContinuationStatus string

const (
	ContinuationStatusPending ContinuationStatus = "pending"
	ContinuationStatusRunning ContinuationStatus = "running"
	ContinuationStatusDone    ContinuationStatus = "done"
	ContinuationStatusFailed  ContinuationStatus = "failed"
)

// Continuation is one deferred invocation of the publish step: "publish
// campaign X to platform Y, no earlier than run_at". Rows are claimed by
// the continuation worker; a pending row whose run_at has passed is due.
// Deferring through this table rather than calling the next step in-line
// bounds call depth across an arbitrarily long platform chain and lets the
// triggering request return before the next platform's work begins.
type Continuation struct {
	ID           uuid.UUID          `db:"id"            json:"id"`
	CampaignID   uuid.UUID          `db:"campaign_id"   json:"campaign_id"`
	Platform     string             `db:"platform"      json:"platform"`
	Status       ContinuationStatus `db:"status"        json:"status"`
	RunAt        time.Time          `db:"run_at"        json:"run_at"`
	Attempts     int                `db:"attempts"      json:"attempts"`
	ErrorMessage *string            `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time          `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time          `db:"updated_at"    json:"updated_at"`
}

// NewContinuation schedules a publish step for a campaign/platform pair
// after the given delay.
func NewContinuation(campaignID uuid.UUID, platform string, delay time.Duration) *Continuation {
	now := time.Now().UTC()
	return &Continuation{
		ID:         uuid.New(),
		CampaignID: campaignID,
		Platform:   platform,
		Status:     ContinuationStatusPending,
		RunAt:      now.Add(delay),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// ContinuationStats holds queue statistics for monitoring.
type ContinuationStats struct {
	Pending int64 `json:"pending"`
	Running int64 `json:"running"`
	Done    int64 `json:"done"`
	Failed  int64 `json:"failed"`
}
