package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActivityLevel is the severity of an activity log entry.
type ActivityLevel string

const (
	ActivityLevelInfo  ActivityLevel = "info"
	ActivityLevelWarn  ActivityLevel = "warn"
	ActivityLevelError ActivityLevel = "error"
)

// ActivityEntry is one append-only, human-readable log row for a campaign
// state transition. Entries are never mutated or deleted; the admin UI
// renders them verbatim.
type ActivityEntry struct {
	ID         int64         `db:"id"          json:"id"`
	CampaignID uuid.UUID     `db:"campaign_id" json:"campaign_id"`
	Level      ActivityLevel `db:"level"       json:"level"`
	Message    string        `db:"message"     json:"message"`
	CreatedAt  time.Time     `db:"created_at"  json:"created_at"`
}
