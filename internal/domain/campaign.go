package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CampaignStatus represents the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusFailed    CampaignStatus = "failed"
)

// Campaign is one content/backlink job to be published across the enabled
// platforms. Created active by the campaign-creation flow; mutated only by
// the orchestrator. Completed and failed are terminal; paused is
// recoverable via an explicit resume.
type Campaign struct {
	ID           uuid.UUID      `db:"id"            json:"id"`
	Name         string         `db:"name"          json:"name"`
	Keyword      string         `db:"keyword"       json:"keyword"`
	AnchorText   string         `db:"anchor_text"   json:"anchor_text"`
	TargetURL    string         `db:"target_url"    json:"target_url"`
	Status       CampaignStatus `db:"status"        json:"status"`
	ErrorMessage *string        `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time      `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"    json:"updated_at"`
	CompletedAt  *time.Time     `db:"completed_at"  json:"completed_at,omitempty"`
}

// IsTerminal reports whether the campaign can no longer change state.
func (c *Campaign) IsTerminal() bool {
	return c.Status == CampaignStatusCompleted || c.Status == CampaignStatusFailed
}

// CanPublish reports whether a publish step may run for this campaign.
func (c *Campaign) CanPublish() bool {
	return c.Status == CampaignStatusActive
}

// CampaignCreateRequest is the payload for creating a campaign.
type CampaignCreateRequest struct {
	Name       string `binding:"max=255"                json:"name"`
	Keyword    string `binding:"required,min=1,max=255" json:"keyword"`
	AnchorText string `binding:"required,min=1,max=255" json:"anchor_text"`
	TargetURL  string `binding:"required,url"           json:"target_url"`
}

// NewCampaign builds an active campaign from a create request. The name
// defaults to the keyword when omitted, matching the admin UI behaviour.
func NewCampaign(req *CampaignCreateRequest) (*Campaign, error) {
	if req.Keyword == "" {
		return nil, fmt.Errorf("%w: keyword is required", ErrInvalidCampaign)
	}
	if req.TargetURL == "" {
		return nil, fmt.Errorf("%w: target_url is required", ErrInvalidCampaign)
	}

	name := req.Name
	if name == "" {
		name = req.Keyword
	}

	now := time.Now().UTC()
	return &Campaign{
		ID:         uuid.New(),
		Name:       name,
		Keyword:    req.Keyword,
		AnchorText: req.AnchorText,
		TargetURL:  req.TargetURL,
		Status:     CampaignStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}
