package domain

import (
	"time"

	"github.com/google/uuid"
)

// LinkStatusPublished is the only status this service ever writes for a
// published link. The column exists because administrative tooling may
// retire links out of band.
const LinkStatusPublished = "published"

// PublishedLink is the durable record that a campaign successfully
// published to a platform. At most one row exists per
// (campaign, canonical platform) pair; rows are inserted only after a
// confirmed publish and are never deleted or mutated by this service.
type PublishedLink struct {
	ID           uuid.UUID `db:"id"            json:"id"`
	CampaignID   uuid.UUID `db:"campaign_id"   json:"campaign_id"`
	Platform     string    `db:"platform"      json:"platform"`
	PublishedURL string    `db:"published_url" json:"published_url"`
	Title        string    `db:"title"         json:"title"`
	Status       string    `db:"status"        json:"status"`
	PublishedAt  time.Time `db:"published_at"  json:"published_at"`
	CreatedAt    time.Time `db:"created_at"    json:"created_at"`
}

// PublishedSet is the set of canonical platform ids a campaign has
// published to. It is the second argument to the completion evaluator.
type PublishedSet map[string]struct{}

// NewPublishedSet builds a set from a slice of canonical platform ids.
func NewPublishedSet(platforms []string) PublishedSet {
	set := make(PublishedSet, len(platforms))
	for _, p := range platforms {
		set[p] = struct{}{}
	}
	return set
}

// Contains reports whether the set includes the given canonical id.
func (s PublishedSet) Contains(platform string) bool {
	_, ok := s[platform]
	return ok
}
