// Package content produces the article body published on behalf of a
// campaign. An OpenAI-backed generator is preferred when an API key is
// configured; a deterministic template generator covers the rest and
// doubles as the failure fallback.
package content

import (
	"context"

	"github.com/belonio2793/backlinkoo-automation/internal/domain"
)

// Article is a generated post ready for a publisher adapter. Body is HTML;
// adapters convert to their platform's format.
type Article struct {
	Title string
	Body  string
	// PromptIndex records which prompt variation produced the article,
	// 0 when the template generator was used.
	PromptIndex int
}

// Generator produces an article for a campaign.
type Generator interface {
	Generate(ctx context.Context, campaign *domain.Campaign) (*Article, error)
}
