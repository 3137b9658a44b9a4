package publishers

import (
	"context"
	"fmt"

	"github.com/belonio2793/backlinkoo-automation/internal/content"
	"github.com/belonio2793/backlinkoo-automation/internal/domain"
)

// UnsupportedAdapter stands in for registry platforms that have no
// implementation yet. Publishing through it fails so a misconfigured
// enabled list is caught on the first step instead of silently skipped.
type UnsupportedAdapter struct {
	name string
}

// NewUnsupportedAdapter creates a failing adapter for the platform.
func NewUnsupportedAdapter(name string) *UnsupportedAdapter {
	return &UnsupportedAdapter{name: name}
}

func (a *UnsupportedAdapter) Name() string { return a.name }

func (a *UnsupportedAdapter) Publish(_ context.Context, _ *domain.Campaign, _ *content.Article) (string, error) {
	return "", fmt.Errorf("%w: %q has no publisher implementation", domain.ErrPlatformUnsupported, a.name)
}
