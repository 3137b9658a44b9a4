// Package publishers contains the platform adapters that place generated
// articles on external blogging platforms. Each adapter owns its
// platform's wire format and URL shape; the orchestrator only sees the
// published URL or an error.
package publishers

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/belonio2793/backlinkoo-automation/internal/content"
	"github.com/belonio2793/backlinkoo-automation/internal/domain"
	"github.com/belonio2793/backlinkoo-automation/internal/logger"
	"github.com/belonio2793/backlinkoo-automation/internal/platform"
)

// Adapter publishes an article to one platform and returns the public URL.
type Adapter interface {
	Name() string
	Publish(ctx context.Context, campaign *domain.Campaign, article *content.Article) (string, error)
}

// Set holds one adapter per enabled platform plus a shared rate limiter.
// External platforms are unauthenticated public APIs; the limiter keeps
// a burst of due continuations from hammering them.
type Set struct {
	adapters map[string]Adapter
	limiter  *rate.Limiter
	logger   logger.Logger
}

// NewSet builds adapters for every enabled platform in the registry.
// Platforms in the registry without an adapter implementation get the
// unsupported adapter, which fails loudly instead of silently skipping.
func NewSet(reg *platform.Registry, perMinute int, log logger.Logger) *Set {
	adapters := make(map[string]Adapter)
	for _, desc := range reg.Enabled() {
		switch desc.ID {
		case "telegraph":
			adapters[desc.ID] = NewTelegraphAdapter(log)
		case "writeas":
			adapters[desc.ID] = NewWriteAsAdapter(log)
		default:
			adapters[desc.ID] = NewUnsupportedAdapter(desc.ID)
		}
	}

	every := rate.Every(minuteDivided(perMinute))
	return &Set{
		adapters: adapters,
		limiter:  rate.NewLimiter(every, 1),
		logger:   log,
	}
}

// Publish dispatches to the platform's adapter after passing the shared
// rate limiter.
func (s *Set) Publish(ctx context.Context, platformID string, campaign *domain.Campaign, article *content.Article) (string, error) {
	adapter, ok := s.adapters[platformID]
	if !ok {
		return "", fmt.Errorf("%w: no adapter for platform %q", domain.ErrPublishFailed, platformID)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limiter: %v", domain.ErrPublishFailed, err)
	}

	url, err := adapter.Publish(ctx, campaign, article)
	if err != nil {
		return "", err
	}
	return url, nil
}

// Has reports whether an adapter exists for the platform.
func (s *Set) Has(platformID string) bool {
	_, ok := s.adapters[platformID]
	return ok
}

func minuteDivided(perMinute int) time.Duration {
	if perMinute <= 0 {
		perMinute = 30
	}
	return time.Minute / time.Duration(perMinute)
}
