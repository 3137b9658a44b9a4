package orchestrator

import (
	"github.com/belonio2793/backlinkoo-automation/internal/domain"
	"github.com/belonio2793/backlinkoo-automation/internal/platform"
)

// ActionKind is the continuation decision after a publish event.
type ActionKind string

const (
	// ActionComplete means every enabled platform is satisfied.
	ActionComplete ActionKind = "complete"
	// ActionAdvance means an enabled platform is still unpublished.
	ActionAdvance ActionKind = "advance"
	// ActionNoOp is the defensive fallback. Given IsComplete's definition
	// it should be unreachable; reaching it is an invariant violation.
	ActionNoOp ActionKind = "noop"
)

// Action is the scheduler's decision. Next is set only for ActionAdvance.
type Action struct {
	Kind ActionKind
	Next string
}

// IsComplete reports whether every enabled platform has published.
// Set containment, not equality: stray published rows for platforms later
// disabled neither block nor satisfy completion. An empty enabled set is
// vacuously complete.
//
// This is the only code path allowed to decide completion.
func IsComplete(enabled []platform.Descriptor, published domain.PublishedSet) bool {
	for _, d := range enabled {
		if !published.Contains(d.ID) {
			return false
		}
	}
	return true
}

// Decide picks the next action for a campaign. The enabled slice must come
// from the registry in priority order; the first unpublished descriptor
// wins, so priority ties fall back to registry iteration order.
func Decide(enabled []platform.Descriptor, published domain.PublishedSet) Action {
	if IsComplete(enabled, published) {
		return Action{Kind: ActionComplete}
	}
	for _, d := range enabled {
		if !published.Contains(d.ID) {
			return Action{Kind: ActionAdvance, Next: d.ID}
		}
	}
	return Action{Kind: ActionNoOp}
}
