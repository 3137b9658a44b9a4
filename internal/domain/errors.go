// Package domain contains the core domain models for the automation engine.
package domain

import "errors"

// Common errors returned by repositories and the orchestrator.
var (
	// ErrNotFound is returned when an entity is not found in the database.
	ErrNotFound = errors.New("entity not found")

	// ErrAlreadyExists is returned when a unique constraint is violated.
	ErrAlreadyExists = errors.New("entity already exists")

	// ErrInvalidCampaign is returned when creating a campaign with invalid fields.
	ErrInvalidCampaign = errors.New("invalid campaign")

	// ErrCampaignNotActive is returned when a publish step is requested for
	// a campaign that is paused, completed or failed.
	ErrCampaignNotActive = errors.New("campaign is not active")

	// ErrUnknownPlatform is returned when a platform identifier does not
	// normalize to any registry descriptor.
	ErrUnknownPlatform = errors.New("unknown platform")

	// ErrPublishFailed is returned when the external publish call fails.
	ErrPublishFailed = errors.New("publish failed")

	// ErrPlatformUnsupported is returned by adapters for registry platforms
	// that have no publisher implementation.
	ErrPlatformUnsupported = errors.New("platform not supported")

	// ErrScheduleFailed is returned when a continuation could not be enqueued.
	ErrScheduleFailed = errors.New("continuation scheduling failed")
)
