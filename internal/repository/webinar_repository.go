package repository

import (
	"context"

	"github.com/prohmpiriya/webinar-service/internal/domain"
)

// WebinarRepository defines the interface for webinar persistence
type WebinarRepository interface {
	// Create stores a new webinar. Returns domain.ErrWebinarAlreadyExists on duplicate id.
	Create(ctx context.Context, webinar *domain.Webinar) error
	// FindByID returns the webinar or (nil, nil) when no record exists
	FindByID(ctx context.Context, id string) (*domain.Webinar, error)
	// Update overwrites the stored webinar. The stored version must equal webinar.Version,
	// otherwise domain.ErrVersionConflict is returned. On success webinar.Version and
	// webinar.UpdatedAt are advanced, so writing the same state twice leaves the
	// domain fields identical while Version and UpdatedAt still move forward.
	// Webinars that fail domain.Webinar.Validate are rejected.
	Update(ctx context.Context, webinar *domain.Webinar) error
}
