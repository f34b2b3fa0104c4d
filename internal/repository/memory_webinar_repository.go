package repository

import (
	"context"
	"sync"
	"time"

	"github.com/prohmpiriya/webinar-service/internal/domain"
)

// MemoryWebinarRepository implements WebinarRepository using in-memory storage
// This is useful for testing and development
type MemoryWebinarRepository struct {
	webinars map[string]*domain.Webinar
	now      func() time.Time
	mu       sync.RWMutex
}

// NewMemoryWebinarRepository creates a new in-memory webinar repository
func NewMemoryWebinarRepository(seed ...*domain.Webinar) *MemoryWebinarRepository {
	r := &MemoryWebinarRepository{
		webinars: make(map[string]*domain.Webinar),
		now:      time.Now,
	}
	for _, w := range seed {
		c := w.Clone()
		if c.Version == 0 {
			c.Version = 1
		}
		r.webinars[c.ID] = c
	}
	return r
}

// Create creates a new webinar record. Invalid webinars are rejected the
// same way the seats check constraint rejects them in Postgres.
func (r *MemoryWebinarRepository) Create(ctx context.Context, webinar *domain.Webinar) error {
	if err := webinar.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.webinars[webinar.ID]; exists {
		return domain.ErrWebinarAlreadyExists
	}

	now := r.now().UTC()
	webinar.Version = 1
	webinar.CreatedAt = now
	webinar.UpdatedAt = now

	r.webinars[webinar.ID] = webinar.Clone()
	return nil
}

// FindByID retrieves a webinar by its ID
func (r *MemoryWebinarRepository) FindByID(ctx context.Context, id string) (*domain.Webinar, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	webinar, exists := r.webinars[id]
	if !exists {
		return nil, nil
	}
	return webinar.Clone(), nil
}

// Update replaces a webinar if its version matches the stored one
func (r *MemoryWebinarRepository) Update(ctx context.Context, webinar *domain.Webinar) error {
	if err := webinar.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.webinars[webinar.ID]
	if !exists {
		return domain.ErrWebinarNotFound
	}
	if stored.Version != webinar.Version {
		return domain.ErrVersionConflict
	}

	webinar.Version = stored.Version + 1
	webinar.CreatedAt = stored.CreatedAt
	webinar.UpdatedAt = r.now().UTC()

	r.webinars[webinar.ID] = webinar.Clone()
	return nil
}
