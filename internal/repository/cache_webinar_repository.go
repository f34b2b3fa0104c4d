package repository

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/prohmpiriya/webinar-service/internal/domain"
	"github.com/prohmpiriya/webinar-service/pkg/logger"
)

const (
	webinarKeyPrefix = "webinar:detail:"

	// DefaultWebinarCacheTTL is used when no TTL is configured
	DefaultWebinarCacheTTL = 5 * time.Minute
)

// Cache is the subset of Redis commands the cache decorator uses
type Cache interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
}

// CachedWebinarRepository wraps WebinarRepository with a Redis read-through cache
type CachedWebinarRepository struct {
	repo  WebinarRepository
	cache Cache
	ttl   time.Duration
	group singleflight.Group
	log   *logger.Logger
}

// NewCachedWebinarRepository creates a new CachedWebinarRepository
func NewCachedWebinarRepository(repo WebinarRepository, cache Cache, ttl time.Duration) *CachedWebinarRepository {
	if ttl <= 0 {
		ttl = DefaultWebinarCacheTTL
	}
	return &CachedWebinarRepository{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
		log:   logger.Get(),
	}
}

// Create creates a webinar in the underlying store
func (r *CachedWebinarRepository) Create(ctx context.Context, webinar *domain.Webinar) error {
	if err := r.repo.Create(ctx, webinar); err != nil {
		return err
	}
	r.invalidate(ctx, webinar.ID)
	return nil
}

// FindByID serves from cache, falling back to the store. Concurrent misses for
// the same id share one store lookup.
func (r *CachedWebinarRepository) FindByID(ctx context.Context, id string) (*domain.Webinar, error) {
	key := webinarKeyPrefix + id

	cached, err := r.cache.Get(ctx, key).Result()
	if err == nil && cached != "" {
		var w domain.Webinar
		if err := json.Unmarshal([]byte(cached), &w); err == nil {
			return &w, nil
		}
	}

	v, err, _ := r.group.Do(id, func() (interface{}, error) {
		w, err := r.repo.FindByID(ctx, id)
		if err != nil || w == nil {
			return w, err
		}
		r.store(ctx, key, w)
		return w, nil
	})
	if err != nil {
		return nil, err
	}

	w, _ := v.(*domain.Webinar)
	// Callers sharing a flight must not share the pointer
	return w.Clone(), nil
}

// Update writes through to the store and drops the cached copy
func (r *CachedWebinarRepository) Update(ctx context.Context, webinar *domain.Webinar) error {
	err := r.repo.Update(ctx, webinar)
	// A conflict means the cached copy may be stale as well
	if err == nil || domain.IsConflictError(err) {
		r.invalidate(ctx, webinar.ID)
	}
	return err
}

func (r *CachedWebinarRepository) store(ctx context.Context, key string, w *domain.Webinar) {
	data, err := json.Marshal(w)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, data, r.ttl).Err(); err != nil {
		r.log.Warn("Failed to cache webinar", zap.String("key", key), zap.Error(err))
	}
}

func (r *CachedWebinarRepository) invalidate(ctx context.Context, id string) {
	if err := r.cache.Del(ctx, webinarKeyPrefix+id).Err(); err != nil {
		r.log.Warn("Failed to invalidate webinar cache", zap.String("webinar_id", id), zap.Error(err))
	}
}
