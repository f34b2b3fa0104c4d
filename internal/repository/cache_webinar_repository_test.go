package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prohmpiriya/webinar-service/internal/domain"
)

// fakeCache is an in-memory Cache for testing
type fakeCache struct {
	mu      sync.Mutex
	data    map[string]string
	getErr  error
	deleted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string)}
}

func (f *fakeCache) Get(ctx context.Context, key string) *goredis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return goredis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeCache) Del(ctx context.Context, keys ...string) *goredis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
		f.deleted = append(f.deleted, k)
	}
	return goredis.NewIntResult(int64(len(keys)), nil)
}

// countingRepository counts FindByID calls on top of the memory repository
type countingRepository struct {
	*MemoryWebinarRepository
	mu    sync.Mutex
	finds int
}

func (c *countingRepository) FindByID(ctx context.Context, id string) (*domain.Webinar, error) {
	c.mu.Lock()
	c.finds++
	c.mu.Unlock()
	return c.MemoryWebinarRepository.FindByID(ctx, id)
}

func (c *countingRepository) findCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finds
}

func TestCachedWebinarRepository_FindByID_ReadThrough(t *testing.T) {
	backing := &countingRepository{MemoryWebinarRepository: NewMemoryWebinarRepository(newTestWebinar("w-1", 100))}
	cache := newFakeCache()
	repo := NewCachedWebinarRepository(backing, cache, time.Minute)
	ctx := context.Background()

	first, err := repo.FindByID(ctx, "w-1")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 1, backing.findCount())
	assert.Contains(t, cache.data, "webinar:detail:w-1")

	second, err := repo.FindByID(ctx, "w-1")
	require.NoError(t, err)
	assert.Equal(t, 1, backing.findCount(), "second read must be served from cache")
	assert.Equal(t, first.Seats, second.Seats)
	assert.Equal(t, first.Version, second.Version)
}

func TestCachedWebinarRepository_FindByID_Missing(t *testing.T) {
	cache := newFakeCache()
	repo := NewCachedWebinarRepository(NewMemoryWebinarRepository(), cache, time.Minute)

	w, err := repo.FindByID(context.Background(), "unknown")
	assert.NoError(t, err)
	assert.Nil(t, w)
	assert.Empty(t, cache.data, "absent webinars are not cached")
}

func TestCachedWebinarRepository_FindByID_CacheDown(t *testing.T) {
	cache := newFakeCache()
	cache.getErr = errors.New("connection refused")
	repo := NewCachedWebinarRepository(NewMemoryWebinarRepository(newTestWebinar("w-1", 100)), cache, time.Minute)

	w, err := repo.FindByID(context.Background(), "w-1")
	require.NoError(t, err)
	assert.Equal(t, 100, w.Seats)
}

func TestCachedWebinarRepository_Update_Invalidates(t *testing.T) {
	backing := NewMemoryWebinarRepository(newTestWebinar("w-1", 100))
	cache := newFakeCache()
	repo := NewCachedWebinarRepository(backing, cache, time.Minute)
	ctx := context.Background()

	w, err := repo.FindByID(ctx, "w-1")
	require.NoError(t, err)

	w.Seats = 200
	require.NoError(t, repo.Update(ctx, w))
	assert.NotContains(t, cache.data, "webinar:detail:w-1")

	fresh, err := repo.FindByID(ctx, "w-1")
	require.NoError(t, err)
	assert.Equal(t, 200, fresh.Seats)
}

func TestCachedWebinarRepository_Update_ConflictInvalidates(t *testing.T) {
	backing := NewMemoryWebinarRepository(newTestWebinar("w-1", 100))
	cache := newFakeCache()
	repo := NewCachedWebinarRepository(backing, cache, time.Minute)
	ctx := context.Background()

	stale, _ := repo.FindByID(ctx, "w-1")

	// Another instance writes straight to the store, leaving our cache stale
	direct, _ := backing.FindByID(ctx, "w-1")
	direct.Seats = 300
	require.NoError(t, backing.Update(ctx, direct))

	stale.Seats = 200
	err := repo.Update(ctx, stale)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
	assert.NotContains(t, cache.data, "webinar:detail:w-1")
}

func TestCachedWebinarRepository_FindByID_CollapsesMisses(t *testing.T) {
	backing := &countingRepository{MemoryWebinarRepository: NewMemoryWebinarRepository(newTestWebinar("w-1", 100))}
	repo := NewCachedWebinarRepository(backing, newFakeCache(), time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w, err := repo.FindByID(ctx, "w-1")
			assert.NoError(t, err)
			assert.NotNil(t, w)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, backing.findCount(), 10)
	assert.GreaterOrEqual(t, backing.findCount(), 1)
}
