package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prohmpiriya/webinar-service/internal/domain"
)

func newTestWebinar(id string, seats int) *domain.Webinar {
	start := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)
	return &domain.Webinar{
		ID:          id,
		OrganizerID: "alice",
		Title:       "My first webinar",
		StartDate:   start,
		EndDate:     start.Add(time.Hour),
		Seats:       seats,
	}
}

func TestMemoryWebinarRepository_Create(t *testing.T) {
	repo := NewMemoryWebinarRepository()
	ctx := context.Background()

	w := newTestWebinar("w-1", 100)
	require.NoError(t, repo.Create(ctx, w))
	assert.Equal(t, int64(1), w.Version)
	assert.False(t, w.CreatedAt.IsZero())

	err := repo.Create(ctx, newTestWebinar("w-1", 50))
	assert.ErrorIs(t, err, domain.ErrWebinarAlreadyExists)
}

func TestMemoryWebinarRepository_FindByID(t *testing.T) {
	repo := NewMemoryWebinarRepository(newTestWebinar("w-1", 100))
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		w, err := repo.FindByID(ctx, "w-1")
		require.NoError(t, err)
		require.NotNil(t, w)
		assert.Equal(t, 100, w.Seats)
		assert.Equal(t, "alice", w.OrganizerID)
	})

	t.Run("missing returns nil without error", func(t *testing.T) {
		w, err := repo.FindByID(ctx, "unknown")
		assert.NoError(t, err)
		assert.Nil(t, w)
	})

	t.Run("returned copy is detached", func(t *testing.T) {
		w, _ := repo.FindByID(ctx, "w-1")
		w.Seats = 999

		again, _ := repo.FindByID(ctx, "w-1")
		assert.Equal(t, 100, again.Seats)
	})
}

func TestMemoryWebinarRepository_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("overwrites and bumps version", func(t *testing.T) {
		repo := NewMemoryWebinarRepository(newTestWebinar("w-1", 100))
		w, _ := repo.FindByID(ctx, "w-1")
		w.Seats = 200
		w.Title = "Updated title"

		require.NoError(t, repo.Update(ctx, w))
		assert.Equal(t, int64(2), w.Version)

		stored, _ := repo.FindByID(ctx, "w-1")
		assert.Equal(t, 200, stored.Seats)
		assert.Equal(t, "Updated title", stored.Title)
	})

	t.Run("same state twice is idempotent", func(t *testing.T) {
		repo := NewMemoryWebinarRepository(newTestWebinar("w-1", 100))
		w, _ := repo.FindByID(ctx, "w-1")
		w.Seats = 150

		require.NoError(t, repo.Update(ctx, w))
		once, _ := repo.FindByID(ctx, "w-1")
		require.NoError(t, repo.Update(ctx, w))
		twice, _ := repo.FindByID(ctx, "w-1")

		assert.Equal(t, once.Seats, twice.Seats)
		assert.Equal(t, once.Title, twice.Title)
		assert.Equal(t, once.OrganizerID, twice.OrganizerID)
		assert.Equal(t, once.StartDate, twice.StartDate)
		assert.Equal(t, once.EndDate, twice.EndDate)
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		repo := NewMemoryWebinarRepository(newTestWebinar("w-1", 100))
		first, _ := repo.FindByID(ctx, "w-1")
		second, _ := repo.FindByID(ctx, "w-1")

		first.Seats = 200
		require.NoError(t, repo.Update(ctx, first))

		second.Seats = 300
		assert.ErrorIs(t, repo.Update(ctx, second), domain.ErrVersionConflict)

		stored, _ := repo.FindByID(ctx, "w-1")
		assert.Equal(t, 200, stored.Seats)
	})

	t.Run("missing webinar", func(t *testing.T) {
		repo := NewMemoryWebinarRepository()
		assert.ErrorIs(t, repo.Update(ctx, newTestWebinar("nope", 10)), domain.ErrWebinarNotFound)
	})
}

func TestMemoryWebinarRepository_ConcurrentUpdates(t *testing.T) {
	repo := NewMemoryWebinarRepository(newTestWebinar("w-1", 100))
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	start := make(chan struct{})
	for i := 0; i < writers; i++ {
		w, _ := repo.FindByID(ctx, "w-1")
		wg.Add(1)
		go func(w *domain.Webinar, seats int) {
			defer wg.Done()
			<-start
			w.Seats = seats
			if repo.Update(ctx, w) == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(w, 101+i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, succeeded, "only one writer holding the same version may win")
	stored, _ := repo.FindByID(ctx, "w-1")
	assert.Equal(t, int64(2), stored.Version)
}

func TestMemoryWebinarRepository_RejectsOutOfRangeSeats(t *testing.T) {
	ctx := context.Background()

	t.Run("create", func(t *testing.T) {
		repo := NewMemoryWebinarRepository()
		for _, seats := range []int{0, -1, 1001, 5000} {
			err := repo.Create(ctx, newTestWebinar("w-1", seats))
			assert.ErrorIs(t, err, domain.ErrInvalidSeats, "seats=%d", seats)
		}
		got, err := repo.FindByID(ctx, "w-1")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("update", func(t *testing.T) {
		repo := NewMemoryWebinarRepository(newTestWebinar("w-1", 100))
		for _, seats := range []int{0, 1001} {
			w, _ := repo.FindByID(ctx, "w-1")
			w.Seats = seats
			assert.ErrorIs(t, repo.Update(ctx, w), domain.ErrInvalidSeats, "seats=%d", seats)
		}
		stored, _ := repo.FindByID(ctx, "w-1")
		assert.Equal(t, 100, stored.Seats)
		assert.Equal(t, int64(1), stored.Version)
	})

	t.Run("bounds accepted", func(t *testing.T) {
		repo := NewMemoryWebinarRepository()
		require.NoError(t, repo.Create(ctx, newTestWebinar("low", 1)))
		require.NoError(t, repo.Create(ctx, newTestWebinar("high", 1000)))
	})
}
