package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWebinar(t *testing.T) {
	start := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	tests := []struct {
		name        string
		id          string
		organizerID string
		title       string
		start, end  time.Time
		seats       int
		wantErr     error
	}{
		{name: "valid webinar", id: "w-1", organizerID: "alice", title: "Go 101", start: start, end: end, seats: 100},
		{name: "minimum seats", id: "w-1", organizerID: "alice", title: "Go 101", start: start, end: end, seats: 1},
		{name: "maximum seats", id: "w-1", organizerID: "alice", title: "Go 101", start: start, end: end, seats: 1000},
		{name: "missing id", organizerID: "alice", title: "Go 101", start: start, end: end, seats: 100, wantErr: ErrInvalidWebinar},
		{name: "missing organizer", id: "w-1", title: "Go 101", start: start, end: end, seats: 100, wantErr: ErrInvalidWebinar},
		{name: "missing title", id: "w-1", organizerID: "alice", start: start, end: end, seats: 100, wantErr: ErrInvalidWebinar},
		{name: "end before start", id: "w-1", organizerID: "alice", title: "Go 101", start: end, end: start, seats: 100, wantErr: ErrInvalidWebinar},
		{name: "zero seats", id: "w-1", organizerID: "alice", title: "Go 101", start: start, end: end, seats: 0, wantErr: ErrInvalidSeats},
		{name: "too many seats", id: "w-1", organizerID: "alice", title: "Go 101", start: start, end: end, seats: 1001, wantErr: ErrInvalidSeats},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewWebinar(tt.id, tt.organizerID, tt.title, tt.start, tt.end, tt.seats)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, w)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.seats, w.Seats)
			assert.Zero(t, w.Version)
		})
	}
}

func TestWebinar_SetSeats(t *testing.T) {
	w := &Webinar{ID: "w-1", Seats: 100}

	require.NoError(t, w.SetSeats(1000))
	assert.Equal(t, 1000, w.Seats)

	assert.ErrorIs(t, w.SetSeats(1001), ErrInvalidSeats)
	assert.ErrorIs(t, w.SetSeats(0), ErrInvalidSeats)
	assert.Equal(t, 1000, w.Seats, "rejected values must not be applied")
}

func TestWebinar_IsOrganizer(t *testing.T) {
	w := &Webinar{OrganizerID: "alice"}
	assert.True(t, w.IsOrganizer("alice"))
	assert.False(t, w.IsOrganizer("bob"))
}

func TestWebinar_Clone(t *testing.T) {
	w := &Webinar{ID: "w-1", Seats: 10}
	c := w.Clone()
	c.Seats = 20

	assert.Equal(t, 10, w.Seats)
	assert.Nil(t, (*Webinar)(nil).Clone())
}

func TestErrorKinds(t *testing.T) {
	wrapped := fmt.Errorf("change seats: %w", ErrWebinarReduceSeats)

	assert.True(t, IsNotFoundError(ErrWebinarNotFound))
	assert.True(t, IsForbiddenError(ErrWebinarNotOrganizer))
	assert.True(t, IsInvalidTransitionError(wrapped))
	assert.True(t, IsOutOfBoundsError(ErrWebinarTooManySeats))
	assert.True(t, IsConflictError(ErrVersionConflict))
	assert.True(t, IsConflictError(ErrWebinarAlreadyExists))

	assert.Equal(t, ErrorKind(""), KindOf(errors.New("connection reset")))
	assert.Equal(t, ErrorKind(""), KindOf(nil))
}

func TestNewSeatsChangedEvent(t *testing.T) {
	at := time.Date(2024, 1, 10, 10, 0, 0, 0, time.FixedZone("ICT", 7*3600))
	w := &Webinar{ID: "w-1", OrganizerID: "alice", Seats: 200, Version: 3}

	evt := NewSeatsChangedEvent(w, 100, at)

	assert.NotEmpty(t, evt.EventID)
	assert.Equal(t, EventTypeSeatsChanged, evt.EventType)
	assert.Equal(t, 100, evt.PreviousSeats)
	assert.Equal(t, 200, evt.Seats)
	assert.Equal(t, int64(3), evt.Version)
	assert.Equal(t, time.UTC, evt.OccurredAt.Location())
}
