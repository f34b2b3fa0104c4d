package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventTypeSeatsChanged is published after a successful capacity change
const EventTypeSeatsChanged = "webinar.seats_changed"

// SeatsChangedEvent records a committed capacity change
type SeatsChangedEvent struct {
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	WebinarID     string    `json:"webinar_id"`
	OrganizerID   string    `json:"organizer_id"`
	PreviousSeats int       `json:"previous_seats"`
	Seats         int       `json:"seats"`
	Version       int64     `json:"version"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewSeatsChangedEvent builds the event for w after its seats moved from previous
func NewSeatsChangedEvent(w *Webinar, previous int, at time.Time) *SeatsChangedEvent {
	return &SeatsChangedEvent{
		EventID:       uuid.New().String(),
		EventType:     EventTypeSeatsChanged,
		WebinarID:     w.ID,
		OrganizerID:   w.OrganizerID,
		PreviousSeats: previous,
		Seats:         w.Seats,
		Version:       w.Version,
		OccurredAt:    at.UTC(),
	}
}
