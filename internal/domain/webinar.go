package domain

import (
	"fmt"
	"strings"
	"time"
)

// Seat bounds for a webinar
const (
	MinSeats = 1
	MaxSeats = 1000
)

// Webinar is a scheduled webinar owned by its organizer
type Webinar struct {
	ID          string    `json:"id"`
	OrganizerID string    `json:"organizer_id"`
	Title       string    `json:"title"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Seats       int       `json:"seats"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewWebinar creates a validated webinar
func NewWebinar(id, organizerID, title string, startDate, endDate time.Time, seats int) (*Webinar, error) {
	w := &Webinar{
		ID:          id,
		OrganizerID: organizerID,
		Title:       title,
		StartDate:   startDate,
		EndDate:     endDate,
		Seats:       seats,
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

// Validate checks the webinar invariants
func (w *Webinar) Validate() error {
	if strings.TrimSpace(w.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidWebinar)
	}
	if strings.TrimSpace(w.OrganizerID) == "" {
		return fmt.Errorf("%w: organizer_id is required", ErrInvalidWebinar)
	}
	if strings.TrimSpace(w.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidWebinar)
	}
	if w.EndDate.Before(w.StartDate) {
		return fmt.Errorf("%w: end_date must not be before start_date", ErrInvalidWebinar)
	}
	if !ValidSeats(w.Seats) {
		return ErrInvalidSeats
	}
	return nil
}

// ValidSeats reports whether n is an allowed capacity
func ValidSeats(n int) bool {
	return n >= MinSeats && n <= MaxSeats
}

// SetSeats changes the capacity, keeping it within [MinSeats, MaxSeats]
func (w *Webinar) SetSeats(n int) error {
	if !ValidSeats(n) {
		return ErrInvalidSeats
	}
	w.Seats = n
	return nil
}

// IsOrganizer reports whether userID owns the webinar
func (w *Webinar) IsOrganizer(userID string) bool {
	return w.OrganizerID == userID
}

// Clone returns a copy that shares no state with w
func (w *Webinar) Clone() *Webinar {
	if w == nil {
		return nil
	}
	c := *w
	return &c
}
