package dto

import (
	"time"

	"github.com/prohmpiriya/webinar-service/internal/domain"
)

// ChangeSeatsRequest represents request to change a webinar's seat count
type ChangeSeatsRequest struct {
	Seats *int `json:"seats" binding:"required"`
}

// WebinarResponse represents a webinar in API responses
type WebinarResponse struct {
	ID          string    `json:"id"`
	OrganizerID string    `json:"organizer_id"`
	Title       string    `json:"title"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Seats       int       `json:"seats"`
	Version     int64     `json:"version"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FromWebinar converts domain.Webinar to WebinarResponse
func FromWebinar(w *domain.Webinar) *WebinarResponse {
	return &WebinarResponse{
		ID:          w.ID,
		OrganizerID: w.OrganizerID,
		Title:       w.Title,
		StartDate:   w.StartDate,
		EndDate:     w.EndDate,
		Seats:       w.Seats,
		Version:     w.Version,
		UpdatedAt:   w.UpdatedAt,
	}
}
