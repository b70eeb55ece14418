package services

import (
	"time"

	"github.com/google/uuid"
)

// Service is one catalog entry patients can book.
type Service struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    int       `json:"duration"` // minutes
	ImageKey    string    `json:"image_key"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks the fields an admin submits.
func (s *Service) Validate() error {
	if s.Title == "" {
		return ErrMissingTitle
	}
	if s.Duration <= 0 {
		return ErrInvalidDuration
	}
	return nil
}
