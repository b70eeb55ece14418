package appointments

import (
	"time"

	"github.com/google/uuid"

	"github.com/jaylondental/clinic-api/internal/schedule"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusApproved  Status = "Approved"
	StatusCancelled Status = "Cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusCancelled:
		return true
	}
	return false
}

// Appointment is a booked visit: one user, one service, one slot on one date.
type Appointment struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ServiceID uuid.UUID
	Date      time.Time
	Start     schedule.ClockTime
	End       schedule.ClockTime
	Status    Status
	Attended  bool
	CreatedAt time.Time
}

// Interval returns the occupied stretch on the appointment's date.
func (a Appointment) Interval() schedule.Interval {
	return schedule.Interval{
		Start: a.Start.On(a.Date),
		End:   a.End.On(a.Date),
	}
}

// CreateRequest is the booking payload. TimeSlot carries the rendered slot
// exactly as the availability endpoint emitted it ("08:30 AM - 09:00 AM").
type CreateRequest struct {
	UserID    uuid.UUID `json:"user_id,omitempty"`
	ServiceID uuid.UUID `json:"service_id"`
	Date      string    `json:"date"`
	TimeSlot  string    `json:"time_slot"`
	Status    Status    `json:"status,omitempty"`
}
