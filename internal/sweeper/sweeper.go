// Package sweeper cancels approved appointments that were never attended.
// Every interval it looks at yesterday's schedule and cancels what was left
// behind, emailing the patient about it.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jaylondental/clinic-api/internal/appointments"
	"github.com/jaylondental/clinic-api/internal/observability/metrics"
	"github.com/jaylondental/clinic-api/internal/users"
	"github.com/jaylondental/clinic-api/pkg/logging"
)

type appointmentStore interface {
	ListUnattended(ctx context.Context, date time.Time) ([]appointments.Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status appointments.Status) error
}

type userStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*users.User, error)
}

type serviceCatalog interface {
	Title(ctx context.Context, id uuid.UUID) (string, error)
}

type cancellationMailer interface {
	SendCancellation(ctx context.Context, to, name, serviceTitle, date, timeSlot string) error
}

// Sweeper runs the periodic no-show cleanup.
type Sweeper struct {
	appointments appointmentStore
	users        userStore
	services     serviceCatalog
	mailer       cancellationMailer
	metrics      *metrics.BookingMetrics
	interval     time.Duration
	logger       *logging.Logger
	now          func() time.Time
}

// Config wires the sweeper's dependencies.
type Config struct {
	Appointments appointmentStore
	Users        userStore
	Services     serviceCatalog
	Mailer       cancellationMailer
	Metrics      *metrics.BookingMetrics
	Interval     time.Duration
	Logger       *logging.Logger
}

// New creates a sweeper.
func New(cfg Config) *Sweeper {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	return &Sweeper{
		appointments: cfg.Appointments,
		users:        cfg.Users,
		services:     cfg.Services,
		mailer:       cfg.Mailer,
		metrics:      cfg.Metrics,
		interval:     cfg.Interval,
		logger:       cfg.Logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Run sweeps on a ticker until the context is cancelled. One final sweep is
// not attempted on shutdown; the next boot picks up whatever is left.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("sweeper started", "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			if n, err := s.Sweep(ctx); err != nil {
				s.logger.Error("sweep failed", "error", err)
			} else if n > 0 {
				s.logger.Info("sweep completed", "cancelled", n)
			}
		}
	}
}

// Sweep cancels yesterday's approved, unattended appointments and returns how
// many it cancelled. Per-row failures are logged and the sweep continues.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	yesterday := s.now().AddDate(0, 0, -1).Truncate(24 * time.Hour)

	missed, err := s.appointments.ListUnattended(ctx, yesterday)
	if err != nil {
		return 0, fmt.Errorf("sweeper: list unattended: %w", err)
	}

	cancelled := 0
	for _, appt := range missed {
		if err := s.appointments.UpdateStatus(ctx, appt.ID, appointments.StatusCancelled); err != nil {
			s.logger.Error("failed to cancel missed appointment", "error", err, "appointment_id", appt.ID)
			continue
		}
		cancelled++
		s.metrics.ObserveAppointment("swept")

		if err := s.notify(ctx, appt); err != nil {
			s.logger.Error("failed to send cancellation email", "error", err, "appointment_id", appt.ID)
		}
	}
	return cancelled, nil
}

func (s *Sweeper) notify(ctx context.Context, appt appointments.Appointment) error {
	u, err := s.users.GetByID(ctx, appt.UserID)
	if err != nil {
		return fmt.Errorf("sweeper: load patient: %w", err)
	}
	title, err := s.services.Title(ctx, appt.ServiceID)
	if err != nil {
		return fmt.Errorf("sweeper: load service: %w", err)
	}
	slot := appt.Start.On(appt.Date).Format("03:04 PM") + " - " + appt.End.On(appt.Date).Format("03:04 PM")
	return s.mailer.SendCancellation(ctx, u.Email, u.FullName(), title, appt.Date.Format("2006-01-02"), slot)
}
