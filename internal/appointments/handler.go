package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jaylondental/clinic-api/internal/auth"
	"github.com/jaylondental/clinic-api/internal/observability/metrics"
	"github.com/jaylondental/clinic-api/internal/schedule"
	"github.com/jaylondental/clinic-api/pkg/logging"
)

var tracer = otel.Tracer("clinic.internal.appointments")

const dateLayout = "2006-01-02"

// ServiceDurations resolves a service id to its duration in minutes.
type ServiceDurations interface {
	Duration(ctx context.Context, id uuid.UUID) (int, error)
}

// repository is what the handler needs from the appointments store.
type repository interface {
	ListByDate(ctx context.Context, date time.Time) ([]Appointment, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Appointment, error)
	List(ctx context.Context) ([]Appointment, error)
	CreateIfFree(ctx context.Context, a *Appointment) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	MarkAttended(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Handler handles HTTP requests for appointments and slot availability.
type Handler struct {
	repo     repository
	services ServiceDurations
	hours    schedule.WeeklyHours
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger
}

// NewHandler creates an appointments handler.
func NewHandler(repo repository, services ServiceDurations, hours schedule.WeeklyHours, m *metrics.BookingMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:     repo,
		services: services,
		hours:    hours,
		metrics:  m,
		logger:   logger,
	}
}

// AvailableSlotsResponse is the availability query payload.
type AvailableSlotsResponse struct {
	AvailableSlots []schedule.RenderedSlot `json:"available_slots"`
}

// GetAvailableSlots handles GET /slots?service_id=...&date=YYYY-MM-DD.
func (h *Handler) GetAvailableSlots(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "appointments.available_slots",
		trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	serviceID, err := uuid.Parse(r.URL.Query().Get("service_id"))
	if err != nil {
		h.metrics.ObserveSlotQuery("invalid_input", 0)
		http.Error(w, "invalid service_id", http.StatusBadRequest)
		return
	}
	date, err := time.Parse(dateLayout, r.URL.Query().Get("date"))
	if err != nil {
		h.metrics.ObserveSlotQuery("invalid_input", 0)
		http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	duration, err := h.services.Duration(ctx, serviceID)
	if err != nil {
		h.metrics.ObserveSlotQuery("invalid_input", 0)
		http.Error(w, "unknown service", http.StatusBadRequest)
		return
	}

	booked, err := h.repo.ListByDate(ctx, date)
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err, "date", date.Format(dateLayout))
		h.metrics.ObserveSlotQuery("error", 0)
		http.Error(w, "failed to compute availability", http.StatusInternalServerError)
		return
	}

	intervals := make([]schedule.Interval, 0, len(booked))
	for _, a := range booked {
		if a.Status == StatusCancelled {
			continue
		}
		intervals = append(intervals, a.Interval())
	}

	slots := schedule.Available(h.hours.For(date), time.Duration(duration)*time.Minute, intervals)
	span.SetAttributes(
		attribute.String("service_id", serviceID.String()),
		attribute.String("date", date.Format(dateLayout)),
		attribute.Int("slots", len(slots)),
	)
	h.metrics.ObserveSlotQuery("ok", len(slots))

	writeJSON(w, http.StatusOK, AvailableSlotsResponse{AvailableSlots: schedule.Render(slots)})
}

// Create handles POST /appointments. Clients book for themselves with status
// Pending; admins may book for any user with an explicit status.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	start, end, err := parseTimeSlot(req.TimeSlot)
	if err != nil {
		http.Error(w, "invalid time_slot", http.StatusBadRequest)
		return
	}
	if _, err := h.services.Duration(r.Context(), req.ServiceID); err != nil {
		http.Error(w, "unknown service", http.StatusBadRequest)
		return
	}

	a := &Appointment{
		UserID:    sess.UserID,
		ServiceID: req.ServiceID,
		Date:      date,
		Start:     start,
		End:       end,
		Status:    StatusPending,
	}
	if sess.Role == auth.RoleAdmin {
		if req.UserID != uuid.Nil {
			a.UserID = req.UserID
		}
		if req.Status != "" {
			if !req.Status.Valid() {
				http.Error(w, "invalid status", http.StatusBadRequest)
				return
			}
			a.Status = req.Status
		}
	}

	if err := h.repo.CreateIfFree(r.Context(), a); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		h.logger.Error("failed to create appointment", "error", err)
		http.Error(w, "failed to create appointment", http.StatusInternalServerError)
		return
	}

	h.logger.Info("appointment created",
		"id", a.ID,
		"user_id", a.UserID,
		"service_id", a.ServiceID,
		"date", req.Date,
		"status", a.Status,
	)
	h.metrics.ObserveAppointment(string(a.Status))

	writeJSON(w, http.StatusCreated, toResponse(*a))
}

// ListMine handles GET /appointments for the authenticated client.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	list, err := h.repo.ListByUser(r.Context(), sess.UserID)
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err, "user_id", sess.UserID)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toResponses(list))
}

// List handles GET /admin/appointments.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toResponses(list))
}

// ListForUser handles GET /admin/users/{userID}/appointments.
func (h *Handler) ListForUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	list, err := h.repo.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err, "user_id", userID)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toResponses(list))
}

type updateStatusRequest struct {
	Status Status `json:"status"`
}

// UpdateStatus handles PUT /admin/appointments/{id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Status.Valid() {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}
	if err := h.repo.UpdateStatus(r.Context(), id, req.Status); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to update status", "error", err, "id", id)
		http.Error(w, "failed to update status", http.StatusInternalServerError)
		return
	}
	h.metrics.ObserveAppointment(string(req.Status))
	w.WriteHeader(http.StatusNoContent)
}

// MarkAttended handles POST /admin/appointments/{id}/attended.
func (h *Handler) MarkAttended(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	if err := h.repo.MarkAttended(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to mark attended", "error", err, "id", id)
		http.Error(w, "failed to mark attended", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /admin/appointments/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete appointment", "error", err, "id", id)
		http.Error(w, "failed to delete appointment", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Response is the wire form of an appointment.
type Response struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ServiceID uuid.UUID `json:"service_id"`
	Date      string    `json:"date"`
	Start     string    `json:"start"`
	End       string    `json:"end"`
	Status    Status    `json:"status"`
	Attended  bool      `json:"attended"`
	CreatedAt time.Time `json:"created_at"`
}

func toResponse(a Appointment) Response {
	return Response{
		ID:        a.ID,
		UserID:    a.UserID,
		ServiceID: a.ServiceID,
		Date:      a.Date.Format(dateLayout),
		Start:     a.Start.On(a.Date).Format("03:04 PM"),
		End:       a.End.On(a.Date).Format("03:04 PM"),
		Status:    a.Status,
		Attended:  a.Attended,
		CreatedAt: a.CreatedAt,
	}
}

func toResponses(list []Appointment) []Response {
	out := make([]Response, 0, len(list))
	for _, a := range list {
		out = append(out, toResponse(a))
	}
	return out
}

// parseTimeSlot parses "08:30 AM - 09:00 AM" as emitted by the availability
// endpoint.
func parseTimeSlot(s string) (schedule.ClockTime, schedule.ClockTime, error) {
	parts := strings.Split(s, " - ")
	if len(parts) != 2 {
		return schedule.ClockTime{}, schedule.ClockTime{}, ErrInvalidInput
	}
	start, err := time.Parse("03:04 PM", parts[0])
	if err != nil {
		return schedule.ClockTime{}, schedule.ClockTime{}, ErrInvalidInput
	}
	end, err := time.Parse("03:04 PM", parts[1])
	if err != nil {
		return schedule.ClockTime{}, schedule.ClockTime{}, ErrInvalidInput
	}
	return schedule.ClockTime{Hour: start.Hour(), Minute: start.Minute()},
		schedule.ClockTime{Hour: end.Hour(), Minute: end.Minute()}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
