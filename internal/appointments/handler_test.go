package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jaylondental/clinic-api/internal/auth"
	"github.com/jaylondental/clinic-api/internal/schedule"
	"github.com/jaylondental/clinic-api/pkg/logging"
)

type fakeRepo struct {
	byDate    []Appointment
	created   *Appointment
	createErr error
	updated   map[uuid.UUID]Status
}

func (f *fakeRepo) ListByDate(ctx context.Context, date time.Time) ([]Appointment, error) {
	return f.byDate, nil
}

func (f *fakeRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]Appointment, error) {
	var out []Appointment
	for _, a := range f.byDate {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepo) List(ctx context.Context) ([]Appointment, error) {
	return f.byDate, nil
}

func (f *fakeRepo) CreateIfFree(ctx context.Context, a *Appointment) error {
	if f.createErr != nil {
		return f.createErr
	}
	a.ID = uuid.New()
	f.created = a
	return nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	if f.updated == nil {
		f.updated = map[uuid.UUID]Status{}
	}
	f.updated[id] = status
	return nil
}

func (f *fakeRepo) MarkAttended(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeRepo) Delete(ctx context.Context, id uuid.UUID) error { return ErrNotFound }

type fakeCatalog struct {
	duration int
	err      error
}

func (f fakeCatalog) Duration(ctx context.Context, id uuid.UUID) (int, error) {
	return f.duration, f.err
}

func newHandler(repo *fakeRepo, catalog fakeCatalog) *Handler {
	return NewHandler(repo, catalog, schedule.DefaultWeeklyHours(), nil, logging.Default())
}

func TestGetAvailableSlotsEmptyMonday(t *testing.T) {
	h := newHandler(&fakeRepo{}, fakeCatalog{duration: 30})

	// 2026-03-02 is a Monday.
	req := httptest.NewRequest(http.MethodGet, "/slots?service_id="+uuid.NewString()+"&date=2026-03-02", nil)
	w := httptest.NewRecorder()
	h.GetAvailableSlots(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp AvailableSlotsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.AvailableSlots) != 15 {
		t.Fatalf("expected 15 slots, got %d", len(resp.AvailableSlots))
	}
	first, last := resp.AvailableSlots[0], resp.AvailableSlots[14]
	if first.Start != "08:30 AM" || first.End != "09:00 AM" {
		t.Errorf("unexpected first slot %+v", first)
	}
	if last.Start != "03:30 PM" || last.End != "04:00 PM" {
		t.Errorf("unexpected last slot %+v", last)
	}
}

func TestGetAvailableSlotsSkipsBookedAndCancelled(t *testing.T) {
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	repo := &fakeRepo{byDate: []Appointment{
		{
			Date:   date,
			Start:  schedule.ClockTime{Hour: 9, Minute: 0},
			End:    schedule.ClockTime{Hour: 10, Minute: 0},
			Status: StatusApproved,
		},
		{
			// Cancelled bookings release their interval.
			Date:   date,
			Start:  schedule.ClockTime{Hour: 14, Minute: 0},
			End:    schedule.ClockTime{Hour: 15, Minute: 0},
			Status: StatusCancelled,
		},
	}}
	h := newHandler(repo, fakeCatalog{duration: 30})

	req := httptest.NewRequest(http.MethodGet, "/slots?service_id="+uuid.NewString()+"&date=2026-03-02", nil)
	w := httptest.NewRecorder()
	h.GetAvailableSlots(w, req)

	var resp AvailableSlotsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, s := range resp.AvailableSlots {
		if s.Start == "09:00 AM" || s.Start == "09:30 AM" {
			t.Errorf("slot inside approved booking emitted: %+v", s)
		}
	}
	var sawTwo bool
	for _, s := range resp.AvailableSlots {
		if s.Start == "02:00 PM" {
			sawTwo = true
		}
	}
	if !sawTwo {
		t.Error("cancelled booking should not block its slot")
	}
}

func TestGetAvailableSlotsInvalidDate(t *testing.T) {
	h := newHandler(&fakeRepo{}, fakeCatalog{duration: 30})

	req := httptest.NewRequest(http.MethodGet, "/slots?service_id="+uuid.NewString()+"&date=02-03-2026", nil)
	w := httptest.NewRecorder()
	h.GetAvailableSlots(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad date, got %d", w.Code)
	}
}

func TestGetAvailableSlotsUnknownService(t *testing.T) {
	h := newHandler(&fakeRepo{}, fakeCatalog{err: errors.New("service not found")})

	req := httptest.NewRequest(http.MethodGet, "/slots?service_id="+uuid.NewString()+"&date=2026-03-02", nil)
	w := httptest.NewRecorder()
	h.GetAvailableSlots(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown service, got %d", w.Code)
	}
}

func clientRequest(t *testing.T, userID uuid.UUID, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body))
	sess := &auth.Session{Token: "t", UserID: userID, Role: auth.RoleClient}
	return req.WithContext(auth.WithSession(req.Context(), sess))
}

func TestCreateAsClient(t *testing.T) {
	repo := &fakeRepo{}
	h := newHandler(repo, fakeCatalog{duration: 30})
	userID := uuid.New()
	serviceID := uuid.New()

	body := `{"service_id":"` + serviceID.String() + `","date":"2026-03-02","time_slot":"08:30 AM - 09:00 AM","status":"Approved"}`
	w := httptest.NewRecorder()
	h.Create(w, clientRequest(t, userID, body))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if repo.created == nil {
		t.Fatal("expected appointment to be created")
	}
	if repo.created.UserID != userID {
		t.Error("client booking must use the session user")
	}
	if repo.created.Status != StatusPending {
		t.Errorf("client cannot choose status, got %s", repo.created.Status)
	}
	if repo.created.Start != (schedule.ClockTime{Hour: 8, Minute: 30}) {
		t.Errorf("unexpected start %+v", repo.created.Start)
	}
}

func TestCreateAsAdminHonorsUserAndStatus(t *testing.T) {
	repo := &fakeRepo{}
	h := newHandler(repo, fakeCatalog{duration: 30})
	target := uuid.New()

	body := `{"user_id":"` + target.String() + `","service_id":"` + uuid.NewString() + `","date":"2026-03-02","time_slot":"10:00 AM - 10:30 AM","status":"Approved"}`
	req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body))
	sess := &auth.Session{Token: "t", UserID: uuid.New(), Role: auth.RoleAdmin}
	req = req.WithContext(auth.WithSession(req.Context(), sess))

	w := httptest.NewRecorder()
	h.Create(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if repo.created.UserID != target || repo.created.Status != StatusApproved {
		t.Errorf("admin fields not honored: %+v", repo.created)
	}
}

func TestCreateSlotTaken(t *testing.T) {
	repo := &fakeRepo{createErr: ErrSlotTaken}
	h := newHandler(repo, fakeCatalog{duration: 30})

	body := `{"service_id":"` + uuid.NewString() + `","date":"2026-03-02","time_slot":"08:30 AM - 09:00 AM"}`
	w := httptest.NewRecorder()
	h.Create(w, clientRequest(t, uuid.New(), body))

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 for taken slot, got %d", w.Code)
	}
}

func TestCreateInvalidTimeSlot(t *testing.T) {
	h := newHandler(&fakeRepo{}, fakeCatalog{duration: 30})

	body := `{"service_id":"` + uuid.NewString() + `","date":"2026-03-02","time_slot":"8h30"}`
	w := httptest.NewRecorder()
	h.Create(w, clientRequest(t, uuid.New(), body))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad time slot, got %d", w.Code)
	}
}

func TestCreateUnauthenticated(t *testing.T) {
	h := newHandler(&fakeRepo{}, fakeCatalog{duration: 30})

	req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader("{}"))
	w := httptest.NewRecorder()
	h.Create(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestParseTimeSlot(t *testing.T) {
	start, end, err := parseTimeSlot("08:30 AM - 09:00 AM")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start != (schedule.ClockTime{Hour: 8, Minute: 30}) || end != (schedule.ClockTime{Hour: 9, Minute: 0}) {
		t.Errorf("unexpected times %+v %+v", start, end)
	}

	if _, _, err := parseTimeSlot("03:30 PM - 04:00 PM"); err != nil {
		t.Errorf("PM slot should parse: %v", err)
	}
	if _, _, err := parseTimeSlot("garbage"); err == nil {
		t.Error("expected error for malformed slot")
	}
}
