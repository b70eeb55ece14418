package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/jaylondental/clinic-api/internal/schedule"
)

var testDate = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

func appointmentRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "user_id", "service_id", "date", "start_time", "end_time", "status", "attended", "created_at",
	})
}

func pgTime(hour, minute int) interface{} {
	return clockToPG(schedule.ClockTime{Hour: hour, Minute: minute})
}

func TestListByDate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	id := uuid.New()
	rows := appointmentRows().AddRow(
		id, uuid.New(), uuid.New(), testDate,
		clockToPG(schedule.ClockTime{Hour: 9, Minute: 0}),
		clockToPG(schedule.ClockTime{Hour: 10, Minute: 0}),
		"Approved", false, time.Now().UTC(),
	)
	mock.ExpectQuery("SELECT (.+) FROM appointments").WithArgs(testDate).WillReturnRows(rows)

	repo := NewRepository(mock)
	list, err := repo.ListByDate(context.Background(), testDate)
	if err != nil {
		t.Fatalf("list by date: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 appointment, got %d", len(list))
	}
	a := list[0]
	if a.ID != id || a.Status != StatusApproved {
		t.Errorf("unexpected appointment %+v", a)
	}
	if a.Start != (schedule.ClockTime{Hour: 9}) || a.End != (schedule.ClockTime{Hour: 10}) {
		t.Errorf("unexpected times %+v %+v", a.Start, a.End)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateIfFreeInsertsWhenClear(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	a := &Appointment{
		UserID:    uuid.New(),
		ServiceID: uuid.New(),
		Date:      testDate,
		Start:     schedule.ClockTime{Hour: 9, Minute: 0},
		End:       schedule.ClockTime{Hour: 9, Minute: 30},
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(testDate, pgTime(9, 0), pgTime(9, 30)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO appointments").
		WithArgs(pgxmock.AnyArg(), a.UserID, a.ServiceID, testDate, pgTime(9, 0), pgTime(9, 30), "Pending", false, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	repo := NewRepository(mock)
	if err := repo.CreateIfFree(context.Background(), a); err != nil {
		t.Fatalf("create if free: %v", err)
	}
	if a.ID == uuid.Nil {
		t.Error("expected generated id")
	}
	if a.Status != StatusPending {
		t.Errorf("expected default Pending status, got %s", a.Status)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateIfFreeRejectsOverlap(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	a := &Appointment{
		UserID:    uuid.New(),
		ServiceID: uuid.New(),
		Date:      testDate,
		Start:     schedule.ClockTime{Hour: 9, Minute: 0},
		End:       schedule.ClockTime{Hour: 9, Minute: 30},
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(testDate, pgTime(9, 0), pgTime(9, 30)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	repo := NewRepository(mock)
	if err := repo.CreateIfFree(context.Background(), a); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec("UPDATE appointments SET status").
		WithArgs(id, "Approved").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewRepository(mock)
	if err := repo.UpdateStatus(context.Background(), id, StatusApproved); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListUnattended(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	rows := appointmentRows().AddRow(
		uuid.New(), uuid.New(), uuid.New(), testDate,
		clockToPG(schedule.ClockTime{Hour: 13, Minute: 0}),
		clockToPG(schedule.ClockTime{Hour: 13, Minute: 30}),
		"Approved", false, time.Now().UTC(),
	)
	mock.ExpectQuery("SELECT (.+) FROM appointments").WithArgs(testDate).WillReturnRows(rows)

	repo := NewRepository(mock)
	list, err := repo.ListUnattended(context.Background(), testDate)
	if err != nil {
		t.Fatalf("list unattended: %v", err)
	}
	if len(list) != 1 || list[0].Status != StatusApproved || list[0].Attended {
		t.Errorf("unexpected result %+v", list)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDelete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec("DELETE FROM appointments").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	repo := NewRepository(mock)
	if err := repo.Delete(context.Background(), id); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestClockConversionRoundTrip(t *testing.T) {
	for _, c := range []schedule.ClockTime{{Hour: 0, Minute: 0}, {Hour: 8, Minute: 30}, {Hour: 23, Minute: 59}} {
		if got := pgToClock(clockToPG(c)); got != c {
			t.Errorf("round trip %+v -> %+v", c, got)
		}
	}
}
