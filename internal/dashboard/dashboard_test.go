package dashboard

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestStats(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	today := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	dayStart := today.AddDate(0, 0, -6)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM appointments`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(42))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM appointments WHERE date`).
		WithArgs(today).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM appointments GROUP BY status`).
		WillReturnRows(pgxmock.NewRows([]string{"status", "count"}).
			AddRow("Pending", 5).
			AddRow("Approved", 30).
			AddRow("Cancelled", 7))
	mock.ExpectQuery(`date_trunc\('month', date\)`).
		WithArgs(monthStart).
		WillReturnRows(pgxmock.NewRows([]string{"month", "count"}).
			AddRow("2026-03", 10).
			AddRow("2026-04", 8))
	mock.ExpectQuery(`to_char\(date, 'YYYY-MM-DD'\)`).
		WithArgs(dayStart, today).
		WillReturnRows(pgxmock.NewRows([]string{"day", "count"}).
			AddRow("2026-04-14", 2).
			AddRow("2026-04-15", 1))

	svc := NewService(mock)
	svc.now = func() time.Time { return today.Add(9 * time.Hour) }

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	if stats.TotalAppointments != 42 || stats.TodayAppointments != 3 {
		t.Errorf("unexpected totals %+v", stats)
	}
	if stats.ByStatus["Approved"] != 30 || stats.ByStatus["Pending"] != 5 {
		t.Errorf("unexpected status counts %v", stats.ByStatus)
	}

	if len(stats.MonthlyApproved) != 12 {
		t.Fatalf("expected 12 months, got %d", len(stats.MonthlyApproved))
	}
	if stats.MonthlyApproved[0].Month != "2025-05" || stats.MonthlyApproved[11].Month != "2026-04" {
		t.Errorf("unexpected month range %v .. %v", stats.MonthlyApproved[0], stats.MonthlyApproved[11])
	}
	if stats.MonthlyApproved[11].Count != 8 || stats.MonthlyApproved[0].Count != 0 {
		t.Errorf("unexpected monthly counts %v", stats.MonthlyApproved)
	}

	if len(stats.DailyApproved) != 7 {
		t.Fatalf("expected 7 days, got %d", len(stats.DailyApproved))
	}
	if stats.DailyApproved[0].Day != "2026-04-09" || stats.DailyApproved[6].Day != "2026-04-15" {
		t.Errorf("unexpected day range %v .. %v", stats.DailyApproved[0], stats.DailyApproved[6])
	}
	if stats.DailyApproved[5].Count != 2 || stats.DailyApproved[6].Count != 1 || stats.DailyApproved[0].Count != 0 {
		t.Errorf("unexpected daily counts %v", stats.DailyApproved)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
