// Package dashboard computes the admin overview numbers.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Stats is the admin dashboard payload.
type Stats struct {
	TotalAppointments int            `json:"total_appointments"`
	TodayAppointments int            `json:"today_appointments"`
	ByStatus          map[string]int `json:"by_status"`
	MonthlyApproved   []MonthCount   `json:"monthly_approved"`
	DailyApproved     []DayCount     `json:"daily_approved"`
}

// MonthCount is one month's approved-appointment total.
type MonthCount struct {
	Month string `json:"month"` // 2006-01
	Count int    `json:"count"`
}

// DayCount is one day's approved-appointment total.
type DayCount struct {
	Day   string `json:"day"` // 2006-01-02
	Count int    `json:"count"`
}

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Service computes dashboard stats from the appointments table.
type Service struct {
	db  db
	now func() time.Time
}

// NewService creates the stats service.
func NewService(db db) *Service {
	if db == nil {
		panic("dashboard: db required")
	}
	return &Service{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Stats runs the overview queries.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	out := &Stats{ByStatus: make(map[string]int)}
	today := s.now().Truncate(24 * time.Hour)

	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM appointments`).Scan(&out.TotalAppointments)
	if err != nil {
		return nil, fmt.Errorf("dashboard: total: %w", err)
	}
	err = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM appointments WHERE date = $1`, today).
		Scan(&out.TodayAppointments)
	if err != nil {
		return nil, fmt.Errorf("dashboard: today: %w", err)
	}

	rows, err := s.db.Query(ctx, `SELECT status, COUNT(*) FROM appointments GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("dashboard: by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("dashboard: scan status: %w", err)
		}
		out.ByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dashboard: status rows: %w", err)
	}

	out.MonthlyApproved, err = s.monthlyApproved(ctx, today)
	if err != nil {
		return nil, err
	}
	out.DailyApproved, err = s.dailyApproved(ctx, today)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// monthlyApproved returns the trailing 12 months of approved appointments,
// oldest first, with zero-filled gaps.
func (s *Service) monthlyApproved(ctx context.Context, today time.Time) ([]MonthCount, error) {
	start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -11, 0)

	rows, err := s.db.Query(ctx, `
		SELECT to_char(date_trunc('month', date), 'YYYY-MM') AS month, COUNT(*)
		FROM appointments
		WHERE status = 'Approved' AND date >= $1
		GROUP BY month
		ORDER BY month
	`, start)
	if err != nil {
		return nil, fmt.Errorf("dashboard: monthly: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var month string
		var count int
		if err := rows.Scan(&month, &count); err != nil {
			return nil, fmt.Errorf("dashboard: scan monthly: %w", err)
		}
		counts[month] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dashboard: monthly rows: %w", err)
	}

	out := make([]MonthCount, 0, 12)
	for i := 0; i < 12; i++ {
		month := start.AddDate(0, i, 0).Format("2006-01")
		out = append(out, MonthCount{Month: month, Count: counts[month]})
	}
	return out, nil
}

// dailyApproved returns the trailing 7 days of approved appointments, oldest
// first, with zero-filled gaps.
func (s *Service) dailyApproved(ctx context.Context, today time.Time) ([]DayCount, error) {
	start := today.AddDate(0, 0, -6)

	rows, err := s.db.Query(ctx, `
		SELECT to_char(date, 'YYYY-MM-DD') AS day, COUNT(*)
		FROM appointments
		WHERE status = 'Approved' AND date >= $1 AND date <= $2
		GROUP BY day
		ORDER BY day
	`, start, today)
	if err != nil {
		return nil, fmt.Errorf("dashboard: daily: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var day string
		var count int
		if err := rows.Scan(&day, &count); err != nil {
			return nil, fmt.Errorf("dashboard: scan daily: %w", err)
		}
		counts[day] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dashboard: daily rows: %w", err)
	}

	out := make([]DayCount, 0, 7)
	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i).Format("2006-01-02")
		out = append(out, DayCount{Day: day, Count: counts[day]})
	}
	return out, nil
}
