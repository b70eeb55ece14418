package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/jaylondental/clinic-api/internal/schedule"
)

// db is the subset of pgxpool.Pool the repository needs; pgxmock satisfies it
// in tests.
type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository persists appointments in Postgres.
type Repository struct {
	db db
}

// NewRepository creates a repository backed by a pgx pool or compatible mock.
func NewRepository(db db) *Repository {
	if db == nil {
		panic("appointments: db required")
	}
	return &Repository{db: db}
}

const selectColumns = `id, user_id, service_id, date, start_time, end_time, status, attended, created_at`

// ListByDate returns every appointment on the given date ordered by start
// time, then creation order. The explicit ordering is what the slot
// calculator's determinism rests on.
func (r *Repository) ListByDate(ctx context.Context, date time.Time) ([]Appointment, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM appointments
		WHERE date = $1
		ORDER BY start_time, created_at
	`
	rows, err := r.db.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("appointments: list by date: %w", err)
	}
	defer rows.Close()
	return scanAll(rows)
}

// ListByUser returns a user's appointments, most recent date first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Appointment, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM appointments
		WHERE user_id = $1
		ORDER BY date DESC, start_time
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("appointments: list by user: %w", err)
	}
	defer rows.Close()
	return scanAll(rows)
}

// List returns all appointments, most recent date first.
func (r *Repository) List(ctx context.Context) ([]Appointment, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM appointments
		ORDER BY date DESC, start_time
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	defer rows.Close()
	return scanAll(rows)
}

// GetByID fetches a single appointment.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM appointments
		WHERE id = $1
	`
	a, err := scanOne(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: get: %w", err)
	}
	return a, nil
}

// Create inserts the appointment without any conflict check, preserving the
// original best-effort booking behavior.
func (r *Repository) Create(ctx context.Context, a *Appointment) error {
	if err := insert(ctx, r.db, a); err != nil {
		return fmt.Errorf("appointments: insert: %w", err)
	}
	return nil
}

// CreateIfFree re-verifies inside the insert transaction that no
// non-cancelled appointment overlaps the requested interval, closing the
// window between the availability read and the booking write.
func (r *Repository) CreateIfFree(ctx context.Context, a *Appointment) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("appointments: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var conflicts int
	query := `
		SELECT COUNT(*)
		FROM appointments
		WHERE date = $1 AND status <> 'Cancelled'
		  AND start_time < $3 AND end_time > $2
	`
	if err := tx.QueryRow(ctx, query, a.Date, clockToPG(a.Start), clockToPG(a.End)).Scan(&conflicts); err != nil {
		return fmt.Errorf("appointments: conflict check: %w", err)
	}
	if conflicts > 0 {
		return ErrSlotTaken
	}

	if err := insert(ctx, tx, a); err != nil {
		return fmt.Errorf("appointments: insert: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("appointments: commit: %w", err)
	}
	return nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insert(ctx context.Context, e execer, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = StatusPending
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO appointments (id, user_id, service_id, date, start_time, end_time, status, attended, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := e.Exec(ctx, query,
		a.ID, a.UserID, a.ServiceID, a.Date,
		clockToPG(a.Start), clockToPG(a.End),
		string(a.Status), a.Attended, a.CreatedAt,
	)
	return err
}

// UpdateStatus sets the appointment's status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.db.Exec(ctx, `UPDATE appointments SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("appointments: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAttended flags the appointment as attended.
func (r *Repository) MarkAttended(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE appointments SET attended = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("appointments: mark attended: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the appointment.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("appointments: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUnattended returns approved, unattended appointments on the given date.
// The sweeper calls this with yesterday's date.
func (r *Repository) ListUnattended(ctx context.Context, date time.Time) ([]Appointment, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM appointments
		WHERE date = $1 AND status = 'Approved' AND attended = FALSE
		ORDER BY start_time, created_at
	`
	rows, err := r.db.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("appointments: list unattended: %w", err)
	}
	defer rows.Close()
	return scanAll(rows)
}

func scanAll(rows pgx.Rows) ([]Appointment, error) {
	var out []Appointment
	for rows.Next() {
		a, err := scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: rows: %w", err)
	}
	return out, nil
}

func scanOne(row pgx.Row) (*Appointment, error) {
	var (
		a          Appointment
		status     string
		start, end pgtype.Time
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.ServiceID, &a.Date, &start, &end, &status, &a.Attended, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Status = Status(status)
	a.Start = pgToClock(start)
	a.End = pgToClock(end)
	return &a, nil
}

func clockToPG(c schedule.ClockTime) pgtype.Time {
	return pgtype.Time{
		Microseconds: (int64(c.Hour)*3600 + int64(c.Minute)*60) * 1_000_000,
		Valid:        true,
	}
}

func pgToClock(t pgtype.Time) schedule.ClockTime {
	secs := t.Microseconds / 1_000_000
	return schedule.ClockTime{
		Hour:   int(secs / 3600),
		Minute: int(secs % 3600 / 60),
	}
}
