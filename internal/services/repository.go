package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository persists the service catalog in Postgres.
type Repository struct {
	db db
}

// NewRepository creates a repository backed by a pgx pool or compatible mock.
func NewRepository(db db) *Repository {
	if db == nil {
		panic("services: db required")
	}
	return &Repository{db: db}
}

// List returns the catalog ordered by title.
func (r *Repository) List(ctx context.Context) ([]Service, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, title, description, duration_minutes, image_key, created_at
		FROM services
		ORDER BY title
	`)
	if err != nil {
		return nil, fmt.Errorf("services: list: %w", err)
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.Duration, &s.ImageKey, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("services: scan: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("services: rows: %w", err)
	}
	return out, nil
}

// GetByID fetches one service.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Service, error) {
	var s Service
	err := r.db.QueryRow(ctx, `
		SELECT id, title, description, duration_minutes, image_key, created_at
		FROM services
		WHERE id = $1
	`, id).Scan(&s.ID, &s.Title, &s.Description, &s.Duration, &s.ImageKey, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("services: get: %w", err)
	}
	return &s, nil
}

// Duration resolves a service id to its duration in minutes. The slot
// availability endpoint depends on this.
func (r *Repository) Duration(ctx context.Context, id uuid.UUID) (int, error) {
	s, err := r.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return s.Duration, nil
}

// Title resolves a service id to its display title.
func (r *Repository) Title(ctx context.Context, id uuid.UUID) (string, error) {
	s, err := r.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return s.Title, nil
}

// Create inserts a new service.
func (r *Repository) Create(ctx context.Context, s *Service) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO services (id, title, description, duration_minutes, image_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.ID, s.Title, s.Description, s.Duration, s.ImageKey, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("services: insert: %w", err)
	}
	return nil
}

// Update rewrites a service. An empty imageKey keeps the stored one, matching
// the admin form where re-uploading the image is optional.
func (r *Repository) Update(ctx context.Context, s *Service) error {
	if err := s.Validate(); err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE services
		SET title = $2, description = $3, duration_minutes = $4,
		    image_key = CASE WHEN $5 = '' THEN image_key ELSE $5 END
		WHERE id = $1
	`, s.ID, s.Title, s.Description, s.Duration, s.ImageKey)
	if err != nil {
		return fmt.Errorf("services: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a service and returns its image key so the caller can clean
// up object storage.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (string, error) {
	var imageKey string
	err := r.db.QueryRow(ctx, `
		DELETE FROM services WHERE id = $1 RETURNING image_key
	`, id).Scan(&imageKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("services: delete: %w", err)
	}
	return imageKey, nil
}
