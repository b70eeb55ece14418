// Package gallery manages the clinic's public photo gallery. Images live in
// object storage; Postgres keeps the listing order.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Image is one gallery entry.
type Image struct {
	ID         uuid.UUID `json:"id"`
	ObjectKey  string    `json:"object_key"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// ErrNotFound is returned when an image does not exist.
var ErrNotFound = errors.New("gallery image not found")

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository persists gallery entries in Postgres.
type Repository struct {
	db db
}

// NewRepository creates a repository backed by a pgx pool or compatible mock.
func NewRepository(db db) *Repository {
	if db == nil {
		panic("gallery: db required")
	}
	return &Repository{db: db}
}

// List returns all images, newest first.
func (r *Repository) List(ctx context.Context) ([]Image, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, object_key, uploaded_at
		FROM gallery_images
		ORDER BY uploaded_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("gallery: list: %w", err)
	}
	defer rows.Close()

	var out []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.ID, &img.ObjectKey, &img.UploadedAt); err != nil {
			return nil, fmt.Errorf("gallery: scan: %w", err)
		}
		out = append(out, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("gallery: rows: %w", err)
	}
	return out, nil
}

// Create inserts a new entry.
func (r *Repository) Create(ctx context.Context, img *Image) error {
	if img.ID == uuid.Nil {
		img.ID = uuid.New()
	}
	if img.UploadedAt.IsZero() {
		img.UploadedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO gallery_images (id, object_key, uploaded_at)
		VALUES ($1, $2, $3)
	`, img.ID, img.ObjectKey, img.UploadedAt)
	if err != nil {
		return fmt.Errorf("gallery: insert: %w", err)
	}
	return nil
}

// Delete removes an entry and returns its object key for storage cleanup.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (string, error) {
	var objectKey string
	err := r.db.QueryRow(ctx, `
		DELETE FROM gallery_images WHERE id = $1 RETURNING object_key
	`, id).Scan(&objectKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("gallery: delete: %w", err)
	}
	return objectKey, nil
}
