package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const selectColumns = `
	id, first_name, last_name, email, password_hash, phone_number, sex,
	current_address, birthday, age, is_admin, email_verified,
	verification_token, verification_token_created,
	password_reset_token, password_reset_token_created, created_at
`

// Repository persists user accounts in Postgres.
type Repository struct {
	db db
}

// NewRepository creates a repository backed by a pgx pool or compatible mock.
func NewRepository(db db) *Repository {
	if db == nil {
		panic("users: db required")
	}
	return &Repository{db: db}
}

// Create inserts a new account. A duplicate email maps to ErrEmailTaken via
// the unique constraint rather than a racy pre-check.
func (r *Repository) Create(ctx context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (
			id, first_name, last_name, email, password_hash, phone_number, sex,
			current_address, birthday, age, is_admin, email_verified,
			verification_token, verification_token_created, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, u.ID, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.PhoneNumber,
		u.Sex, u.CurrentAddress, u.Birthday, u.Age, u.IsAdmin, u.EmailVerified,
		u.VerificationToken, timestampOrNull(u.VerificationTokenCreated), u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailTaken
		}
		return fmt.Errorf("users: insert: %w", err)
	}
	return nil
}

// GetByID fetches one account.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getWhere(ctx, "id = $1", id)
}

// GetByEmail fetches an account by its unique email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getWhere(ctx, "email = $1", email)
}

// GetByVerificationToken fetches the account holding an email verification
// token.
func (r *Repository) GetByVerificationToken(ctx context.Context, token string) (*User, error) {
	return r.getWhere(ctx, "verification_token = $1 AND verification_token <> ''", token)
}

// GetByResetToken fetches the account holding a password reset token.
func (r *Repository) GetByResetToken(ctx context.Context, token string) (*User, error) {
	return r.getWhere(ctx, "password_reset_token = $1 AND password_reset_token <> ''", token)
}

func (r *Repository) getWhere(ctx context.Context, where string, arg any) (*User, error) {
	row := r.db.QueryRow(ctx, "SELECT "+selectColumns+" FROM users WHERE "+where, arg)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("users: get: %w", err)
	}
	return u, nil
}

// List returns verified patient accounts, newest first. Staff accounts and
// signups that never confirmed their email are excluded.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.Query(ctx,
		"SELECT "+selectColumns+" FROM users WHERE email_verified = TRUE AND is_admin = FALSE ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("users: scan: %w", err)
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("users: rows: %w", err)
	}
	return out, nil
}

// MarkVerified flips email_verified and burns the verification token.
func (r *Repository) MarkVerified(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET email_verified = TRUE, verification_token = '', verification_token_created = NULL
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("users: mark verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetResetToken stores a fresh password reset token for the account.
func (r *Repository) SetResetToken(ctx context.Context, id uuid.UUID, token string, issued time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET password_reset_token = $2, password_reset_token_created = $3
		WHERE id = $1
	`, id, token, issued)
	if err != nil {
		return fmt.Errorf("users: set reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePassword replaces the password hash and burns the reset token.
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET password_hash = $2, password_reset_token = '', password_reset_token_created = NULL
		WHERE id = $1
	`, id, hash)
	if err != nil {
		return fmt.Errorf("users: update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProfile rewrites the fields a patient may edit about themselves.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, p ProfileUpdate) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET first_name = $2, last_name = $3, phone_number = $4, sex = $5,
		    current_address = $6, age = $7
		WHERE id = $1
	`, id, p.FirstName, p.LastName, p.PhoneNumber, p.Sex, p.CurrentAddress, p.Age)
	if err != nil {
		return fmt.Errorf("users: update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an account. Appointments cascade at the schema level.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("users: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*User, error) {
	var (
		u           User
		verifiedAt  pgtype.Timestamptz
		resetIssued pgtype.Timestamptz
	)
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash,
		&u.PhoneNumber, &u.Sex, &u.CurrentAddress, &u.Birthday, &u.Age,
		&u.IsAdmin, &u.EmailVerified,
		&u.VerificationToken, &verifiedAt,
		&u.PasswordResetToken, &resetIssued, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	if verifiedAt.Valid {
		u.VerificationTokenCreated = verifiedAt.Time
	}
	if resetIssued.Valid {
		u.PasswordResetTokenCreated = resetIssued.Time
	}
	return &u, nil
}

func timestampOrNull(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}
