package users

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is a registered patient or clinic administrator.
type User struct {
	ID             uuid.UUID `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	PhoneNumber    string    `json:"phone_number"`
	Sex            string    `json:"sex"`
	CurrentAddress string    `json:"current_address"`
	Birthday       time.Time `json:"birthday"`
	Age            int       `json:"age"`
	IsAdmin        bool      `json:"is_admin"`
	EmailVerified  bool      `json:"email_verified"`
	CreatedAt      time.Time `json:"created_at"`

	VerificationToken         string    `json:"-"`
	VerificationTokenCreated  time.Time `json:"-"`
	PasswordResetToken        string    `json:"-"`
	PasswordResetTokenCreated time.Time `json:"-"`
}

// FullName joins the first and last name for email greetings.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// RegisterRequest is the patient signup payload.
type RegisterRequest struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	PhoneNumber     string `json:"phone_number"`
	Sex             string `json:"sex"`
	CurrentAddress  string `json:"current_address"`
	Birthday        string `json:"birthday"` // 2006-01-02
	Age             int    `json:"age"`
}

// Validate checks the signup payload before any database work.
func (r *RegisterRequest) Validate() error {
	if r.FirstName == "" || r.LastName == "" || r.Email == "" || r.Password == "" {
		return ErrMissingFields
	}
	if !strings.Contains(r.Email, "@") {
		return ErrInvalidEmail
	}
	if r.Password != r.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if len(r.Password) < 8 {
		return ErrWeakPassword
	}
	return nil
}

// ProfileUpdate is what a signed-in patient may change about themselves.
type ProfileUpdate struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	PhoneNumber    string `json:"phone_number"`
	Sex            string `json:"sex"`
	CurrentAddress string `json:"current_address"`
	Age            int    `json:"age"`
}

// TokenTTL is how long verification and password reset tokens stay valid.
const TokenTTL = 24 * time.Hour

// TokenExpired reports whether a token issued at the given time is no longer
// usable at now. A token presented exactly at the deadline still works.
func TokenExpired(issued, now time.Time) bool {
	return now.Sub(issued) > TokenTTL
}
