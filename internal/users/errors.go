package users

import "errors"

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")

	// ErrEmailTaken is returned when registering with an email that already
	// has an account.
	ErrEmailTaken = errors.New("an account with this email already exists")

	// ErrMissingFields is returned when a required signup field is empty.
	ErrMissingFields = errors.New("first name, last name, email and password are required")

	// ErrInvalidEmail is returned for a malformed email address.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrPasswordMismatch is returned when the password confirmation does not
	// match.
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrWeakPassword is returned when the password is shorter than eight
	// characters.
	ErrWeakPassword = errors.New("password must be at least 8 characters")

	// ErrBadCredentials is returned on login with a wrong email or password.
	ErrBadCredentials = errors.New("invalid email or password")

	// ErrNotVerified is returned on login before the email is confirmed.
	ErrNotVerified = errors.New("email address not verified")

	// ErrTokenExpired is returned when a verification or reset token is older
	// than its validity window.
	ErrTokenExpired = errors.New("token has expired")

	// ErrTokenInvalid is returned when no user holds the presented token.
	ErrTokenInvalid = errors.New("invalid token")
)
