package model

import (
	"errors"
	"time"
)

// User represents a registered account
type User struct {
	ID             int64     `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	PasswordHashed string    `db:"password_hashed" json:"-"` // "-" hides from JSON output
	Name           *string   `db:"name" json:"name"`
	IsAdmin        bool      `db:"is_admin" json:"is_admin"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// DisplayName returns the user's name, falling back to the email address.
func (u *User) DisplayName() string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	return u.Email
}

// RegisterRequest represents the data needed to register a new user
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest represents the data needed to log in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned after a successful login
type LoginResponse struct {
	User      *User  `json:"user"`
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateEmail is returned when the normalized email is already registered
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidEmail is returned when the email has no '@' separator
	ErrInvalidEmail = errors.New("invalid email")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")
)
