package model

import "errors"

// Caller is the identity resolved from a request credential.
// The zero value is the anonymous caller.
type Caller struct {
	UserID int64
}

// Anonymous is the caller of a request without a valid credential.
var Anonymous = Caller{}

// IsAnonymous reports whether no user was resolved.
func (c Caller) IsAnonymous() bool {
	return c.UserID == 0
}

// TokenResponse is an issued access token.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// Token API error codes (used in HTTP responses)
const (
	CodeTokenInvalid = "TOKEN_INVALID"
)

var (
	// ErrUnauthorized is returned when an action needs an authenticated caller
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller lacks the admin flag
	ErrForbidden = errors.New("forbidden")
)
