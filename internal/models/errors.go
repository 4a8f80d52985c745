package models

import (
	"errors"
	"net/http"
)

// Sentinel errors shared across the session store and service layers.
var (
	// ErrSessionNotFound indicates the session does not exist, is
	// inactive, or has expired. Absence is a normal validation result,
	// not a failure.
	ErrSessionNotFound = errors.New("session not found")

	// ErrStoreUnavailable indicates the session store could not be
	// reached. Validation callers treat it as not-found (fail closed).
	ErrStoreUnavailable = errors.New("session store unavailable")

	// ErrSessionCreationFailed indicates a new session could not be
	// persisted. Fatal to the sign-in flow.
	ErrSessionCreationFailed = errors.New("session creation failed")

	// ErrUserNotFound indicates no account matched the credential lookup.
	ErrUserNotFound = errors.New("user not found")

	// ErrMalformedCredentials indicates the sign-in body failed validation.
	ErrMalformedCredentials = errors.New("malformed credentials")

	// ErrEmptyPassword indicates the sign-in password was empty after trimming.
	ErrEmptyPassword = errors.New("empty password")
)

// AuthError represents a sign-in boundary failure carrying the
// user-facing message and the HTTP status code to return. It implements
// the error interface.
type AuthError struct {
	// Status is always "error" in serialized responses.
	Status string `json:"status"`
	// Message is the human-readable, user-facing failure description.
	Message string `json:"message"`
	// StatusCode is the HTTP status code to return (excluded from JSON).
	StatusCode int `json:"-"`
}

// Error returns the user-facing message. It implements the error interface.
func (e *AuthError) Error() string {
	return e.Message
}

// NewBadRequest creates an AuthError for malformed or incomplete input.
// Returns HTTP 400 Bad Request.
func NewBadRequest(message string) *AuthError {
	return &AuthError{Status: "error", Message: message, StatusCode: http.StatusBadRequest}
}

// NewNotFound creates an AuthError for lookups that matched no account.
// Returns HTTP 404 Not Found.
func NewNotFound(message string) *AuthError {
	return &AuthError{Status: "error", Message: message, StatusCode: http.StatusNotFound}
}

// NewForbidden creates an AuthError for accounts that exist but may not
// sign in: restricted access, conflicting roles, unset or wrong password.
// Returns HTTP 403 Forbidden.
func NewForbidden(message string) *AuthError {
	return &AuthError{Status: "error", Message: message, StatusCode: http.StatusForbidden}
}

// NewServerError creates an AuthError for unexpected internal failures.
// Returns HTTP 500 Internal Server Error.
func NewServerError(message string) *AuthError {
	return &AuthError{Status: "error", Message: message, StatusCode: http.StatusInternalServerError}
}
