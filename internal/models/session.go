package models

import (
	"strings"
	"time"
)

// Validation outcome reasons returned by the validate-session endpoint.
// Clients branch on these strings, so they are part of the wire contract.
const (
	ReasonNoAuthHeader    = "No valid authorization header"
	ReasonNoToken         = "No token provided"
	ReasonInvalidJWT      = "Invalid JWT token"
	ReasonLegacyToken     = "Legacy token format"
	ReasonSessionNotFound = "Session expired or not found"
	ReasonUserMismatch    = "Session user mismatch"
	ReasonSessionValid    = "Session valid"
	ReasonValidationError = "Validation error occurred"
)

// Session represents one authenticated login tracked server-side,
// independently revocable from the bearer token that references it.
type Session struct {
	SessionID  string    `json:"session_id"`
	UserID     string    `json:"user_id"`
	DeviceInfo string    `json:"device_info,omitempty"`
	IPAddress  string    `json:"ip_address,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Valid reports whether the session is usable for validation purposes:
// active and not yet expired at the given instant.
func (s *Session) Valid(now time.Time) bool {
	return s.IsActive && s.ExpiresAt.After(now)
}

// CreateSessionOptions carries the per-session attributes captured at
// sign-in time. TTL of zero means the manager default applies.
type CreateSessionOptions struct {
	UserID     string
	DeviceInfo string
	IPAddress  string
	TTL        time.Duration
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate normalizes and checks the sign-in request body. It returns
// ErrMalformedCredentials or ErrEmptyPassword so the service layer can
// map each to its user-facing message.
func (req *SignInRequest) Validate() error {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return ErrMalformedCredentials
	}
	req.Password = strings.TrimSpace(req.Password)
	if req.Password == "" {
		return ErrEmptyPassword
	}
	return nil
}

// SignInResponse is the success payload of the sign-in endpoint. The
// bearer token embeds the session id and expires together with the session.
type SignInResponse struct {
	Status   string      `json:"status"`
	Token    string      `json:"token"`
	User     UserProfile `json:"user"`
	Redirect string      `json:"redirect"`
}

// ValidateSessionResponse is the structured answer of the validation
// endpoint. Business-logic invalidity is reported with valid=false and a
// reason string, never with an error status code.
type ValidateSessionResponse struct {
	Valid     bool       `json:"valid"`
	Reason    string     `json:"reason"`
	SessionID string     `json:"session_id,omitempty"`
	UserID    string     `json:"user_id,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Legacy    bool       `json:"legacy,omitempty"`
}

type LogoutRequest struct {
	AllSessions bool `json:"all_sessions"`
}

// LogoutResponse always reports success regardless of internal failures.
type LogoutResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
