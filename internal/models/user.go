package models

import (
	"time"

	"github.com/google/uuid"
)

// Admin role identifiers eligible for portal sign-in.
const (
	RoleSuperAdmin = 0
	RoleAdmin      = 1
)

// User is the account record backing the credential check at sign-in.
// PasswordHash is nullable: accounts provisioned through invite flows may
// not have a password set yet.
type User struct {
	UserID              uuid.UUID  `json:"user_id"`
	Email               string     `json:"email"`
	Name                string     `json:"name"`
	RoleID              int        `json:"role_id"`
	OrgID               string     `json:"org_id"`
	PasswordHash        *string    `json:"-"`
	LastLogin           *time.Time `json:"last_login,omitempty"`
	ActiveSessionsCount int        `json:"active_sessions_count"`
}

// HasPassword reports whether the account has a usable password hash.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// IsAdmin reports whether the account holds a role eligible for sign-in.
func (u *User) IsAdmin() bool {
	return u.RoleID == RoleSuperAdmin || u.RoleID == RoleAdmin
}

// UserProfile is the user shape returned by the sign-in endpoint. It
// carries the issued session id so clients can correlate their login.
type UserProfile struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	OrgID     string `json:"org_id"`
	SessionID string `json:"session_id"`
}

// Profile builds the response profile for a user with the given session.
func (u *User) Profile(sessionID string) UserProfile {
	return UserProfile{
		UserID:    u.UserID.String(),
		Email:     u.Email,
		Name:      u.Name,
		OrgID:     u.OrgID,
		SessionID: sessionID,
	}
}
