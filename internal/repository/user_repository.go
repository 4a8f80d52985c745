// Package repository provides user account persistence for the sign-in
// credential check.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/BinayVerse/pro-portal-v14/internal/models"
)

// UserRepository defines the interface for user account lookups backing
// the sign-in boundary.
type UserRepository interface {
	// GetAdminsByEmail retrieves every account with the given email
	// holding an admin role. Sign-in requires exactly one match; the
	// service layer decides how to report zero or multiple matches.
	GetAdminsByEmail(ctx context.Context, email string) ([]*models.User, error)

	// UpdateLastLogin records a successful sign-in timestamp.
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error
}
