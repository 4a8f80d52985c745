// Package session implements the server-side session lifecycle: issuance,
// validation, limit enforcement, and revocation of authenticated sessions.
package session

import (
	"context"

	"github.com/BinayVerse/pro-portal-v14/internal/models"
)

// Store is the persistence boundary for session records. Implementations
// must treat absence as a normal result (models.ErrSessionNotFound), not
// a failure.
type Store interface {
	// Create persists a new session after purging the user's dead rows
	// and evicting least-recently-active sessions so the user's valid
	// session count never exceeds maxPerUser. The whole sequence runs as
	// one unit where the backend supports it. Returns the number of
	// sessions evicted to make room.
	Create(ctx context.Context, sess *models.Session, maxPerUser int) (int, error)

	// Get returns the session only if it is active and unexpired.
	Get(ctx context.Context, sessionID string) (*models.Session, error)

	// TouchLastActive bumps the session's last_active timestamp.
	TouchLastActive(ctx context.Context, sessionID string) error

	// ListActive returns the user's valid sessions ordered by
	// last_active, most recent first.
	ListActive(ctx context.Context, userID string) ([]*models.Session, error)

	// Deactivate soft-deletes one session. Returns false if the session
	// was already inactive or absent.
	Deactivate(ctx context.Context, sessionID string) (bool, error)

	// DeactivateAll soft-deletes every session for the user and resets
	// the user's active-session counter.
	DeactivateAll(ctx context.Context, userID string) error

	// DeleteExpired hard-deletes expired or inactive rows. An empty
	// userID sweeps all users. Safe to run concurrently and repeatedly.
	DeleteExpired(ctx context.Context, userID string) (int64, error)

	// Ping checks store connectivity.
	Ping(ctx context.Context) error
}
