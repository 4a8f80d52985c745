package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BinayVerse/pro-portal-v14/internal/models"
)

const (
	// DefaultTTL is the session lifetime applied when no TTL is given.
	DefaultTTL = 24 * time.Hour
	// DefaultMaxPerUser is the per-user valid session ceiling.
	DefaultMaxPerUser = 5

	sessionIDBytes = 32
)

// Manager owns session records in durable storage: it issues, validates,
// enforces limits on, and revokes sessions. All operations are
// request-scoped calls against the injected Store; the manager holds no
// session state of its own.
type Manager struct {
	store      Store
	logger     *logrus.Logger
	metrics    *Metrics
	ttl        time.Duration
	maxPerUser int
}

// NewManager creates a session manager backed by the given store.
// Non-positive ttl or maxPerUser fall back to the defaults.
func NewManager(store Store, logger *logrus.Logger, metrics *Metrics, ttl time.Duration, maxPerUser int) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxPerUser <= 0 {
		maxPerUser = DefaultMaxPerUser
	}
	return &Manager{
		store:      store,
		logger:     logger,
		metrics:    metrics,
		ttl:        ttl,
		maxPerUser: maxPerUser,
	}
}

// newSessionID generates a 256-bit random session identifier, hex-encoded.
func newSessionID() (string, error) {
	buf := make([]byte, sessionIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// CreateSession issues a new session for the user. The store purges the
// user's dead rows and evicts least-recently-active sessions before the
// insert, so the user's valid session count never exceeds the ceiling.
// Returns the new session id, or models.ErrSessionCreationFailed if the
// store is unreachable or the insert fails.
func (m *Manager) CreateSession(ctx context.Context, opts models.CreateSessionOptions) (string, error) {
	if opts.UserID == "" {
		return "", fmt.Errorf("%w: user id is required", models.ErrSessionCreationFailed)
	}

	sessionID, err := newSessionID()
	if err != nil {
		return "", fmt.Errorf("%w: %s", models.ErrSessionCreationFailed, err)
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = m.ttl
	}

	now := time.Now()
	sess := &models.Session{
		SessionID:  sessionID,
		UserID:     opts.UserID,
		DeviceInfo: opts.DeviceInfo,
		IPAddress:  opts.IPAddress,
		IsActive:   true,
		CreatedAt:  now,
		LastActive: now,
		ExpiresAt:  now.Add(ttl),
	}

	evicted, err := m.store.Create(ctx, sess, m.maxPerUser)
	if err != nil {
		m.logger.WithError(err).WithField("user_id", opts.UserID).Error("Failed to create session")
		return "", fmt.Errorf("%w: %s", models.ErrSessionCreationFailed, err)
	}

	if m.metrics != nil {
		m.metrics.SessionsCreated.Inc()
		m.metrics.SessionsEvicted.Add(float64(evicted))
	}

	m.logger.WithFields(logrus.Fields{
		"user_id":     opts.UserID,
		"device_info": opts.DeviceInfo,
		"evicted":     evicted,
	}).Info("Session created")

	return sessionID, nil
}

// ValidateSession returns the session record if it is active and
// unexpired, bumping its last_active timestamp. Absence is reported as
// models.ErrSessionNotFound. Store failures are logged and reported as
// models.ErrStoreUnavailable; callers must treat that as not-found
// (fail closed).
func (m *Manager) ValidateSession(ctx context.Context, sessionID string) (*models.Session, error) {
	sess, err := m.store.Get(ctx, sessionID)
	if err != nil {
		if m.metrics != nil {
			m.metrics.SessionsValidated.WithLabelValues("invalid").Inc()
		}
		if errors.Is(err, models.ErrSessionNotFound) {
			return nil, models.ErrSessionNotFound
		}
		m.logger.WithError(err).Warn("Session validation failed")
		return nil, models.ErrStoreUnavailable
	}

	if err := m.store.TouchLastActive(ctx, sessionID); err != nil {
		m.logger.WithError(err).Warn("Session validation failed")
		if m.metrics != nil {
			m.metrics.SessionsValidated.WithLabelValues("invalid").Inc()
		}
		return nil, models.ErrStoreUnavailable
	}

	if m.metrics != nil {
		m.metrics.SessionsValidated.WithLabelValues("valid").Inc()
	}
	return sess, nil
}

// InvalidateSession soft-deletes one session. Idempotent: invalidating an
// already-inactive or absent session returns false, not an error. Store
// failures are logged and reported as false.
func (m *Manager) InvalidateSession(ctx context.Context, sessionID string) bool {
	ok, err := m.store.Deactivate(ctx, sessionID)
	if err != nil {
		m.logger.WithError(err).Warn("Session invalidation failed")
		return false
	}
	if ok && m.metrics != nil {
		m.metrics.SessionsInvalidated.WithLabelValues("single").Inc()
	}
	return ok
}

// InvalidateAllSessions soft-deletes every session for the user and
// resets their active-session counter. Returns false on store failure.
func (m *Manager) InvalidateAllSessions(ctx context.Context, userID string) bool {
	if err := m.store.DeactivateAll(ctx, userID); err != nil {
		m.logger.WithError(err).WithField("user_id", userID).Warn("User session invalidation failed")
		return false
	}
	if m.metrics != nil {
		m.metrics.SessionsInvalidated.WithLabelValues("all").Inc()
	}
	return true
}

// CleanupExpired hard-deletes expired or inactive session rows, scoped to
// one user or global when userID is empty. Returns the number of rows
// removed. Safe to run concurrently and repeatedly.
func (m *Manager) CleanupExpired(ctx context.Context, userID string) (int64, error) {
	removed, err := m.store.DeleteExpired(ctx, userID)
	if err != nil {
		m.logger.WithError(err).Warn("Session cleanup failed")
		return 0, err
	}
	if m.metrics != nil {
		m.metrics.SessionsCleaned.Add(float64(removed))
	}
	return removed, nil
}

// GetUserSessions returns the user's valid sessions, most recently
// active first. Store failures are logged and reported as an empty list.
func (m *Manager) GetUserSessions(ctx context.Context, userID string) []*models.Session {
	sessions, err := m.store.ListActive(ctx, userID)
	if err != nil {
		m.logger.WithError(err).WithField("user_id", userID).Warn("Failed to list user sessions")
		return nil
	}
	return sessions
}

// TTL returns the configured session lifetime. The bearer token issued at
// sign-in carries a matching expiry.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// RunCleanupLoop hard-deletes dead rows for all users on the given
// interval until the context is cancelled. Intended to run in its own
// goroutine from main.
func (m *Manager) RunCleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := m.CleanupExpired(ctx, "")
			if err == nil && removed > 0 {
				m.logger.WithField("removed", removed).Info("Expired sessions swept")
			}
		}
	}
}
