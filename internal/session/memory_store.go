package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/BinayVerse/pro-portal-v14/internal/models"
)

// MemoryStore is an in-memory implementation of the Store interface. It
// mirrors the PostgreSQL store's semantics without persistence and backs
// unit tests and local development without a database.
type MemoryStore struct {
	sessions     map[string]*models.Session
	activeCounts map[string]int
	mu           sync.RWMutex
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:     make(map[string]*models.Session),
		activeCounts: make(map[string]int),
	}
}

// validSessionsLocked returns the user's valid sessions ordered by
// last_active ascending. Caller must hold at least a read lock.
func (m *MemoryStore) validSessionsLocked(userID string, now time.Time) []*models.Session {
	var active []*models.Session
	for _, sess := range m.sessions {
		if sess.UserID == userID && sess.Valid(now) {
			active = append(active, sess)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].LastActive.Before(active[j].LastActive)
	})
	return active
}

// Create purges the user's dead rows, evicts least-recently-active
// sessions down to maxPerUser-1, inserts the new session, and refreshes
// the active count, mirroring the transactional Postgres path.
func (m *MemoryStore) Create(_ context.Context, sess *models.Session, maxPerUser int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()

	for id, existing := range m.sessions {
		if existing.UserID == sess.UserID && !existing.Valid(now) {
			delete(m.sessions, id)
		}
	}

	active := m.validSessionsLocked(sess.UserID, now)
	evicted := 0
	if len(active) >= maxPerUser {
		for _, victim := range active[:len(active)-maxPerUser+1] {
			victim.IsActive = false
			evicted++
		}
	}

	copied := *sess
	m.sessions[sess.SessionID] = &copied
	m.activeCounts[sess.UserID] = len(m.validSessionsLocked(sess.UserID, now))

	return evicted, nil
}

// Get returns the session only if it is active and unexpired.
func (m *MemoryStore) Get(_ context.Context, sessionID string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[sessionID]
	if !ok || !sess.Valid(time.Now()) {
		return nil, models.ErrSessionNotFound
	}

	copied := *sess
	return &copied, nil
}

// TouchLastActive bumps the session's last_active timestamp.
func (m *MemoryStore) TouchLastActive(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[sessionID]; ok {
		sess.LastActive = time.Now()
	}
	return nil
}

// ListActive returns the user's valid sessions, most recently active first.
func (m *MemoryStore) ListActive(_ context.Context, userID string) ([]*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	active := m.validSessionsLocked(userID, time.Now())

	sessions := make([]*models.Session, 0, len(active))
	for i := len(active) - 1; i >= 0; i-- {
		copied := *active[i]
		sessions = append(sessions, &copied)
	}
	return sessions, nil
}

// Deactivate soft-deletes one session. Already-inactive or absent
// sessions report false.
func (m *MemoryStore) Deactivate(_ context.Context, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sessionID]
	if !ok || !sess.IsActive {
		return false, nil
	}
	sess.IsActive = false
	return true, nil
}

// DeactivateAll soft-deletes every session for the user and zeroes their
// active count.
func (m *MemoryStore) DeactivateAll(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sess := range m.sessions {
		if sess.UserID == userID {
			sess.IsActive = false
		}
	}
	m.activeCounts[userID] = 0
	return nil
}

// DeleteExpired hard-deletes expired or inactive rows, scoped to one user
// or global when userID is empty.
func (m *MemoryStore) DeleteExpired(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var removed int64
	for id, sess := range m.sessions {
		if userID != "" && sess.UserID != userID {
			continue
		}
		if !sess.Valid(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Ping always succeeds for the in-memory store.
func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// ActiveCount returns the stored denormalized active-session counter for
// a user. Test helper mirroring users.active_sessions_count.
func (m *MemoryStore) ActiveCount(userID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeCounts[userID]
}
