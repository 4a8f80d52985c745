package session_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BinayVerse/pro-portal-v14/internal/models"
	"github.com/BinayVerse/pro-portal-v14/internal/session"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestManager(t *testing.T) (*session.Manager, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore()
	mgr := session.NewManager(store, newTestLogger(), session.NewMetrics(), 24*time.Hour, 5)
	return mgr, store
}

func createSession(t *testing.T, mgr *session.Manager, userID string) string {
	t.Helper()
	id, err := mgr.CreateSession(context.Background(), models.CreateSessionOptions{
		UserID:     userID,
		DeviceInfo: "Mac",
		IPAddress:  "10.0.0.1",
	})
	require.NoError(t, err)
	require.Len(t, id, 64)
	return id
}

func TestCreateSessionRequiresUserID(t *testing.T) {
	mgr, _ := newTestManager(t)

	_, err := mgr.CreateSession(context.Background(), models.CreateSessionOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrSessionCreationFailed)
}

func TestCreateThenValidate(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	id := createSession(t, mgr, "user-1")

	sess, err := mgr.ValidateSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, sess.SessionID)
	assert.Equal(t, "user-1", sess.UserID)
	assert.True(t, sess.IsActive)
	assert.True(t, sess.ExpiresAt.After(time.Now()))
}

func TestValidateBumpsLastActive(t *testing.T) {
	mgr, store := newTestManager(t)
	ctx := context.Background()

	id := createSession(t, mgr, "user-1")

	before, err := store.Get(ctx, id)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = mgr.ValidateSession(ctx, id)
	require.NoError(t, err)

	after, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, after.LastActive.After(before.LastActive))
}

func TestValidateUnknownSession(t *testing.T) {
	mgr, _ := newTestManager(t)

	_, err := mgr.ValidateSession(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestValidateExpiredSession(t *testing.T) {
	mgr, store := newTestManager(t)
	ctx := context.Background()

	// Expired but still flagged active.
	_, err := store.Create(ctx, &models.Session{
		SessionID:  "expired-session",
		UserID:     "user-1",
		IsActive:   true,
		CreatedAt:  time.Now().Add(-48 * time.Hour),
		LastActive: time.Now().Add(-25 * time.Hour),
		ExpiresAt:  time.Now().Add(-time.Hour),
	}, 5)
	require.NoError(t, err)

	_, err = mgr.ValidateSession(ctx, "expired-session")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestSessionCeilingNeverExceeded(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		createSession(t, mgr, "user-1")
		sessions := mgr.GetUserSessions(ctx, "user-1")
		assert.LessOrEqual(t, len(sessions), 5)
	}

	sessions := mgr.GetUserSessions(ctx, "user-1")
	assert.Len(t, sessions, 5)
}

func TestSixthSessionEvictsLeastRecentlyActive(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	ids := make([]string, 5)
	for i := range ids {
		ids[i] = createSession(t, mgr, "user-1")
		time.Sleep(2 * time.Millisecond)
	}

	// Touch the oldest session so it is no longer the eviction candidate.
	_, err := mgr.ValidateSession(ctx, ids[0])
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)

	newest := createSession(t, mgr, "user-1")

	sessions := mgr.GetUserSessions(ctx, "user-1")
	require.Len(t, sessions, 5)

	// ids[1] became least-recently-active after the touch and must be the
	// one evicted.
	_, err = mgr.ValidateSession(ctx, ids[1])
	assert.ErrorIs(t, err, models.ErrSessionNotFound)

	for _, id := range []string{ids[0], ids[2], ids[3], ids[4], newest} {
		_, err := mgr.ValidateSession(ctx, id)
		assert.NoError(t, err, "session %s should still validate", id)
	}
}

func TestInvalidateSessionIdempotent(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	id := createSession(t, mgr, "user-1")

	assert.True(t, mgr.InvalidateSession(ctx, id))
	assert.False(t, mgr.InvalidateSession(ctx, id))
	assert.False(t, mgr.InvalidateSession(ctx, "never-existed"))

	_, err := mgr.ValidateSession(ctx, id)
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestInvalidateAllSessions(t *testing.T) {
	mgr, store := newTestManager(t)
	ctx := context.Background()

	ids := []string{
		createSession(t, mgr, "user-1"),
		createSession(t, mgr, "user-1"),
		createSession(t, mgr, "user-1"),
	}
	other := createSession(t, mgr, "user-2")

	assert.True(t, mgr.InvalidateAllSessions(ctx, "user-1"))
	assert.Equal(t, 0, store.ActiveCount("user-1"))

	for _, id := range ids {
		_, err := mgr.ValidateSession(ctx, id)
		assert.ErrorIs(t, err, models.ErrSessionNotFound)
	}

	// Other users are untouched.
	_, err := mgr.ValidateSession(ctx, other)
	assert.NoError(t, err)
}

func TestCleanupExpired(t *testing.T) {
	mgr, store := newTestManager(t)
	ctx := context.Background()

	id := createSession(t, mgr, "user-1")
	mgr.InvalidateSession(ctx, id)

	_, err := store.Create(ctx, &models.Session{
		SessionID:  "stale",
		UserID:     "user-2",
		IsActive:   true,
		CreatedAt:  time.Now().Add(-48 * time.Hour),
		LastActive: time.Now().Add(-25 * time.Hour),
		ExpiresAt:  time.Now().Add(-time.Hour),
	}, 5)
	require.NoError(t, err)

	removed, err := mgr.CleanupExpired(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	// Repeat runs are harmless.
	removed, err = mgr.CleanupExpired(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(0), removed)
}

func TestCleanupExpiredScopedToUser(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	id1 := createSession(t, mgr, "user-1")
	id2 := createSession(t, mgr, "user-2")
	mgr.InvalidateSession(ctx, id1)
	mgr.InvalidateSession(ctx, id2)

	removed, err := mgr.CleanupExpired(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestGetUserSessionsOrdering(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	first := createSession(t, mgr, "user-1")
	time.Sleep(2 * time.Millisecond)
	createSession(t, mgr, "user-1")
	time.Sleep(2 * time.Millisecond)

	// Touching the first session makes it most recently active.
	_, err := mgr.ValidateSession(ctx, first)
	require.NoError(t, err)

	sessions := mgr.GetUserSessions(ctx, "user-1")
	require.Len(t, sessions, 2)
	assert.Equal(t, first, sessions[0].SessionID)
}
