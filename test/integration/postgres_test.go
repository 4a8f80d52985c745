package integration_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/BinayVerse/pro-portal-v14/internal/models"
	"github.com/BinayVerse/pro-portal-v14/internal/repository"
	"github.com/BinayVerse/pro-portal-v14/internal/session"
)

const schema = `
CREATE TABLE users (
    user_id UUID PRIMARY KEY,
    email TEXT NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    role_id INT NOT NULL DEFAULT 1,
    org_id TEXT NOT NULL DEFAULT '',
    password TEXT,
    last_login TIMESTAMPTZ,
    active_sessions_count INT NOT NULL DEFAULT 0
);

CREATE TABLE user_sessions (
    session_id VARCHAR(64) PRIMARY KEY,
    user_id TEXT NOT NULL,
    device_info TEXT NOT NULL DEFAULT '',
    ip_address TEXT NOT NULL DEFAULT '',
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    last_active TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX idx_user_sessions_user ON user_sessions (user_id, is_active, expires_at);
`

func TestPostgresIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("portal_test"),
		postgres.WithUsername("portal"),
		postgres.WithPassword("portal"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)

	defer func() {
		if err = pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate PostgreSQL container: %v", err)
		}
	}()

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	_, err = pool.Exec(ctx, schema)
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)

	store := session.NewPostgresStore(func() *pgxpool.Pool { return pool })
	mgr := session.NewManager(store, log, session.NewMetrics(), time.Hour, 5)

	userID := uuid.New()
	_, err = pool.Exec(ctx,
		`INSERT INTO users (user_id, email, name, role_id, org_id, password)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		userID, "admin@example.com", "Portal Admin", models.RoleAdmin, "org-1", "$2a$12$hash",
	)
	require.NoError(t, err)

	t.Run("SessionLifecycle", func(t *testing.T) {
		testSessionLifecycle(ctx, t, mgr, userID.String())
	})

	t.Run("SessionCeiling", func(t *testing.T) {
		testSessionCeiling(ctx, t, pool, mgr, store, userID.String())
	})

	t.Run("UserRepository", func(t *testing.T) {
		testUserRepository(ctx, t, pool, userID)
	})

	t.Run("ExpiredSweep", func(t *testing.T) {
		testExpiredSweep(ctx, t, store, mgr, userID.String())
	})
}

func testSessionLifecycle(ctx context.Context, t *testing.T, mgr *session.Manager, userID string) {
	sessionID, err := mgr.CreateSession(ctx, models.CreateSessionOptions{
		UserID:     userID,
		DeviceInfo: "Mac",
		IPAddress:  "203.0.113.7",
	})
	require.NoError(t, err)
	require.Len(t, sessionID, 64)

	sess, err := mgr.ValidateSession(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, userID, sess.UserID)
	assert.Equal(t, "Mac", sess.DeviceInfo)
	assert.True(t, sess.ExpiresAt.After(time.Now()))

	// Soft delete, then the session stops validating
	assert.True(t, mgr.InvalidateSession(ctx, sessionID))
	_, err = mgr.ValidateSession(ctx, sessionID)
	assert.ErrorIs(t, err, models.ErrSessionNotFound)

	// A second invalidation reports nothing to do
	assert.False(t, mgr.InvalidateSession(ctx, sessionID))
}

func testSessionCeiling(
	ctx context.Context,
	t *testing.T,
	pool *pgxpool.Pool,
	mgr *session.Manager,
	store session.Store,
	userID string,
) {
	var ids []string
	for i := 0; i < 7; i++ {
		id, err := mgr.CreateSession(ctx, models.CreateSessionOptions{
			UserID:     userID,
			DeviceInfo: "Windows PC",
			IPAddress:  "203.0.113.8",
		})
		require.NoError(t, err)
		ids = append(ids, id)

		active, listErr := store.ListActive(ctx, userID)
		require.NoError(t, listErr)
		assert.LessOrEqual(t, len(active), 5)
	}

	// Oldest sessions were evicted, newest survive
	active, err := store.ListActive(ctx, userID)
	require.NoError(t, err)
	require.Len(t, active, 5)
	for _, sess := range active {
		assert.Contains(t, ids[2:], sess.SessionID)
	}

	// Denormalized counter matches
	var count int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT active_sessions_count FROM users WHERE user_id = $1`, userID,
	).Scan(&count))
	assert.Equal(t, 5, count)

	require.NoError(t, store.DeactivateAll(ctx, userID))

	require.NoError(t, pool.QueryRow(ctx,
		`SELECT active_sessions_count FROM users WHERE user_id = $1`, userID,
	).Scan(&count))
	assert.Equal(t, 0, count)
}

func testUserRepository(ctx context.Context, t *testing.T, pool *pgxpool.Pool, userID uuid.UUID) {
	repo := repository.NewPostgresUserRepository(func() *pgxpool.Pool { return pool })

	admins, err := repo.GetAdminsByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, userID, admins[0].UserID)
	assert.True(t, admins[0].IsAdmin())
	assert.True(t, admins[0].HasPassword())

	admins, err = repo.GetAdminsByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, admins)

	require.NoError(t, repo.UpdateLastLogin(ctx, userID))

	var lastLogin *time.Time
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT last_login FROM users WHERE user_id = $1`, userID,
	).Scan(&lastLogin))
	require.NotNil(t, lastLogin)
	assert.WithinDuration(t, time.Now(), *lastLogin, time.Minute)

	assert.ErrorIs(t, repo.UpdateLastLogin(ctx, uuid.New()), models.ErrUserNotFound)
}

func testExpiredSweep(
	ctx context.Context,
	t *testing.T,
	store session.Store,
	mgr *session.Manager,
	userID string,
) {
	// Plant one live and one already-expired session
	_, err := mgr.CreateSession(ctx, models.CreateSessionOptions{UserID: userID})
	require.NoError(t, err)

	expired := &models.Session{
		SessionID:  "deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef",
		UserID:     userID,
		IsActive:   true,
		CreatedAt:  time.Now().Add(-2 * time.Hour),
		LastActive: time.Now().Add(-2 * time.Hour),
		ExpiresAt:  time.Now().Add(-time.Hour),
	}
	_, err = store.Create(ctx, expired, 5)
	require.NoError(t, err)

	removed, err := mgr.CleanupExpired(ctx, "")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, removed, int64(1))

	_, err = store.Get(ctx, expired.SessionID)
	assert.ErrorIs(t, err, models.ErrSessionNotFound)

	// Live sessions survive the sweep
	active, err := store.ListActive(ctx, userID)
	require.NoError(t, err)
	assert.NotEmpty(t, active)
}
