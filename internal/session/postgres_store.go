package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	dbpg "github.com/BinayVerse/pro-portal-v14/internal/database/postgres"
	"github.com/BinayVerse/pro-portal-v14/internal/models"
)

// PoolGetter is a function that returns the current database connection pool.
type PoolGetter func() *pgxpool.Pool

// PostgresStore implements Store against the user_sessions table, with a
// denormalized active-session counter on the users table. Driver errors
// are translated to the fixed boundary message set before returning.
type PostgresStore struct {
	getPool PoolGetter
}

// NewPostgresStore creates a PostgreSQL-backed session store. The
// poolGetter function allows the store to always use the current active
// connection pool, supporting automatic reconnection.
func NewPostgresStore(poolGetter PoolGetter) *PostgresStore {
	return &PostgresStore{
		getPool: poolGetter,
	}
}

func (s *PostgresStore) pool() (*pgxpool.Pool, error) {
	pool := s.getPool()
	if pool == nil {
		return nil, models.ErrStoreUnavailable
	}
	return pool, nil
}

// Create runs purge, eviction, insert, and counter refresh as a single
// transaction so a failed insert never leaves a validatable partial row.
func (s *PostgresStore) Create(ctx context.Context, sess *models.Session, maxPerUser int) (int, error) {
	pool, err := s.pool()
	if err != nil {
		return 0, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, dbpg.TranslateError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	// Purge this user's expired and inactive rows first.
	_, err = tx.Exec(ctx,
		`DELETE FROM user_sessions
		 WHERE user_id = $1 AND (expires_at <= CURRENT_TIMESTAMP OR is_active = FALSE)`,
		sess.UserID,
	)
	if err != nil {
		return 0, dbpg.TranslateError(err)
	}

	rows, err := tx.Query(ctx,
		`SELECT session_id FROM user_sessions
		 WHERE user_id = $1 AND is_active = TRUE AND expires_at > CURRENT_TIMESTAMP
		 ORDER BY last_active ASC`,
		sess.UserID,
	)
	if err != nil {
		return 0, dbpg.TranslateError(err)
	}

	var active []string
	for rows.Next() {
		var id string
		if scanErr := rows.Scan(&id); scanErr != nil {
			rows.Close()
			return 0, dbpg.TranslateError(scanErr)
		}
		active = append(active, id)
	}
	rows.Close()
	if rows.Err() != nil {
		return 0, dbpg.TranslateError(rows.Err())
	}

	// Evict least-recently-active sessions so the insert below cannot
	// push the user past the ceiling.
	evicted := 0
	if len(active) >= maxPerUser {
		victims := active[:len(active)-maxPerUser+1]
		_, err = tx.Exec(ctx,
			`UPDATE user_sessions SET is_active = FALSE WHERE session_id = ANY($1)`,
			victims,
		)
		if err != nil {
			return 0, dbpg.TranslateError(err)
		}
		evicted = len(victims)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO user_sessions
		 (session_id, user_id, device_info, ip_address, is_active, created_at, last_active, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sess.SessionID,
		sess.UserID,
		sess.DeviceInfo,
		sess.IPAddress,
		sess.IsActive,
		sess.CreatedAt,
		sess.LastActive,
		sess.ExpiresAt,
	)
	if err != nil {
		return 0, dbpg.TranslateError(err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE users
		 SET active_sessions_count = (
		     SELECT COUNT(*) FROM user_sessions
		     WHERE user_id = $1 AND is_active = TRUE AND expires_at > CURRENT_TIMESTAMP
		 )
		 WHERE user_id = $1::uuid`,
		sess.UserID,
	)
	if err != nil {
		return 0, dbpg.TranslateError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, dbpg.TranslateError(err)
	}

	return evicted, nil
}

// Get returns the session only if it is active and unexpired.
func (s *PostgresStore) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	pool, err := s.pool()
	if err != nil {
		return nil, err
	}

	var sess models.Session
	err = pool.QueryRow(ctx,
		`SELECT session_id, user_id, device_info, ip_address, is_active, created_at, last_active, expires_at
		 FROM user_sessions
		 WHERE session_id = $1 AND is_active = TRUE AND expires_at > CURRENT_TIMESTAMP`,
		sessionID,
	).Scan(
		&sess.SessionID,
		&sess.UserID,
		&sess.DeviceInfo,
		&sess.IPAddress,
		&sess.IsActive,
		&sess.CreatedAt,
		&sess.LastActive,
		&sess.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrSessionNotFound
		}
		return nil, dbpg.TranslateError(err)
	}

	return &sess, nil
}

// TouchLastActive bumps the session's last_active timestamp.
func (s *PostgresStore) TouchLastActive(ctx context.Context, sessionID string) error {
	pool, err := s.pool()
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx,
		`UPDATE user_sessions SET last_active = CURRENT_TIMESTAMP WHERE session_id = $1`,
		sessionID,
	)
	if err != nil {
		return dbpg.TranslateError(err)
	}
	return nil
}

// ListActive returns the user's valid sessions, most recently active first.
func (s *PostgresStore) ListActive(ctx context.Context, userID string) ([]*models.Session, error) {
	pool, err := s.pool()
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx,
		`SELECT session_id, user_id, device_info, ip_address, is_active, created_at, last_active, expires_at
		 FROM user_sessions
		 WHERE user_id = $1 AND is_active = TRUE AND expires_at > CURRENT_TIMESTAMP
		 ORDER BY last_active DESC`,
		userID,
	)
	if err != nil {
		return nil, dbpg.TranslateError(err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		var sess models.Session
		if scanErr := rows.Scan(
			&sess.SessionID,
			&sess.UserID,
			&sess.DeviceInfo,
			&sess.IPAddress,
			&sess.IsActive,
			&sess.CreatedAt,
			&sess.LastActive,
			&sess.ExpiresAt,
		); scanErr != nil {
			return nil, dbpg.TranslateError(scanErr)
		}
		sessions = append(sessions, &sess)
	}
	if rows.Err() != nil {
		return nil, dbpg.TranslateError(rows.Err())
	}

	return sessions, nil
}

// Deactivate soft-deletes one session. Already-inactive or absent
// sessions report false.
func (s *PostgresStore) Deactivate(ctx context.Context, sessionID string) (bool, error) {
	pool, err := s.pool()
	if err != nil {
		return false, err
	}

	tag, err := pool.Exec(ctx,
		`UPDATE user_sessions SET is_active = FALSE WHERE session_id = $1 AND is_active = TRUE`,
		sessionID,
	)
	if err != nil {
		return false, dbpg.TranslateError(err)
	}

	return tag.RowsAffected() > 0, nil
}

// DeactivateAll soft-deletes every session for the user and zeroes the
// denormalized active-session counter.
func (s *PostgresStore) DeactivateAll(ctx context.Context, userID string) error {
	pool, err := s.pool()
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return dbpg.TranslateError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.Exec(ctx,
		`UPDATE user_sessions SET is_active = FALSE WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return dbpg.TranslateError(err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE users SET active_sessions_count = 0 WHERE user_id = $1::uuid`,
		userID,
	)
	if err != nil {
		return dbpg.TranslateError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return dbpg.TranslateError(err)
	}
	return nil
}

// DeleteExpired hard-deletes expired or inactive rows, scoped to one user
// or global when userID is empty.
func (s *PostgresStore) DeleteExpired(ctx context.Context, userID string) (int64, error) {
	pool, err := s.pool()
	if err != nil {
		return 0, err
	}

	var query string
	var args []any
	if userID != "" {
		query = `DELETE FROM user_sessions
		         WHERE user_id = $1 AND (expires_at <= CURRENT_TIMESTAMP OR is_active = FALSE)`
		args = []any{userID}
	} else {
		query = `DELETE FROM user_sessions
		         WHERE expires_at <= CURRENT_TIMESTAMP OR is_active = FALSE`
	}

	tag, err := pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, dbpg.TranslateError(err)
	}

	return tag.RowsAffected(), nil
}

// Ping checks store connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	pool, err := s.pool()
	if err != nil {
		return err
	}
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("session store ping failed: %w", err)
	}
	return nil
}
