// Package startup provides utilities for service initialization,
// including session schema bootstrap.
package startup

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// sessionSchema creates the session table and supporting objects. The
// users table belongs to the portal's core service and is only extended
// here, never created.
var sessionSchema = []string{
	`CREATE TABLE IF NOT EXISTS user_sessions (
	    session_id VARCHAR(64) PRIMARY KEY,
	    user_id TEXT NOT NULL,
	    device_info TEXT NOT NULL DEFAULT '',
	    ip_address TEXT NOT NULL DEFAULT '',
	    is_active BOOLEAN NOT NULL DEFAULT TRUE,
	    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	    last_active TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	    expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_sessions_user
	     ON user_sessions (user_id, is_active, expires_at)`,
	`ALTER TABLE users ADD COLUMN IF NOT EXISTS active_sessions_count INT NOT NULL DEFAULT 0`,
}

// PoolGetter is a function that returns the current database connection pool.
type PoolGetter func() *pgxpool.Pool

// SchemaService ensures the session schema exists during service startup.
type SchemaService struct {
	getPool PoolGetter
	logger  *logrus.Logger
}

// NewSchemaService creates a new schema bootstrap service.
func NewSchemaService(poolGetter PoolGetter, logger *logrus.Logger) *SchemaService {
	return &SchemaService{
		getPool: poolGetter,
		logger:  logger,
	}
}

// EnsureSessionSchema creates the session table, index, and counter
// column when they do not exist yet. Statements are idempotent, so the
// bootstrap is safe to run on every start.
func (s *SchemaService) EnsureSessionSchema(ctx context.Context) error {
	pool := s.getPool()
	if pool == nil {
		s.logger.Warn("Database unavailable, skipping session schema bootstrap")
		return nil
	}

	for _, stmt := range sessionSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	s.logger.Info("Session schema verified")
	return nil
}
