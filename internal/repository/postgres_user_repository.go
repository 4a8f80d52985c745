package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	dbpg "github.com/BinayVerse/pro-portal-v14/internal/database/postgres"
	"github.com/BinayVerse/pro-portal-v14/internal/models"
)

// PoolGetter is a function that returns the current database connection pool.
type PoolGetter func() *pgxpool.Pool

// PostgresUserRepository implements UserRepository for PostgreSQL.
type PostgresUserRepository struct {
	getPool PoolGetter
}

// NewPostgresUserRepository creates a new PostgreSQL user repository.
// The poolGetter function allows the repository to always use the current
// active connection pool, supporting automatic reconnection.
func NewPostgresUserRepository(poolGetter PoolGetter) *PostgresUserRepository {
	return &PostgresUserRepository{
		getPool: poolGetter,
	}
}

// GetAdminsByEmail retrieves every admin-role account for the email.
func (r *PostgresUserRepository) GetAdminsByEmail(ctx context.Context, email string) ([]*models.User, error) {
	pool := r.getPool()
	if pool == nil {
		return nil, errors.New("database connection not available")
	}

	query := `
		SELECT user_id, email, name, role_id, org_id, password, last_login, active_sessions_count
		FROM users
		WHERE email = $1 AND role_id IN (0, 1)`

	rows, err := pool.Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", dbpg.TranslateError(err))
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		if scanErr := rows.Scan(
			&user.UserID,
			&user.Email,
			&user.Name,
			&user.RoleID,
			&user.OrgID,
			&user.PasswordHash,
			&user.LastLogin,
			&user.ActiveSessionsCount,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan user: %w", scanErr)
		}
		users = append(users, &user)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("failed to read users: %w", dbpg.TranslateError(rows.Err()))
	}

	return users, nil
}

// UpdateLastLogin records a successful sign-in timestamp.
func (r *PostgresUserRepository) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	pool := r.getPool()
	if pool == nil {
		return errors.New("database connection not available")
	}

	query := `UPDATE users SET last_login = CURRENT_TIMESTAMP WHERE user_id = $1`

	result, err := pool.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", dbpg.TranslateError(err))
	}

	if result.RowsAffected() == 0 {
		return models.ErrUserNotFound
	}

	return nil
}
