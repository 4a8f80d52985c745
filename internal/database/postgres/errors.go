package postgres

import (
	"errors"
	"net"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes translated at the store boundary.
const (
	codeInvalidPassword    = "28P01"
	codeInvalidCatalogName = "3D000"
)

// Fixed actionable messages surfaced instead of raw driver errors.
var (
	ErrConnectionRefused = errors.New("Database connection refused - check if database is running")
	ErrHostNotFound      = errors.New("Database host not found - check database configuration")
	ErrAuthFailed        = errors.New("Database authentication failed - check credentials")
	ErrDatabaseMissing   = errors.New("Database does not exist - check database name")
	ErrQueryFailed       = errors.New("Database query failed")
)

// TranslateError maps a driver error to one of the fixed boundary
// messages. Callers never see raw pgx or network errors. A nil input
// returns nil.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeInvalidPassword:
			return ErrAuthFailed
		case codeInvalidCatalogName:
			return ErrDatabaseMissing
		}
		return ErrQueryFailed
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return ErrConnectionRefused
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrHostNotFound
	}

	return ErrQueryFailed
}
