// Package integration contains integration tests for the session service.
//
// These tests use testcontainers to spin up a real PostgreSQL instance
// and exercise the session store and user repository in an environment
// that closely matches production.
package integration
