// Package main provides a CLI tool for operating on the session store.
// It can sweep expired sessions, revoke a user's sessions, and list the
// active sessions of a user, talking to PostgreSQL directly.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/BinayVerse/pro-portal-v14/internal/config"
	"github.com/BinayVerse/pro-portal-v14/internal/database/postgres"
	"github.com/BinayVerse/pro-portal-v14/internal/models"
	"github.com/BinayVerse/pro-portal-v14/internal/session"
	"github.com/BinayVerse/pro-portal-v14/pkg/logger"
)

func main() {
	var (
		action  = flag.String("action", "cleanup", "Action to perform: cleanup, revoke, list")
		userID  = flag.String("user", "", "User ID to scope the action to (required for revoke and list)")
		timeout = flag.Duration("timeout", 30*time.Second, "Timeout for the database operation")
	)
	flag.Parse()

	if err := godotenv.Load(".env.local"); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env.local file: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithConfig(&logger.Settings{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	log.SetLevel(logrus.WarnLevel)

	dbMgr, err := postgres.NewManager(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer dbMgr.Close()

	store := session.NewPostgresStore(dbMgr.Pool)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch *action {
	case "cleanup":
		runCleanup(ctx, store, *userID)
	case "revoke":
		runRevoke(ctx, store, *userID)
	case "list":
		runList(ctx, store, *userID)
	default:
		fmt.Fprintf(os.Stderr, "Unknown action: %s\n", *action)
		os.Exit(1)
	}
}

func runCleanup(ctx context.Context, store session.Store, userID string) {
	removed, err := store.DeleteExpired(ctx, userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sweeping expired sessions: %v\n", err)
		os.Exit(1)
	}

	if userID != "" {
		fmt.Printf("Removed %d expired sessions for user %s\n", removed, userID)
		return
	}
	fmt.Printf("Removed %d expired sessions\n", removed)
}

func runRevoke(ctx context.Context, store session.Store, userID string) {
	if userID == "" {
		fmt.Fprintln(os.Stderr, "User ID is required for revoke")
		os.Exit(1)
	}

	if err := store.DeactivateAll(ctx, userID); err != nil {
		fmt.Fprintf(os.Stderr, "Error revoking sessions: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Revoked all sessions for user %s\n", userID)
}

func runList(ctx context.Context, store session.Store, userID string) {
	if userID == "" {
		fmt.Fprintln(os.Stderr, "User ID is required for list")
		os.Exit(1)
	}

	sessions, err := store.ListActive(ctx, userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing sessions: %v\n", err)
		os.Exit(1)
	}

	if len(sessions) == 0 {
		fmt.Printf("No active sessions for user %s\n", userID)
		return
	}

	fmt.Printf("%d active sessions for user %s:\n\n", len(sessions), userID)
	for _, sess := range sessions {
		printSession(sess)
	}
}

func printSession(sess *models.Session) {
	fmt.Printf("Session ID: %s\n", sess.SessionID)
	fmt.Printf("  Device: %s\n", sess.DeviceInfo)
	fmt.Printf("  IP Address: %s\n", sess.IPAddress)
	fmt.Printf("  Created: %s\n", sess.CreatedAt.Format(time.RFC3339))
	fmt.Printf("  Last Active: %s\n", sess.LastActive.Format(time.RFC3339))
	fmt.Printf("  Expires: %s\n", sess.ExpiresAt.Format(time.RFC3339))
	fmt.Println()
}
