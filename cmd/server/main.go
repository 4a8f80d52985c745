// Package main provides the entry point for the session service.
// It initializes all dependencies, sets up HTTP routes with middleware,
// and starts the server with graceful shutdown support.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/BinayVerse/pro-portal-v14/internal/auth"
	"github.com/BinayVerse/pro-portal-v14/internal/config"
	"github.com/BinayVerse/pro-portal-v14/internal/database/postgres"
	"github.com/BinayVerse/pro-portal-v14/internal/handlers"
	"github.com/BinayVerse/pro-portal-v14/internal/middleware"
	"github.com/BinayVerse/pro-portal-v14/internal/redis"
	"github.com/BinayVerse/pro-portal-v14/internal/repository"
	"github.com/BinayVerse/pro-portal-v14/internal/session"
	"github.com/BinayVerse/pro-portal-v14/internal/startup"
	"github.com/BinayVerse/pro-portal-v14/internal/token"
	"github.com/BinayVerse/pro-portal-v14/pkg/logger"
)

func main() {
	// Load .env.local file only in development (when GO_ENV is not set or set to "development")
	goEnv := os.Getenv("GO_ENV")
	if goEnv == "" || goEnv == "development" {
		if err := godotenv.Load(".env.local"); err != nil {
			// Only log if the error is not "file not found"
			if !os.IsNotExist(err) {
				fmt.Fprintf(os.Stderr, "Warning: Error loading .env.local file: %v\n", err)
			}
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger with enhanced dual-output support
	log := logger.NewWithConfig(&logger.Settings{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	log.Info("Starting Session Service")
	log.WithFields(logrus.Fields{
		"version":          "1.0.0",
		"port":             cfg.Server.Port,
		"host":             cfg.Server.Host,
		"tls":              cfg.IsTLSEnabled(),
		"session_ttl":      cfg.Session.TTL,
		"max_per_user":     cfg.Session.MaxPerUser,
		"cleanup_interval": cfg.Session.CleanupInterval,
	}).Info("Service configuration loaded")

	// Initialize dependencies
	dbMgr, redisClient, sessionMgr, authService := initializeServices(cfg, log)
	defer closeDatabase(dbMgr, log)
	defer closeRedis(redisClient, log)

	// Make sure the session schema exists before serving traffic
	schemaSvc := startup.NewSchemaService(dbMgr.Pool, log)
	if schemaErr := schemaSvc.EnsureSessionSchema(context.Background()); schemaErr != nil {
		log.WithError(schemaErr).Error("Failed to bootstrap session schema")
		// Don't exit, the schema may already be managed externally
	}

	// Background sweep of expired session rows
	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	defer cancelCleanup()
	go sessionMgr.RunCleanupLoop(cleanupCtx, cfg.Session.CleanupInterval)

	// Set up HTTP server
	server := setupServer(cfg, dbMgr, redisClient, authService, log)

	// Start and run server with graceful shutdown
	runServer(server, cfg, log)
}

func initializeServices(
	cfg *config.Config,
	log *logrus.Logger,
) (*postgres.Manager, *redis.Client, *session.Manager, auth.Service) {
	// PostgreSQL holds the sessions and users; the service cannot run without it
	dbMgr, dbErr := postgres.NewManager(cfg, log)
	if dbErr != nil {
		log.WithError(dbErr).Fatal("Failed to initialize database manager")
	}

	// Redis backs the rate limiter and is optional
	redisClient, redisErr := redis.NewClient(&cfg.Redis, log)
	if redisErr != nil {
		log.WithError(redisErr).Warn("Failed to connect to Redis, rate limiting disabled")
		redisClient = nil
	}

	metrics := session.NewMetrics()
	metrics.MustRegister()

	store := session.NewPostgresStore(dbMgr.Pool)
	sessionMgr := session.NewManager(store, log, metrics, cfg.Session.TTL, cfg.Session.MaxPerUser)

	jwtService := token.NewJWTService(&cfg.JWT)
	userRepo := repository.NewPostgresUserRepository(dbMgr.Pool)

	authService := auth.NewService(userRepo, sessionMgr, jwtService, metrics, log)

	return dbMgr, redisClient, sessionMgr, authService
}

func closeDatabase(dbMgr *postgres.Manager, log *logrus.Logger) {
	if dbMgr != nil {
		dbMgr.Close()
		log.Info("Database connections closed")
	}
}

func closeRedis(redisClient *redis.Client, log *logrus.Logger) {
	if redisClient == nil {
		return
	}
	if err := redisClient.Close(); err != nil {
		log.WithError(err).Error("Failed to close Redis connection")
	}
}

func setupServer(
	cfg *config.Config,
	dbMgr *postgres.Manager,
	redisClient *redis.Client,
	authService auth.Service,
	log *logrus.Logger,
) *http.Server {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, log)
	healthHandler := handlers.NewHealthHandler(cfg, dbMgr, redisClient, log)

	// Initialize middleware
	var middlewareStack *middleware.Stack
	if redisClient != nil {
		middlewareStack = middleware.NewStack(cfg, redisClient.Underlying(), log)
	} else {
		middlewareStack = middleware.NewStack(cfg, nil, log)
	}

	// Set up routes
	router := mux.NewRouter()

	// API v1 router with /api/v1/auth prefix
	apiV1Router := router.PathPrefix("/api/v1/auth").Subrouter()

	// Health and monitoring routes
	healthHandler.RegisterRoutes(apiV1Router)

	// Session lifecycle routes
	apiV1Router.HandleFunc("/signin", authHandler.SignIn).Methods(http.MethodPost)
	apiV1Router.HandleFunc("/validate-session", authHandler.ValidateSession).Methods(http.MethodPost)
	apiV1Router.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)

	// Apply middleware to the entire router
	finalHandler := middlewareStack.Chain(
		router,
		middlewareStack.Recovery,
		middlewareStack.RequestLogger,
		middlewareStack.SecurityHeaders,
		middlewareStack.CORS,
		middlewareStack.RateLimit,
		middlewareStack.ContentType,
	)

	// Create HTTP server
	return &http.Server{
		Addr:         cfg.ServerAddr(),
		Handler:      finalHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}

func runServer(server *http.Server, cfg *config.Config, log *logrus.Logger) {
	// Start server in a goroutine
	go startServer(server, cfg, log)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Create context with timeout for graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Attempt graceful shutdown
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		log.WithError(shutdownErr).Error("Server forced to shutdown")
	} else {
		log.Info("Server exited gracefully")
	}
}

func startServer(server *http.Server, cfg *config.Config, log *logrus.Logger) {
	log.WithFields(logrus.Fields{
		"addr": server.Addr,
		"tls":  cfg.IsTLSEnabled(),
	}).Info("Starting HTTP server")

	var startErr error
	if cfg.IsTLSEnabled() {
		startErr = server.ListenAndServeTLS(cfg.Server.TLSCert, cfg.Server.TLSKey)
	} else {
		startErr = server.ListenAndServe()
	}

	if startErr != nil && startErr != http.ErrServerClosed {
		log.WithError(startErr).Fatal("Failed to start server")
	}
}
