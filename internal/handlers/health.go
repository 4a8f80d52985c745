package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/BinayVerse/pro-portal-v14/internal/config"
	"github.com/BinayVerse/pro-portal-v14/internal/constants"
	"github.com/BinayVerse/pro-portal-v14/internal/database/postgres"
	"github.com/BinayVerse/pro-portal-v14/internal/redis"
)

const (
	// HealthCheckTimeout is the default timeout for health check operations.
	HealthCheckTimeout = 5 * time.Second
	// MinJWTSecretLength is the minimum required length for JWT secret in health checks.
	MinJWTSecretLength = 32
)

// HealthHandler provides health check and monitoring endpoints.
type HealthHandler struct {
	config    *config.Config
	dbMgr     *postgres.Manager
	redis     *redis.Client
	logger    *logrus.Logger
	metrics   *Metrics
	startTime time.Time
}

// HealthStatus represents the health status of a component.
type HealthStatus string

const (
	// StatusHealthy indicates the component is healthy.
	StatusHealthy HealthStatus = "healthy"
	// StatusUnhealthy indicates the component is unhealthy.
	StatusUnhealthy HealthStatus = "unhealthy"
	// StatusDegraded indicates the component has degraded performance.
	StatusDegraded HealthStatus = "degraded"
)

// HealthResponse represents the overall health check response.
type HealthResponse struct {
	Status     HealthStatus               `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Uptime     string                     `json:"uptime,omitempty"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
	Details    map[string]interface{}     `json:"details,omitempty"`
}

// ComponentHealth represents the health of an individual component.
type ComponentHealth struct {
	Status       HealthStatus `json:"status"`
	Message      string       `json:"message,omitempty"`
	LastChecked  time.Time    `json:"last_checked"`
	ResponseTime string       `json:"response_time,omitempty"`
}

// ReadinessResponse represents the readiness check response.
type ReadinessResponse struct {
	Ready      bool                       `json:"ready"`
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// Metrics holds Prometheus metrics for request monitoring.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	HealthChecksTotal     *prometheus.CounterVec
	ComponentHealthStatus *prometheus.GaugeVec
}

// NewHealthHandler creates a new health check handler and registers its
// Prometheus metrics.
func NewHealthHandler(
	cfg *config.Config,
	dbMgr *postgres.Manager,
	redisClient *redis.Client,
	logger *logrus.Logger,
) *HealthHandler {
	metrics := NewMetrics()
	prometheus.MustRegister(
		metrics.HTTPRequestsTotal,
		metrics.HTTPRequestDuration,
		metrics.HealthChecksTotal,
		metrics.ComponentHealthStatus,
	)

	return &HealthHandler{
		config:    cfg,
		dbMgr:     dbMgr,
		redis:     redisClient,
		logger:    logger,
		metrics:   metrics,
		startTime: time.Now(),
	}
}

// NewMetrics creates and returns Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "session_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "session_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HealthChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "session_health_checks_total",
				Help: "Total number of health checks",
			},
			[]string{"endpoint", "status"},
		),
		ComponentHealthStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "session_component_health_status",
				Help: "Health status of service components (1=healthy, 0=unhealthy)",
			},
			[]string{"component"},
		),
	}
}

// RegisterRoutes registers health check and monitoring endpoints.
func (h *HealthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	router.HandleFunc("/health/live", h.Liveness).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", h.Readiness).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

// Health provides a comprehensive health check including all components.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	h.logger.Debug("Processing health check request")

	components := make(map[string]ComponentHealth)
	overallStatus := StatusHealthy

	// Check PostgreSQL (critical, sessions live here)
	databaseHealth := h.checkDatabase(ctx)
	components["postgres"] = databaseHealth
	if databaseHealth.Status != StatusHealthy {
		overallStatus = StatusUnhealthy
	}

	// Check Redis (optional, only rate limiting degrades without it)
	redisHealth := h.checkRedis(ctx)
	components["redis"] = redisHealth
	if redisHealth.Status != StatusHealthy && overallStatus == StatusHealthy {
		overallStatus = StatusDegraded
	}

	// Check configuration
	configHealth := h.checkConfiguration()
	components["configuration"] = configHealth
	if configHealth.Status != StatusHealthy && overallStatus == StatusHealthy {
		overallStatus = StatusDegraded
	}

	statusLabel := string(overallStatus)
	h.metrics.HealthChecksTotal.WithLabelValues("health", statusLabel).Inc()

	for component, health := range components {
		healthValue := float64(0)
		if health.Status == StatusHealthy {
			healthValue = 1
		}
		h.metrics.ComponentHealthStatus.WithLabelValues(component).Set(healthValue)
	}

	response := HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Version:    getVersion(),
		Uptime:     time.Since(h.startTime).String(),
		Components: components,
		Details: map[string]interface{}{
			"check_duration": time.Since(start).String(),
		},
	}

	statusCode := http.StatusOK
	if overallStatus == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.WithError(err).Error("Failed to encode health response")
	}

	h.logger.WithFields(logrus.Fields{
		"status":   overallStatus,
		"duration": time.Since(start).String(),
	}).Debug("Health check completed")
}

// Liveness provides a simple liveness check that returns 200 if the service is alive.
// This is used by Kubernetes to determine if the pod should be restarted.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	h.metrics.HealthChecksTotal.WithLabelValues("liveness", "healthy").Inc()

	response := map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now(),
		"uptime":    time.Since(h.startTime).String(),
	}

	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.WithError(err).Error("Failed to encode liveness response")
	}
}

// Readiness checks if the service is ready to receive traffic.
// This is used by Kubernetes to determine if the pod should receive requests.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	h.logger.Debug("Processing readiness check")

	components := make(map[string]ComponentHealth)
	ready := true

	// PostgreSQL connectivity is required for readiness
	databaseHealth := h.checkDatabase(ctx)
	components["postgres"] = databaseHealth
	if databaseHealth.Status != StatusHealthy {
		ready = false
	}

	// Redis being down does not affect readiness, only rate limiting
	redisHealth := h.checkRedis(ctx)
	components["redis"] = redisHealth

	statusLabel := "ready"
	if !ready {
		statusLabel = "not_ready"
	}
	h.metrics.HealthChecksTotal.WithLabelValues("readiness", statusLabel).Inc()

	response := ReadinessResponse{
		Ready:      ready,
		Timestamp:  time.Now(),
		Components: components,
	}

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.WithError(err).Error("Failed to encode readiness response")
	}

	h.logger.WithFields(logrus.Fields{
		"ready":    ready,
		"duration": time.Since(start).String(),
	}).Debug("Readiness check completed")
}

// checkDatabase checks PostgreSQL database connectivity.
func (h *HealthHandler) checkDatabase(ctx context.Context) ComponentHealth {
	start := time.Now()

	if h.dbMgr == nil {
		return ComponentHealth{
			Status:      StatusUnhealthy,
			Message:     "Database not configured",
			LastChecked: time.Now(),
		}
	}

	checkCtx, cancel := context.WithTimeout(ctx, HealthCheckTimeout)
	defer cancel()

	err := h.dbMgr.Ping(checkCtx)
	duration := time.Since(start)

	if err != nil {
		h.logger.WithError(err).Warn("Database health check failed")
		return ComponentHealth{
			Status:       StatusUnhealthy,
			Message:      "PostgreSQL connection failed: " + err.Error(),
			LastChecked:  time.Now(),
			ResponseTime: duration.String(),
		}
	}

	if !h.dbMgr.IsAvailable() {
		return ComponentHealth{
			Status:       StatusUnhealthy,
			Message:      "Database marked as unavailable",
			LastChecked:  time.Now(),
			ResponseTime: duration.String(),
		}
	}

	status := StatusHealthy
	message := "PostgreSQL is healthy"

	if duration > 2*time.Second {
		status = StatusDegraded
		message = "PostgreSQL response time is slow"
	}

	return ComponentHealth{
		Status:       status,
		Message:      message,
		LastChecked:  time.Now(),
		ResponseTime: duration.String(),
	}
}

// checkRedis checks Redis connectivity when the rate limiter is configured.
func (h *HealthHandler) checkRedis(ctx context.Context) ComponentHealth {
	start := time.Now()

	if h.redis == nil {
		return ComponentHealth{
			Status:      StatusHealthy,
			Message:     "Redis not configured (optional)",
			LastChecked: time.Now(),
		}
	}

	checkCtx, cancel := context.WithTimeout(ctx, HealthCheckTimeout)
	defer cancel()

	err := h.redis.Ping(checkCtx)
	duration := time.Since(start)

	if err != nil {
		h.logger.WithError(err).Warn("Redis health check failed")
		return ComponentHealth{
			Status:       StatusUnhealthy,
			Message:      "Redis connection failed: " + err.Error(),
			LastChecked:  time.Now(),
			ResponseTime: duration.String(),
		}
	}

	status := StatusHealthy
	message := "Redis is healthy"

	if duration > time.Second {
		status = StatusDegraded
		message = "Redis response time is slow"
	}

	return ComponentHealth{
		Status:       status,
		Message:      message,
		LastChecked:  time.Now(),
		ResponseTime: duration.String(),
	}
}

// checkConfiguration validates critical configuration values.
func (h *HealthHandler) checkConfiguration() ComponentHealth {
	var issues []string

	if len(h.config.JWT.Secret) < MinJWTSecretLength {
		issues = append(issues, "JWT secret is too short")
	}

	if h.config.Session.TTL < time.Minute {
		issues = append(issues, "Session TTL is too short")
	}

	if h.config.Session.MaxPerUser < 1 {
		issues = append(issues, "Session ceiling must allow at least one session")
	}

	status := StatusHealthy
	message := "Configuration is valid"

	if len(issues) > 0 {
		status = StatusDegraded
		message = "Configuration issues: " + strings.Join(issues, ", ")
	}

	return ComponentHealth{
		Status:      status,
		Message:     message,
		LastChecked: time.Now(),
	}
}

// getVersion returns the service version (would typically come from build info).
func getVersion() string {
	// In a real deployment, this would be injected at build time
	return "1.0.0"
}
