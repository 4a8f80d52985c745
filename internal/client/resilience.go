package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BinayVerse/pro-portal-v14/internal/config"
)

// User-facing notices emitted while recovering from auth failures.
const (
	noticeRetrying       = "Connection issue detected. Retrying..."
	noticeServerTrouble  = "Temporary server issues detected. Please try again in a moment."
	noticeSessionExpired = "Your session has expired. You will be redirected to login."
)

// defaultRequestKey groups failures that arrive without a request key.
const defaultRequestKey = "global"

// loginPath is where a forced logout sends the user.
const loginPath = "/login"

// statusCoder is implemented by errors that carry an HTTP status code.
type statusCoder interface {
	StatusCode() int
}

// Notifier surfaces auth recovery notices to the user.
type Notifier interface {
	Warning(message string)
	Error(message string)
}

// Navigator moves the user to another page after a forced logout.
type Navigator interface {
	NavigateTo(path string) error
}

// LogoutResult reports what a forced logout managed to clean up.
type LogoutResult struct {
	LoggedOut       bool
	PartialFailures []string
}

// AuthFailureHandler decides, per failed request, between retrying and
// forcing a logout. Consecutive 401 responses for the same request key
// are retried with a linear backoff up to a ceiling; at the ceiling the
// session is validated once more against the session service, and only a
// confirmed-dead session escalates to logout.
type AuthFailureHandler struct {
	opts      config.ResilienceConfig
	validator SessionValidator
	creds     CredentialStore
	navigator Navigator
	fallback  Navigator
	notifier  Notifier
	logger    *logrus.Logger

	mu              sync.Mutex
	retryCounts     map[string]int
	logoutScheduled bool
	logoutTimer     *time.Timer
}

// NewAuthFailureHandler creates the failure handler. A nil notifier falls
// back to logging notices through the logger.
func NewAuthFailureHandler(
	cfg *config.ResilienceConfig,
	validator SessionValidator,
	creds CredentialStore,
	navigator Navigator,
	notifier Notifier,
	logger *logrus.Logger,
) *AuthFailureHandler {
	if notifier == nil {
		notifier = &logNotifier{logger: logger}
	}

	return &AuthFailureHandler{
		opts:        *cfg,
		validator:   validator,
		creds:       creds,
		navigator:   navigator,
		notifier:    notifier,
		logger:      logger,
		retryCounts: make(map[string]int),
	}
}

// HandleAuthFailure inspects a failed request and returns true when the
// failure escalated to a forced logout. A false return means the caller
// may retry the request.
//
// Only 401 responses are handled; any other failure is left to the
// caller untouched. The contextLabel names the operation for logs and
// notices; requestKey groups retries of the same logical request and
// falls back to the contextLabel when empty.
func (h *AuthFailureHandler) HandleAuthFailure(
	ctx context.Context,
	err error,
	contextLabel, requestKey string,
) bool {
	if !isUnauthorized(err) {
		return false
	}

	key := requestKey
	if key == "" {
		key = contextLabel
	}
	if key == "" {
		key = defaultRequestKey
	}

	h.mu.Lock()
	count := h.retryCounts[key]

	if count < h.opts.RetryAttempts {
		h.retryCounts[key] = count + 1
		h.mu.Unlock()

		h.logger.WithFields(logrus.Fields{
			"context":     contextLabel,
			"request_key": key,
			"attempt":     count + 1,
		}).Warn("Auth failure, will retry")

		if count == 0 && h.opts.ShowNotification {
			h.notifier.Warning(noticeRetrying)
		}

		// Linear backoff before the caller retries
		h.sleep(ctx, h.opts.RetryDelay*time.Duration(count+1))
		return false
	}
	h.mu.Unlock()

	// Retries exhausted. Get a second opinion before giving up on the
	// session: repeated 401s can also mean the service is misbehaving.
	if h.sessionStillValid(ctx) {
		h.logger.WithField("context", contextLabel).Warn(
			"Session is valid despite repeated auth failures")
		if h.opts.ShowNotification {
			h.notifier.Warning(noticeServerTrouble)
		}
		h.ResetRetryCount(key)
		return false
	}

	h.logger.WithFields(logrus.Fields{
		"context":     contextLabel,
		"request_key": key,
	}).Error("Session confirmed invalid, scheduling logout")

	if h.opts.ShowNotification {
		h.notifier.Error(noticeSessionExpired)
	}

	h.scheduleLogout()
	return true
}

// SetFallbackNavigator installs a second navigator consulted when the
// primary one fails to reach the login page, the client-process analogue
// of a hard location change when the in-app router refuses.
func (h *AuthFailureHandler) SetFallbackNavigator(nav Navigator) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fallback = nav
}

// ShouldRetry reports whether the failure may be retried for the key:
// the error must carry a 401 and the key must still have retry budget.
// It never mutates the ledger.
func (h *AuthFailureHandler) ShouldRetry(err error, requestKey string) bool {
	if !isUnauthorized(err) {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.retryCounts[requestKey] < h.opts.RetryAttempts
}

// GetRetryCount returns the number of recorded failures for the key.
func (h *AuthFailureHandler) GetRetryCount(requestKey string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.retryCounts[requestKey]
}

// ResetRetryCount clears the failure record for the key, typically after
// a request finally succeeds.
func (h *AuthFailureHandler) ResetRetryCount(requestKey string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.retryCounts, requestKey)
}

// PerformLogout tears down local auth state and navigates to the login
// page. Each cleanup step runs even when an earlier one fails; failures
// are reported in the result rather than aborting the logout.
func (h *AuthFailureHandler) PerformLogout(ctx context.Context) LogoutResult {
	result := LogoutResult{LoggedOut: true}

	if err := h.creds.Clear(); err != nil {
		h.logger.WithError(err).Error("Failed to clear stored credentials")
		result.PartialFailures = append(result.PartialFailures, "credentials")
	}

	h.mu.Lock()
	h.retryCounts = make(map[string]int)
	if h.logoutTimer != nil {
		h.logoutTimer.Stop()
		h.logoutTimer = nil
	}
	h.logoutScheduled = false
	h.mu.Unlock()

	if err := h.navigator.NavigateTo(loginPath); err != nil {
		h.logger.WithError(err).Warn("Failed to navigate to login page, trying hard redirect")
		if !h.navigateFallback(loginPath) {
			result.PartialFailures = append(result.PartialFailures, "navigation")
		}
	}

	h.logger.WithField("partial_failures", result.PartialFailures).Info("Forced logout completed")
	return result
}

// navigateFallback retries the login redirect through the fallback
// navigator. Returns false when no fallback is installed or it fails too.
func (h *AuthFailureHandler) navigateFallback(path string) bool {
	h.mu.Lock()
	fallback := h.fallback
	h.mu.Unlock()

	if fallback == nil {
		return false
	}
	if err := fallback.NavigateTo(path); err != nil {
		h.logger.WithError(err).Error("Fallback navigation to login page failed")
		return false
	}
	return true
}

// scheduleLogout arms the delayed logout exactly once. Repeated failures
// while the timer is pending never shorten or duplicate it.
func (h *AuthFailureHandler) scheduleLogout() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.logoutScheduled {
		return
	}
	h.logoutScheduled = true
	h.logoutTimer = time.AfterFunc(h.opts.AutoLogoutDelay, func() {
		h.PerformLogout(context.Background())
	})
}

// sessionStillValid asks the session service for a verdict on the stored
// token. Transport trouble counts as invalid: when neither the failing
// requests nor the validation call can be trusted, the session is
// treated as dead.
func (h *AuthFailureHandler) sessionStillValid(ctx context.Context) bool {
	token := h.creds.Token()
	if token == "" {
		return false
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.opts.ValidateTimeout)
	defer cancel()

	verdict, err := h.validator.ValidateSession(checkCtx, token)
	if err != nil {
		h.logger.WithError(err).Warn("Session validation call failed")
		return false
	}

	return verdict.Valid
}

// sleep waits for the backoff duration or until the context is done.
func (h *AuthFailureHandler) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// isUnauthorized reports whether the error carries an HTTP 401.
func isUnauthorized(err error) bool {
	var coder statusCoder
	if errors.As(err, &coder) {
		return coder.StatusCode() == http.StatusUnauthorized
	}
	return false
}

// logNotifier routes notices to the structured log when no UI-facing
// notifier is wired in.
type logNotifier struct {
	logger *logrus.Logger
}

func (n *logNotifier) Warning(message string) {
	n.logger.Warn(message)
}

func (n *logNotifier) Error(message string) {
	n.logger.Error(message)
}
