package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/BinayVerse/pro-portal-v14/internal/constants"
	"github.com/BinayVerse/pro-portal-v14/internal/models"
	"github.com/BinayVerse/pro-portal-v14/internal/repository"
	"github.com/BinayVerse/pro-portal-v14/internal/session"
	"github.com/BinayVerse/pro-portal-v14/internal/token"
)

// User-facing sign-in failure messages. These are part of the API
// contract with the portal front end.
const (
	msgMalformedCredentials = "Please check that your email and password are entered correctly."
	msgEmptyPassword        = "Password cannot be empty."
	msgNoAccount            = "No account found with this email address. Please sign up first or check your email."
	msgMultipleAdminRoles   = "Multiple admin roles detected for your account. Please contact support to resolve this issue."
	msgAccountRestricted    = "Your account access has been restricted. Please contact your administrator for assistance."
	msgPasswordNotSet       = "Your account password is not set. Please contact support or reset your password."
	msgWrongPassword        = "The password you entered is incorrect. Please try again or reset your password."
	msgServerError          = "We're experiencing technical difficulties. Please try again in a few moments."

	logoutMessage = "Logged out successfully"
)

// Service orchestrates the sign-in, validate-session, and logout flows.
type Service interface {
	// SignIn checks credentials, creates a session, and issues a bearer
	// token. Failures are returned as *models.AuthError carrying the
	// user-facing message and HTTP status.
	SignIn(ctx context.Context, req *models.SignInRequest, deviceInfo, ipAddress string) (*models.SignInResponse, error)

	// ValidateSession resolves the Authorization header to a structured
	// validation answer. It never fails: business invalidity and store
	// trouble alike produce a response with valid=false.
	ValidateSession(ctx context.Context, authHeader string) *models.ValidateSessionResponse

	// Logout invalidates the current session, or all of the user's
	// sessions, and always reports success. Internal failures are logged.
	Logout(ctx context.Context, authHeader string, allSessions bool) *models.LogoutResponse
}

type authService struct {
	users    repository.UserRepository
	sessions *session.Manager
	tokenSvc token.Service
	metrics  *session.Metrics
	logger   *logrus.Logger
}

// NewService creates the auth orchestration service.
func NewService(
	users repository.UserRepository,
	sessions *session.Manager,
	tokenSvc token.Service,
	metrics *session.Metrics,
	logger *logrus.Logger,
) Service {
	return &authService{
		users:    users,
		sessions: sessions,
		tokenSvc: tokenSvc,
		metrics:  metrics,
		logger:   logger,
	}
}

// SignIn checks credentials against the user repository, then creates a
// session and signs a bearer token whose expiry matches the session TTL.
func (s *authService) SignIn(
	ctx context.Context,
	req *models.SignInRequest,
	deviceInfo, ipAddress string,
) (*models.SignInResponse, error) {
	if err := req.Validate(); err != nil {
		if errors.Is(err, models.ErrEmptyPassword) {
			return nil, models.NewBadRequest(msgEmptyPassword)
		}
		return nil, models.NewBadRequest(msgMalformedCredentials)
	}

	candidates, err := s.users.GetAdminsByEmail(ctx, req.Email)
	if err != nil {
		s.logger.WithError(err).Error("Sign-in user lookup failed")
		return nil, models.NewServerError(msgServerError)
	}

	if len(candidates) == 0 {
		return nil, models.NewNotFound(msgNoAccount)
	}

	var admins []*models.User
	for _, candidate := range candidates {
		if candidate.IsAdmin() {
			admins = append(admins, candidate)
		}
	}

	if len(admins) > 1 {
		return nil, models.NewForbidden(msgMultipleAdminRoles)
	}
	if len(admins) == 0 {
		return nil, models.NewForbidden(msgAccountRestricted)
	}

	user := admins[0]

	if !user.HasPassword() {
		return nil, models.NewForbidden(msgPasswordNotSet)
	}

	if err := VerifyPassword(*user.PasswordHash, req.Password); err != nil {
		return nil, models.NewForbidden(msgWrongPassword)
	}

	sessionID, err := s.sessions.CreateSession(ctx, models.CreateSessionOptions{
		UserID:     user.UserID.String(),
		DeviceInfo: deviceInfo,
		IPAddress:  ipAddress,
	})
	if err != nil {
		s.logger.WithError(err).WithField("user_id", user.UserID).Error("Sign-in session creation failed")
		return nil, models.NewServerError(msgServerError)
	}

	tokenString, err := s.tokenSvc.GenerateSessionToken(
		user.UserID.String(), user.Email, user.OrgID, sessionID, s.sessions.TTL(),
	)
	if err != nil {
		s.logger.WithError(err).Error("Sign-in token generation failed")
		return nil, models.NewServerError(msgServerError)
	}

	if err := s.users.UpdateLastLogin(ctx, user.UserID); err != nil {
		// Non-fatal: the sign-in already succeeded.
		s.logger.WithError(err).WithField("user_id", user.UserID).Warn("Failed to update last login")
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":     user.UserID,
		"device_info": deviceInfo,
	}).Info("User signed in")

	return &models.SignInResponse{
		Status:   "success",
		Token:    tokenString,
		User:     user.Profile(sessionID),
		Redirect: "/profile",
	}, nil
}

// bearerToken extracts the token from an Authorization header. The empty
// reason return means the header parsed cleanly.
func bearerToken(authHeader string) (tokenString, reason string) {
	if !strings.HasPrefix(authHeader, constants.BearerPrefix) {
		return "", models.ReasonNoAuthHeader
	}
	tokenString = authHeader[len(constants.BearerPrefix):]
	if tokenString == "" {
		return "", models.ReasonNoToken
	}
	return tokenString, ""
}

// ValidateSession answers whether the bearer token references a live
// session. Legacy tokens without an embedded session id are grandfathered
// as valid.
func (s *authService) ValidateSession(ctx context.Context, authHeader string) *models.ValidateSessionResponse {
	tokenString, reason := bearerToken(authHeader)
	if reason != "" {
		return &models.ValidateSessionResponse{Valid: false, Reason: reason}
	}

	claims, err := s.tokenSvc.ValidateToken(tokenString)
	if err != nil {
		return &models.ValidateSessionResponse{Valid: false, Reason: models.ReasonInvalidJWT}
	}

	if claims.IsLegacy() {
		// Old token without a session id. Accepted but never revocable.
		s.logger.WithField("user_id", claims.UserID).Warn("Token without session ID detected")
		if s.metrics != nil {
			s.metrics.LegacyTokensAccepted.Inc()
		}
		return &models.ValidateSessionResponse{
			Valid:  true,
			Reason: models.ReasonLegacyToken,
			Legacy: true,
		}
	}

	sess, err := s.sessions.ValidateSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			return &models.ValidateSessionResponse{Valid: false, Reason: models.ReasonSessionNotFound}
		}
		return &models.ValidateSessionResponse{Valid: false, Reason: models.ReasonValidationError}
	}

	if sess.UserID != claims.UserID {
		return &models.ValidateSessionResponse{Valid: false, Reason: models.ReasonUserMismatch}
	}

	return &models.ValidateSessionResponse{
		Valid:     true,
		Reason:    models.ReasonSessionValid,
		SessionID: claims.SessionID,
		UserID:    claims.UserID,
		ExpiresAt: &sess.ExpiresAt,
	}
}

// Logout tears down the current session, or every session for the user
// when allSessions is set. Token problems and store failures are logged
// and swallowed: logout always reports success so clients can never get
// stuck in an authenticated-looking state.
func (s *authService) Logout(ctx context.Context, authHeader string, allSessions bool) *models.LogoutResponse {
	response := &models.LogoutResponse{Status: "success", Message: logoutMessage}

	tokenString, reason := bearerToken(authHeader)
	if reason != "" {
		return response
	}

	claims, err := s.tokenSvc.ValidateToken(tokenString)
	if err != nil {
		s.logger.WithError(err).Warn("Invalid token during logout")
		return response
	}

	switch {
	case allSessions:
		s.sessions.InvalidateAllSessions(ctx, claims.UserID)
		s.logger.WithField("user_id", claims.UserID).Info("User logged out (all sessions)")
	case claims.SessionID != "":
		s.sessions.InvalidateSession(ctx, claims.SessionID)
		s.logger.WithField("user_id", claims.UserID).Info("User logged out (current session)")
	}

	return response
}
