// Package handlers implements the HTTP endpoints of the session service.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/BinayVerse/pro-portal-v14/internal/auth"
	"github.com/BinayVerse/pro-portal-v14/internal/constants"
	"github.com/BinayVerse/pro-portal-v14/internal/models"
	"github.com/BinayVerse/pro-portal-v14/internal/session"
)

// AuthHandler exposes sign-in, validate-session, and logout endpoints.
type AuthHandler struct {
	authSvc auth.Service
	logger  *logrus.Logger
}

// NewAuthHandler creates the auth endpoint handler.
func NewAuthHandler(authSvc auth.Service, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		authSvc: authSvc,
		logger:  logger,
	}
}

// SignIn handles POST /signin. Success returns 201 with the bearer token
// and user profile; failures carry user-facing messages with 4xx/5xx codes.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeAuthError(w, models.NewBadRequest("Invalid JSON format"))
		return
	}

	deviceInfo := session.ExtractDeviceInfo(r.Header.Get(constants.HeaderUserAgent))
	ipAddress := session.ExtractClientAddress(r)

	resp, err := h.authSvc.SignIn(ctx, &req, deviceInfo, ipAddress)
	if err != nil {
		h.logger.WithError(err).Warn("Sign-in failed")

		var authErr *models.AuthError
		if errors.As(err, &authErr) {
			h.writeAuthError(w, authErr)
			return
		}
		h.writeAuthError(w, models.NewServerError(
			"We're experiencing technical difficulties. Please try again in a few moments.",
		))
		return
	}

	h.writeJSONResponse(w, http.StatusCreated, resp)
}

// ValidateSession handles POST /validate-session. The endpoint always
// answers 200; the verdict is carried in the body so callers can
// distinguish an invalid session from a failed validation call.
func (h *AuthHandler) ValidateSession(w http.ResponseWriter, r *http.Request) {
	resp := h.authSvc.ValidateSession(r.Context(), r.Header.Get(constants.HeaderAuthorization))
	h.writeJSONResponse(w, http.StatusOK, resp)
}

// Logout handles POST /logout. The request body is optional; when present
// it may ask for all of the user's sessions to be invalidated. Logout
// always reports success.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req models.LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.WithError(err).Debug("Ignoring malformed logout body")
	}

	resp := h.authSvc.Logout(r.Context(), r.Header.Get(constants.HeaderAuthorization), req.AllSessions)
	h.writeJSONResponse(w, http.StatusOK, resp)
}

func (h *AuthHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.WithError(err).Error("Failed to encode JSON response")
	}
}

func (h *AuthHandler) writeAuthError(w http.ResponseWriter, authErr *models.AuthError) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(authErr.StatusCode)

	if err := json.NewEncoder(w).Encode(authErr); err != nil {
		h.logger.WithError(err).Error("Failed to encode error response")
	}

	h.logger.WithFields(logrus.Fields{
		"status_code": authErr.StatusCode,
		"error":       authErr.Message,
	}).Warn("Auth error response sent")
}
