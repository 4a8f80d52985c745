package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BinayVerse/pro-portal-v14/internal/auth"
	"github.com/BinayVerse/pro-portal-v14/internal/config"
	"github.com/BinayVerse/pro-portal-v14/internal/handlers"
	"github.com/BinayVerse/pro-portal-v14/internal/models"
	"github.com/BinayVerse/pro-portal-v14/internal/session"
	"github.com/BinayVerse/pro-portal-v14/internal/token"
)

const testPassword = "portal-admin-password"

type fakeUserRepo struct {
	users map[string][]*models.User
}

func (f *fakeUserRepo) GetAdminsByEmail(_ context.Context, email string) ([]*models.User, error) {
	return f.users[email], nil
}

func (f *fakeUserRepo) UpdateLastLogin(_ context.Context, _ uuid.UUID) error {
	return nil
}

func newTestHandler(t *testing.T) *handlers.AuthHandler {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)

	repo := &fakeUserRepo{
		users: map[string][]*models.User{
			"admin@example.com": {
				{
					UserID:       uuid.New(),
					Email:        "admin@example.com",
					Name:         "Portal Admin",
					RoleID:       models.RoleAdmin,
					OrgID:        "org-1",
					PasswordHash: &hash,
				},
			},
		},
	}

	store := session.NewMemoryStore()
	metrics := session.NewMetrics()
	mgr := session.NewManager(store, logger, metrics, 24*time.Hour, 5)

	tokenSvc := token.NewJWTService(&config.JWTConfig{
		Secret:    "test-secret-key-with-at-least-32-characters",
		Issuer:    "pro-portal",
		Algorithm: "HS256",
	})

	svc := auth.NewService(repo, mgr, tokenSvc, metrics, logger)
	return handlers.NewAuthHandler(svc, logger)
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(http.MethodPost, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func signInToken(t *testing.T, h *handlers.AuthHandler) string {
	t.Helper()

	rec := postJSON(t, h.SignIn, "/api/v1/auth/signin", models.SignInRequest{
		Email:    "admin@example.com",
		Password: testPassword,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp models.SignInResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestSignInEndpointSuccess(t *testing.T) {
	h := newTestHandler(t)

	rec := postJSON(t, h.SignIn, "/api/v1/auth/signin", models.SignInRequest{
		Email:    "Admin@Example.com",
		Password: testPassword,
	}, map[string]string{
		"User-Agent":      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)",
		"X-Forwarded-For": "203.0.113.7, 10.0.0.1",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var resp models.SignInResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "/profile", resp.Redirect)
	assert.Len(t, resp.User.SessionID, 64)
}

func TestSignInEndpointFailures(t *testing.T) {
	tests := []struct {
		name     string
		body     interface{}
		raw      string
		wantCode int
	}{
		{
			name:     "invalid_json",
			raw:      "{not json",
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown_email",
			body:     models.SignInRequest{Email: "nobody@example.com", Password: "x"},
			wantCode: http.StatusNotFound,
		},
		{
			name:     "wrong_password",
			body:     models.SignInRequest{Email: "admin@example.com", Password: "incorrect"},
			wantCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t)

			var rec *httptest.ResponseRecorder
			if tt.raw != "" {
				req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signin", bytes.NewBufferString(tt.raw))
				rec = httptest.NewRecorder()
				h.SignIn(rec, req)
			} else {
				rec = postJSON(t, h.SignIn, "/api/v1/auth/signin", tt.body, nil)
			}

			assert.Equal(t, tt.wantCode, rec.Code)

			var errResp struct {
				Status  string `json:"status"`
				Message string `json:"message"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
			assert.Equal(t, "error", errResp.Status)
			assert.NotEmpty(t, errResp.Message)
		})
	}
}

func TestValidateSessionEndpoint(t *testing.T) {
	h := newTestHandler(t)
	tok := signInToken(t, h)

	tests := []struct {
		name       string
		authHeader string
		wantValid  bool
		wantReason string
	}{
		{"no_header", "", false, models.ReasonNoAuthHeader},
		{"empty_token", "Bearer ", false, models.ReasonNoToken},
		{"garbage_token", "Bearer garbage", false, models.ReasonInvalidJWT},
		{"valid_token", "Bearer " + tok, true, models.ReasonSessionValid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.authHeader != "" {
				headers["Authorization"] = tt.authHeader
			}
			rec := postJSON(t, h.ValidateSession, "/api/v1/auth/validate-session", nil, headers)

			// The verdict travels in the body, never the status code
			assert.Equal(t, http.StatusOK, rec.Code)

			var resp models.ValidateSessionResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantValid, resp.Valid)
			assert.Equal(t, tt.wantReason, resp.Reason)
		})
	}
}

func TestLogoutEndpoint(t *testing.T) {
	h := newTestHandler(t)
	tok := signInToken(t, h)

	// Empty body is fine
	rec := postJSON(t, h.Logout, "/api/v1/auth/logout", nil, map[string]string{
		"Authorization": "Bearer " + tok,
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.LogoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "Logged out successfully", resp.Message)

	// The session is gone afterwards
	rec = postJSON(t, h.ValidateSession, "/api/v1/auth/validate-session", nil, map[string]string{
		"Authorization": "Bearer " + tok,
	})
	var validateResp models.ValidateSessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &validateResp))
	assert.False(t, validateResp.Valid)
	assert.Equal(t, models.ReasonSessionNotFound, validateResp.Reason)
}

func TestLogoutEndpointWithoutToken(t *testing.T) {
	h := newTestHandler(t)

	rec := postJSON(t, h.Logout, "/api/v1/auth/logout", models.LogoutRequest{AllSessions: true}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.LogoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
}
