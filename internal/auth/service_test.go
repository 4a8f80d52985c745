package auth_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BinayVerse/pro-portal-v14/internal/auth"
	"github.com/BinayVerse/pro-portal-v14/internal/config"
	"github.com/BinayVerse/pro-portal-v14/internal/models"
	"github.com/BinayVerse/pro-portal-v14/internal/session"
	"github.com/BinayVerse/pro-portal-v14/internal/token"
)

const testPassword = "portal-admin-password"

type fakeUserRepo struct {
	users          map[string][]*models.User
	lastLoginCalls []uuid.UUID
}

func (f *fakeUserRepo) GetAdminsByEmail(_ context.Context, email string) ([]*models.User, error) {
	return f.users[email], nil
}

func (f *fakeUserRepo) UpdateLastLogin(_ context.Context, userID uuid.UUID) error {
	f.lastLoginCalls = append(f.lastLoginCalls, userID)
	return nil
}

type testEnv struct {
	svc      auth.Service
	repo     *fakeUserRepo
	store    *session.MemoryStore
	tokenSvc token.Service
	userID   uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)

	userID := uuid.New()
	repo := &fakeUserRepo{
		users: map[string][]*models.User{
			"admin@example.com": {
				{
					UserID:       userID,
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

	return &testEnv{
		svc:      auth.NewService(repo, mgr, tokenSvc, metrics, logger),
		repo:     repo,
		store:    store,
		tokenSvc: tokenSvc,
		userID:   userID,
	}
}

func signIn(t *testing.T, env *testEnv) *models.SignInResponse {
	t.Helper()
	resp, err := env.svc.SignIn(context.Background(), &models.SignInRequest{
		Email:    "admin@example.com",
		Password: testPassword,
	}, "Mac", "10.0.0.1")
	require.NoError(t, err)
	return resp
}

func TestSignInSuccess(t *testing.T) {
	env := newTestEnv(t)

	resp := signIn(t, env)

	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "/profile", resp.Redirect)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, env.userID.String(), resp.User.UserID)
	assert.Len(t, resp.User.SessionID, 64)
	assert.Equal(t, []uuid.UUID{env.userID}, env.repo.lastLoginCalls)

	claims, err := env.tokenSvc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.SessionID, claims.SessionID)
	assert.Equal(t, "org-1", claims.OrgID)
}

func TestSignInFailures(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(env *testEnv)
		req        models.SignInRequest
		wantStatus int
	}{
		{
			name:       "unknown_email",
			req:        models.SignInRequest{Email: "nobody@example.com", Password: "whatever"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "malformed_email",
			req:        models.SignInRequest{Email: "not-an-email", Password: "whatever"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty_password",
			req:        models.SignInRequest{Email: "admin@example.com", Password: "   "},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "wrong_password",
			req:        models.SignInRequest{Email: "admin@example.com", Password: "incorrect"},
			wantStatus: http.StatusForbidden,
		},
		{
			name: "password_not_set",
			mutate: func(env *testEnv) {
				env.repo.users["admin@example.com"][0].PasswordHash = nil
			},
			req:        models.SignInRequest{Email: "admin@example.com", Password: testPassword},
			wantStatus: http.StatusForbidden,
		},
		{
			name: "multiple_admin_roles",
			mutate: func(env *testEnv) {
				dup := *env.repo.users["admin@example.com"][0]
				dup.UserID = uuid.New()
				dup.RoleID = models.RoleSuperAdmin
				env.repo.users["admin@example.com"] = append(
					env.repo.users["admin@example.com"], &dup,
				)
			},
			req:        models.SignInRequest{Email: "admin@example.com", Password: testPassword},
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			if tt.mutate != nil {
				tt.mutate(env)
			}

			_, err := env.svc.SignIn(context.Background(), &tt.req, "Mac", "10.0.0.1")
			require.Error(t, err)

			var authErr *models.AuthError
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, tt.wantStatus, authErr.StatusCode)
			assert.NotEmpty(t, authErr.Message)
		})
	}
}

func TestValidateSessionHeaderParsing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp := env.svc.ValidateSession(ctx, "")
	assert.False(t, resp.Valid)
	assert.Equal(t, models.ReasonNoAuthHeader, resp.Reason)

	resp = env.svc.ValidateSession(ctx, "Basic abc123")
	assert.False(t, resp.Valid)
	assert.Equal(t, models.ReasonNoAuthHeader, resp.Reason)

	resp = env.svc.ValidateSession(ctx, "Bearer ")
	assert.False(t, resp.Valid)
	assert.Equal(t, models.ReasonNoToken, resp.Reason)

	resp = env.svc.ValidateSession(ctx, "Bearer not-a-jwt")
	assert.False(t, resp.Valid)
	assert.Equal(t, models.ReasonInvalidJWT, resp.Reason)
}

func TestValidateSessionRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	signInResp := signIn(t, env)

	resp := env.svc.ValidateSession(ctx, "Bearer "+signInResp.Token)
	assert.True(t, resp.Valid)
	assert.Equal(t, models.ReasonSessionValid, resp.Reason)
	assert.Equal(t, signInResp.User.SessionID, resp.SessionID)
	assert.Equal(t, env.userID.String(), resp.UserID)
	require.NotNil(t, resp.ExpiresAt)
	assert.True(t, resp.ExpiresAt.After(time.Now()))
}

func TestValidateSessionLegacyToken(t *testing.T) {
	env := newTestEnv(t)

	legacy, err := env.tokenSvc.GenerateSessionToken(
		env.userID.String(), "admin@example.com", "org-1", "", time.Hour,
	)
	require.NoError(t, err)

	resp := env.svc.ValidateSession(context.Background(), "Bearer "+legacy)
	assert.True(t, resp.Valid)
	assert.True(t, resp.Legacy)
	assert.Equal(t, models.ReasonLegacyToken, resp.Reason)
}

func TestValidateSessionUserMismatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	signInResp := signIn(t, env)

	// A token signed for another user referencing this session.
	forged, err := env.tokenSvc.GenerateSessionToken(
		uuid.New().String(), "other@example.com", "org-2", signInResp.User.SessionID, time.Hour,
	)
	require.NoError(t, err)

	resp := env.svc.ValidateSession(ctx, "Bearer "+forged)
	assert.False(t, resp.Valid)
	assert.Equal(t, models.ReasonUserMismatch, resp.Reason)
}

func TestLogoutAlwaysSucceeds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, header := range []string{"", "Bearer ", "Bearer garbage"} {
		resp := env.svc.Logout(ctx, header, false)
		assert.Equal(t, "success", resp.Status)
		assert.Equal(t, "Logged out successfully", resp.Message)
	}
}

func TestLogoutInvalidatesCurrentSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	signInResp := signIn(t, env)

	logoutResp := env.svc.Logout(ctx, "Bearer "+signInResp.Token, false)
	assert.Equal(t, "success", logoutResp.Status)

	resp := env.svc.ValidateSession(ctx, "Bearer "+signInResp.Token)
	assert.False(t, resp.Valid)
	assert.Equal(t, models.ReasonSessionNotFound, resp.Reason)
}

func TestLogoutAllSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := signIn(t, env)
	second := signIn(t, env)

	logoutResp := env.svc.Logout(ctx, "Bearer "+first.Token, true)
	assert.Equal(t, "success", logoutResp.Status)

	for _, tok := range []string{first.Token, second.Token} {
		resp := env.svc.ValidateSession(ctx, "Bearer "+tok)
		assert.False(t, resp.Valid)
		assert.Equal(t, models.ReasonSessionNotFound, resp.Reason)
	}
	assert.Equal(t, 0, env.store.ActiveCount(env.userID.String()))
}
