package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BinayVerse/pro-portal-v14/internal/models"
)

// DefaultValidateTimeout bounds the second-opinion validation call.
const DefaultValidateTimeout = 5 * time.Second

// SessionValidator asks the session service for a verdict on a token.
type SessionValidator interface {
	// ValidateSession returns the structured verdict for the token. A
	// transport or decode failure is returned as an error; the caller
	// decides whether to treat that as invalid.
	ValidateSession(ctx context.Context, bearerToken string) (*models.ValidateSessionResponse, error)
}

// SessionClient calls the session service's auth endpoints.
type SessionClient struct {
	*BaseClient

	logger *logrus.Logger
}

// NewSessionClient creates a client for the session service rooted at
// baseURL (e.g. "http://localhost:8080/api/v1/auth").
func NewSessionClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *SessionClient {
	return &SessionClient{
		BaseClient: NewBaseClient(baseURL, timeout, logger),
		logger:     logger,
	}
}

// ValidateSession posts the token to the validate-session endpoint. The
// endpoint answers 200 for both valid and invalid sessions, so any other
// status is a transport-level failure.
func (c *SessionClient) ValidateSession(
	ctx context.Context,
	bearerToken string,
) (*models.ValidateSessionResponse, error) {
	resp, err := c.Do(ctx, http.MethodPost, "/validate-session", bearerToken, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Message: "unexpected validate-session status"}
	}

	var verdict models.ValidateSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return nil, fmt.Errorf("failed to decode validate-session response: %w", err)
	}

	return &verdict, nil
}

// SignIn posts credentials and returns the issued token and profile.
func (c *SessionClient) SignIn(
	ctx context.Context,
	req *models.SignInRequest,
) (*models.SignInResponse, error) {
	resp, err := c.Do(ctx, http.MethodPost, "/signin", "", req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, c.ParseErrorResponse(resp)
	}
	defer resp.Body.Close()

	var signInResp models.SignInResponse
	if err := json.NewDecoder(resp.Body).Decode(&signInResp); err != nil {
		return nil, fmt.Errorf("failed to decode sign-in response: %w", err)
	}

	return &signInResp, nil
}

// Logout asks the service to invalidate the current session, or all of
// the user's sessions when allSessions is set.
func (c *SessionClient) Logout(ctx context.Context, bearerToken string, allSessions bool) error {
	resp, err := c.Do(ctx, http.MethodPost, "/logout", bearerToken,
		&models.LogoutRequest{AllSessions: allSessions})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, Message: "unexpected logout status"}
	}

	return nil
}
