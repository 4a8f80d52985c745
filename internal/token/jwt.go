// Package token provides bearer token generation and validation for the
// session service. Tokens are signed JWTs embedding the user, organization,
// and session identity, with an expiry matching the session lifetime.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/BinayVerse/pro-portal-v14/internal/config"
)

// Service defines the interface for bearer token operations.
type Service interface {
	// GenerateSessionToken creates a signed JWT carrying the user,
	// organization, and session identity. The expiry always matches the
	// session TTL so the token and the session it references die together.
	GenerateSessionToken(userID, email, orgID, sessionID string, ttl time.Duration) (string, error)

	// ValidateToken verifies the token's signature and expiry and returns
	// the embedded claims.
	ValidateToken(tokenString string) (*Claims, error)

	// ExtractClaims parses the token and verifies the signature without
	// enforcing expiry. Intended for logging and diagnostics, never for
	// authorization decisions.
	ExtractClaims(tokenString string) (jwt.MapClaims, error)
}

// Claims is the JWT claim set for session bearer tokens. A missing
// SessionID marks a legacy token issued before sessions were tracked.
type Claims struct {
	jwt.RegisteredClaims

	// UserID identifies the authenticated user the token was issued for.
	UserID string `json:"user_id"`

	// Email is the user's sign-in email.
	Email string `json:"email,omitempty"`

	// OrgID identifies the user's organization.
	OrgID string `json:"org_id,omitempty"`

	// SessionID references the server-side session record. Empty for
	// legacy tokens.
	SessionID string `json:"session_id,omitempty"`
}

// IsLegacy reports whether the token predates session tracking.
func (c *Claims) IsLegacy() bool {
	return c.SessionID == ""
}

// JWTService implements Service using HMAC-signed JWTs.
type JWTService struct {
	config *config.JWTConfig
}

// NewJWTService creates a token service with the provided configuration.
func NewJWTService(cfg *config.JWTConfig) Service {
	return &JWTService{
		config: cfg,
	}
}

// GenerateSessionToken creates a signed JWT for the session.
func (s *JWTService) GenerateSessionToken(
	userID, email, orgID, sessionID string,
	ttl time.Duration,
) (string, error) {
	now := time.Now()

	claims := &Claims{
		UserID:    userID,
		Email:     email,
		OrgID:     orgID,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   userID,
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.GetSigningMethod(s.config.Algorithm), claims)

	tokenString, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken verifies the token signature and expiry.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.GetSigningMethod(s.config.Algorithm) {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT token: %w", err)
	}

	if !token.Valid {
		return nil, errors.New("invalid JWT token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid JWT claims")
	}

	return claims, nil
}

// ExtractClaims parses the token and verifies the signature without
// enforcing expiry or other claim validations.
func (s *JWTService) ExtractClaims(tokenString string) (jwt.MapClaims, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())

	token, err := parser.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.GetSigningMethod(s.config.Algorithm) {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok {
		return claims, nil
	}

	return nil, errors.New("invalid JWT claims")
}
