package client

import (
	"sync"

	"github.com/BinayVerse/pro-portal-v14/internal/models"
)

// CredentialStore holds the bearer token and user profile on the client
// side. Implementations must be safe for concurrent use.
type CredentialStore interface {
	// Token returns the stored bearer token, or "" when signed out.
	Token() string

	// Store records the token and profile issued at sign-in.
	Store(token string, user *models.UserProfile)

	// User returns the stored profile, or nil when signed out.
	User() *models.UserProfile

	// Clear drops the token and profile.
	Clear() error
}

// MemoryCredentialStore is an in-process CredentialStore.
type MemoryCredentialStore struct {
	mu    sync.RWMutex
	token string
	user  *models.UserProfile
}

// NewMemoryCredentialStore creates an empty credential store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{}
}

func (s *MemoryCredentialStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *MemoryCredentialStore) Store(token string, user *models.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = user
}

func (s *MemoryCredentialStore) User() *models.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *MemoryCredentialStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	return nil
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(path string) error

func (f NavigatorFunc) NavigateTo(path string) error {
	return f(path)
}
