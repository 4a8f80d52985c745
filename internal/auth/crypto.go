// Package auth orchestrates the sign-in, validation, and logout flows
// between the user repository, session manager, and token service.
// This file contains password hashing and verification helpers using bcrypt.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost defines the cost factor for bcrypt hashing.
	// Cost of 12 provides a good balance between security and performance.
	BcryptCost = 12
)

// HashPassword generates a bcrypt hash of the provided password.
// The hash can be safely stored in the database and used for future verification.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hash), nil
}

// VerifyPassword compares a plaintext password against a bcrypt hash.
// Returns nil if the password matches the hash.
func VerifyPassword(hash, password string) error {
	if hash == "" {
		return errors.New("hash cannot be empty")
	}
	if password == "" {
		return errors.New("password cannot be empty")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return fmt.Errorf("password verification failed: %w", err)
	}

	return nil
}
