// Package passwd hashes and verifies credential secrets with bcrypt.
package passwd

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Constants for cost and max secret length (bcrypt truncates after 72 bytes)
const (
	DefaultCost  = 12
	MaxSecretLen = 72 // bcrypt input limit
)

// ErrSecretTooLong is returned for secrets bcrypt would silently truncate.
var ErrSecretTooLong = errors.New("secret exceeds 72 bytes and would be truncated by bcrypt")

// HashSecret hashes a secret using bcrypt with the DefaultCost
func HashSecret(secret string) (string, error) {
	return HashSecretWithCost(secret, DefaultCost)
}

// HashSecretWithCost hashes a secret with the given bcrypt cost.
// A cost outside bcrypt's accepted range is an error.
func HashSecretWithCost(secret string, cost int) (string, error) {
	if len(secret) > MaxSecretLen {
		return "", ErrSecretTooLong
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return "", fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}

	return string(hashedBytes), nil
}

// IsHash reports whether s is a well-formed bcrypt hash.
func IsHash(s string) bool {
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}

// Authenticate verifies whether the input secret matches the stored bcrypt hash.
// Secrets longer than MaxSecretLen never match.
func Authenticate(inputSecret, storedHash string) bool {
	if len(inputSecret) > MaxSecretLen {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(inputSecret))
	return err == nil
}
