// Package password wraps bcrypt hashing and comparison for stored
// credentials. Plaintexts and hashes never appear in logs or errors.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hash derives a salted bcrypt hash at the default cost.
func Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Matches reports whether the plaintext corresponds to the stored hash.
// Comparison is delegated to bcrypt's own routine.
func Matches(plaintext, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plaintext)) == nil
}
