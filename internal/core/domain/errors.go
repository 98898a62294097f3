package domain

import "errors"

// Business-rule failures. The API layer maps these to 401/404 responses;
// anything else coming out of the core is treated as an infrastructure
// failure and surfaces as a 500.
var (
	// ErrInvalidCredentials covers unknown email, wrong password, and
	// unverified accounts alike so responses never reveal which one it was.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrInvalidOTP = errors.New("invalid otp")

	// ErrInvalidToken covers malformed, expired, wrong-purpose, and
	// blacklisted tokens.
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidResetToken is the reset-flow variant of ErrInvalidToken;
	// every reset consumption failure collapses into it.
	ErrInvalidResetToken = errors.New("invalid or expired token")

	ErrUserNotFound = errors.New("user not found")

	// ErrKeyNotFound reports an absent or expired key/value store entry.
	// Store connectivity failures are never mapped to it.
	ErrKeyNotFound = errors.New("key not found")
)
