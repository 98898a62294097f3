package domain

import "time"

// TokenPurpose restricts which operation may accept a signed token.
type TokenPurpose string

const (
	// PurposePending is issued by login before the second factor passes.
	// It unlocks only OTP verification and re-request.
	PurposePending TokenPurpose = "pending"
	// PurposeSession is the full bearer credential, minted by verify-otp.
	PurposeSession TokenPurpose = "session"
	// PurposeReset authorises exactly one password reset.
	PurposeReset TokenPurpose = "password_reset"
)

// Token lifetimes.
const (
	PendingTokenTTL = 10 * time.Minute
	SessionTokenTTL = 5 * time.Hour

	// ResetTokenTTL applies to reset tokens requested with a session token;
	// ForgotResetTokenTTL to the unauthenticated forgot-password path.
	ResetTokenTTL       = time.Hour
	ForgotResetTokenTTL = 10 * time.Minute
)

// Claims is the verified content of a signed token.
type Claims struct {
	UserID    string
	Email     string
	Role      string
	Purpose   TokenPurpose
	IssuedAt  time.Time
	ExpiresAt time.Time
}
