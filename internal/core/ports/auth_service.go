package ports

import (
	"context"

	"github.com/99minutos/identity-api/internal/core/domain"
)

// AuthService is the core's public surface: the credential and challenge
// lifecycle exposed to the request layer.
type AuthService interface {
	// Login checks the password and, on success, stores a fresh OTP, emails
	// it, and returns a pending-purpose token. The session token is only
	// minted once VerifyOTP confirms the second factor.
	Login(ctx context.Context, email, password string) (string, error)
	VerifyOTP(ctx context.Context, email, code string) (string, error)
	RequestOTP(ctx context.Context, username string) error

	// SendPasswordResetEmail mints a reset token for the bearer of a valid
	// session token; SendResetPasswordEmail does the same from a bare email
	// (forgot password) and reports nothing about unknown addresses.
	SendPasswordResetEmail(ctx context.Context, sessionToken string) error
	SendResetPasswordEmail(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, resetToken, newPassword string) error

	Logout(ctx context.Context, token string) error

	// Authenticate verifies a bearer token against any of the allowed
	// purposes and the blacklist.
	Authenticate(ctx context.Context, raw string, purposes ...domain.TokenPurpose) (*domain.Claims, error)
}
