package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/99minutos/identity-api/internal/core/domain"
	"github.com/99minutos/identity-api/internal/password"
)

// SendPasswordResetEmail mints a one-hour reset token for the bearer of a
// valid session token and emails it as a link.
func (s *AuthService) SendPasswordResetEmail(ctx context.Context, sessionToken string) error {
	claims, err := s.Authenticate(ctx, sessionToken, domain.PurposeSession)
	if err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return err
	}

	return s.emailResetLink(ctx, user, domain.ResetTokenTTL)
}

// SendResetPasswordEmail handles forgot-password: a ten-minute reset token is
// emailed when the address is known. Unknown addresses return nil so the
// response never reveals whether an account exists.
func (s *AuthService) SendResetPasswordEmail(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.log.Debug().Msg("password reset requested for unknown email")
			return nil
		}
		return err
	}

	return s.emailResetLink(ctx, user, domain.ForgotResetTokenTTL)
}

// ResetPassword consumes a reset token exactly once: the token is checked
// against the blacklist, verified, and blacklisted again after the password
// update so a replay fails. Every verification failure collapses into
// ErrInvalidResetToken.
func (s *AuthService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	used, err := s.isBlacklisted(ctx, resetToken)
	if err != nil {
		return err
	}
	if used {
		return domain.ErrInvalidResetToken
	}

	claims, err := s.codec.Verify(resetToken, domain.PurposeReset)
	if err != nil {
		return domain.ErrInvalidResetToken
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrInvalidResetToken
		}
		return err
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}

	// Mark the token consumed. The blacklist TTL outlives the longest reset
	// token expiry, so the marker holds for the token's whole life.
	if err := s.store.Set(ctx, blacklistPrefix+resetToken, resetToken, blacklistTTL); err != nil {
		return fmt.Errorf("mark reset token used: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("password reset completed")
	return nil
}

func (s *AuthService) emailResetLink(ctx context.Context, user *domain.User, ttl time.Duration) error {
	resetToken, err := s.codec.Sign(claimsFor(user), domain.PurposeReset, ttl)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s?token=%s", s.resetBaseURL, resetToken)
	body := fmt.Sprintf("Dear User,\n\nPlease click on the following link to reset your password:\n%s\n\nIf you did not request this, please ignore this email.", link)

	if err := s.notifier.Send(ctx, user.Email, "Password Reset Request", body); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}
