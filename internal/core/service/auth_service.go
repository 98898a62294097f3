package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/identity-api/internal/core/domain"
	"github.com/99minutos/identity-api/internal/core/ports"
	"github.com/99minutos/identity-api/internal/password"
)

const (
	otpTTL          = 60 * time.Second
	blacklistTTL    = time.Hour
	blacklistPrefix = "blacklist_"
)

// AuthService composes the token codec, credential verifier, challenge store,
// and notifier into the login / OTP / reset / logout operations.
type AuthService struct {
	users        ports.UserDirectory
	store        ports.KeyValueStore
	codec        ports.TokenCodec
	notifier     ports.Notifier
	resetBaseURL string
	log          zerolog.Logger
}

func NewAuthService(
	users ports.UserDirectory,
	store ports.KeyValueStore,
	codec ports.TokenCodec,
	notifier ports.Notifier,
	resetBaseURL string,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:        users,
		store:        store,
		codec:        codec,
		notifier:     notifier,
		resetBaseURL: resetBaseURL,
		log:          log,
	}
}

// Login verifies the password, stores a fresh OTP under the email, emails it,
// and returns a pending-purpose token. Unknown email, wrong password, and
// unverified account all collapse into ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, pw string) (string, error) {
	if email == "" || pw == "" {
		return "", domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}

	if !password.Matches(pw, user.PasswordHash) || !user.IsVerified {
		return "", domain.ErrInvalidCredentials
	}

	pending, err := s.codec.Sign(claimsFor(user), domain.PurposePending, domain.PendingTokenTTL)
	if err != nil {
		return "", err
	}

	if err := s.issueOTP(ctx, user.Email); err != nil {
		return "", err
	}

	s.log.Info().Str("user_id", user.ID).Msg("login passed first factor, otp dispatched")
	return pending, nil
}

// VerifyOTP checks the stored challenge for the email and, on match, consumes
// it and mints the session token. Absent, expired, or mismatched codes all
// report ErrInvalidOTP.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	stored, err := s.store.Get(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return "", domain.ErrInvalidOTP
		}
		return "", err
	}
	if stored != code {
		return "", domain.ErrInvalidOTP
	}

	// Consume before minting: a replay of the same code must find nothing.
	if err := s.store.Delete(ctx, email); err != nil {
		return "", err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}

	session, err := s.codec.Sign(claimsFor(user), domain.PurposeSession, domain.SessionTokenTTL)
	if err != nil {
		return "", err
	}

	s.log.Info().Str("user_id", user.ID).Msg("otp verified, session established")
	return session, nil
}

// RequestOTP re-issues a challenge for the named user, keyed by email like
// every other OTP, overwriting any code still live.
func (s *AuthService) RequestOTP(ctx context.Context, username string) error {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.issueOTP(ctx, user.Email)
}

// Logout blacklists the presented token for an hour. The token is not
// verified first; blacklisting an arbitrary string is harmless.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.store.Set(ctx, blacklistPrefix+token, token, blacklistTTL); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

// Authenticate verifies a bearer token against the allowed purposes and
// rejects blacklisted tokens regardless of their own validity.
func (s *AuthService) Authenticate(ctx context.Context, raw string, purposes ...domain.TokenPurpose) (*domain.Claims, error) {
	revoked, err := s.isBlacklisted(ctx, raw)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, domain.ErrInvalidToken
	}

	for _, p := range purposes {
		if claims, err := s.codec.Verify(raw, p); err == nil {
			return claims, nil
		}
	}
	return nil, domain.ErrInvalidToken
}

// issueOTP stores the challenge before dispatching it: if the email fails the
// entry simply ages out, and the next login overwrites it.
func (s *AuthService) issueOTP(ctx context.Context, email string) error {
	code, err := generateOTP()
	if err != nil {
		return err
	}

	if err := s.store.Set(ctx, email, code, otpTTL); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	body := fmt.Sprintf("Dear User,\n\nYour OTP code is: %s\n\nPlease use this code to verify your login.", code)
	if err := s.notifier.Send(ctx, email, "Your OTP Code", body); err != nil {
		return fmt.Errorf("send otp: %w", err)
	}
	return nil
}

func (s *AuthService) isBlacklisted(ctx context.Context, token string) (bool, error) {
	_, err := s.store.Get(ctx, blacklistPrefix+token)
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func claimsFor(user *domain.User) domain.Claims {
	return domain.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}
}

// generateOTP draws a uniform 6-digit numeric code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
