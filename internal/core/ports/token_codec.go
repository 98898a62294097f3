package ports

import (
	"time"

	"github.com/99minutos/identity-api/internal/core/domain"
)

// TokenCodec signs and verifies self-contained bearer tokens.
//
// Sign embeds the purpose tag and a per-signing nonce, so two calls with the
// same claims never produce the same token. Verify returns
// domain.ErrInvalidToken when the signature, shape, purpose, or expiry check
// fails.
type TokenCodec interface {
	Sign(claims domain.Claims, purpose domain.TokenPurpose, ttl time.Duration) (string, error)
	Verify(raw string, purpose domain.TokenPurpose) (*domain.Claims, error)
}
