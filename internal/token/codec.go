// Package token signs and verifies the compact bearer tokens issued by the
// authentication core. Tokens are HS256 JWTs carrying the subject identity,
// an expiry, and a purpose tag that restricts which operation accepts them.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/99minutos/identity-api/internal/core/domain"
)

// Codec signs and verifies tokens with a single process-wide HS256 key.
// The key is injected at construction so it can be swapped through
// configuration without code change.
type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Sign produces a signed token for the given claims with the purpose tag and
// expiry embedded. A random jti is included so two signings of identical
// claims never collide.
func (c *Codec) Sign(claims domain.Claims, purpose domain.TokenPurpose, ttl time.Duration) (string, error) {
	now := time.Now()
	mc := jwt.MapClaims{
		"sub":     claims.UserID,
		"email":   claims.Email,
		"role":    claims.Role,
		"purpose": string(purpose),
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
		"jti":     nonce(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, mc)
	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, requiring the given purpose. Any
// failure (bad signature, malformed payload, purpose mismatch, expiry)
// reports domain.ErrInvalidToken.
func (c *Codec) Verify(raw string, purpose domain.TokenPurpose) (*domain.Claims, error) {
	mc := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(raw, mc, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return c.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}

	if p, _ := mc["purpose"].(string); p != string(purpose) {
		return nil, domain.ErrInvalidToken
	}

	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, domain.ErrInvalidToken
	}
	iat, err := mc.GetIssuedAt()
	if err != nil || iat == nil {
		return nil, domain.ErrInvalidToken
	}

	sub, _ := mc["sub"].(string)
	email, _ := mc["email"].(string)
	role, _ := mc["role"].(string)

	return &domain.Claims{
		UserID:    sub,
		Email:     email,
		Role:      role,
		Purpose:   purpose,
		IssuedAt:  iat.Time,
		ExpiresAt: exp.Time,
	}, nil
}

func nonce() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
