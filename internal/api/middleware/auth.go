package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/identity-api/internal/core/domain"
)

// Authenticator verifies a bearer token against the allowed purposes,
// including the logout blacklist.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string, purposes ...domain.TokenPurpose) (*domain.Claims, error)
}

// Auth extracts the bearer token, verifies it for any of the allowed
// purposes, and injects the claims into context. Blacklisted or otherwise
// invalid tokens get 401; store failures propagate as-is so they surface as
// 500, never as access denied.
func Auth(auth Authenticator, purposes ...domain.TokenPurpose) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := BearerToken(c)
			if err != nil {
				return err
			}

			claims, err := auth.Authenticate(c.Request().Context(), raw, purposes...)
			if err != nil {
				if errors.Is(err, domain.ErrInvalidToken) {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
				return err
			}

			c.Set("user_id", claims.UserID)
			c.Set("email", claims.Email)
			c.Set("role", claims.Role)
			c.Set("token", raw)

			return next(c)
		}
	}
}

// BearerToken pulls the token out of the Authorization header without
// validating it. Logout uses it directly since revocation accepts any string.
func BearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return parts[1], nil
}
