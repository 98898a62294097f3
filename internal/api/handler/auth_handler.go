package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/99minutos/identity-api/internal/api/metrics"
	"github.com/99minutos/identity-api/internal/api/middleware"
	"github.com/99minutos/identity-api/internal/core/domain"
	"github.com/99minutos/identity-api/internal/core/ports"
)

const forgotPasswordMessage = "If this email exists in our database, a reset password link has been sent."

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type verifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type requestOTPRequest struct {
	Username string `json:"username" validate:"required"`
}

type sendResetEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Login verifies credentials and starts the OTP challenge.
//
// @Summary      Login (first factor)
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  tokenResponse  "pending token; complete with verify-otp"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	timer := prometheus.NewTimer(metrics.LoginDuration)
	defer timer.ObserveDuration()

	token, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginAttemptsTotal.WithLabelValues("rejected").Inc()
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		}
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, tokenResponse{AccessToken: token})
}

// VerifyOTP completes the second factor and returns the session token.
//
// @Summary      Verify OTP (second factor)
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      verifyOTPRequest  true  "Email and 6-digit code"
// @Success      200   {object}  tokenResponse  "session token"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/verify-otp [post]
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req verifyOTPRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, err := h.authService.VerifyOTP(c.Request().Context(), req.Email, req.OTP)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidOTP) || errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.OTPVerificationsTotal.WithLabelValues("rejected").Inc()
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid otp"})
		}
		metrics.OTPVerificationsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.OTPVerificationsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, tokenResponse{AccessToken: token})
}

// RequestOTP re-issues the challenge for a username.
//
// @Summary      Request a fresh OTP
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      requestOTPRequest  true  "Username"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /auth/request-otp [post]
func (h *AuthHandler) RequestOTP(c echo.Context) error {
	var req requestOTPRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authService.RequestOTP(c.Request().Context(), req.Username); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "user not found"})
		}
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "otp sent successfully"})
}

// SendPasswordResetEmail mails a reset link to the bearer of a session token.
//
// @Summary      Request a password reset (authenticated)
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      sendResetEmailRequest  true  "Session token"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/send-email [post]
func (h *AuthHandler) SendPasswordResetEmail(c echo.Context) error {
	var req sendResetEmailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authService.SendPasswordResetEmail(c.Request().Context(), req.Token); err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		}
		return err
	}

	metrics.PasswordResetsTotal.WithLabelValues("requested").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "email sent successfully"})
}

// ForgotPassword mails a reset link when the email is known; the response is
// identical either way.
//
// @Summary      Request a password reset (forgot password)
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Account email"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authService.SendResetPasswordEmail(c.Request().Context(), req.Email); err != nil {
		return err
	}

	metrics.PasswordResetsTotal.WithLabelValues("requested").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: forgotPasswordMessage})
}

// ResetPassword consumes a reset token and stores the new password.
//
// @Summary      Reset password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resetPasswordRequest  true  "Reset token and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authService.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		if errors.Is(err, domain.ErrInvalidResetToken) {
			metrics.PasswordResetsTotal.WithLabelValues("rejected").Inc()
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
		}
		return err
	}

	metrics.PasswordResetsTotal.WithLabelValues("completed").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "password reset successfully"})
}

// Logout blacklists the presented bearer token. The token is not verified
// first; the operation is idempotent and safe for any string.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200   {object}  messageResponse
// @Failure      401   {object}  map[string]string
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	token, err := middleware.BearerToken(c)
	if err != nil {
		return err
	}

	if err := h.authService.Logout(c.Request().Context(), token); err != nil {
		return err
	}

	metrics.TokensBlacklistedTotal.Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "logged out successfully"})
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
