package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/99minutos/identity-api/internal/api/handler"
	"github.com/99minutos/identity-api/internal/api/middleware"
	"github.com/99minutos/identity-api/internal/core/domain"
	"github.com/99minutos/identity-api/internal/core/ports"
	"github.com/99minutos/identity-api/internal/core/service"
	mongodb "github.com/99minutos/identity-api/internal/infrastructure/db/mongo"
	redisdb "github.com/99minutos/identity-api/internal/infrastructure/db/redis"
	"github.com/99minutos/identity-api/internal/pkg/config"
	"github.com/99minutos/identity-api/internal/token"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, notifier ports.Notifier, cfg *config.Config, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())

	// --- Dependencies ---
	users := mongodb.NewUserDirectory(db)
	store := redisdb.NewKVStore(rdb)
	codec := token.NewCodec(cfg.JWTSecret)
	authService := service.NewAuthService(users, store, codec, notifier, cfg.ResetBaseURL, log)
	authHandler := handler.NewAuthHandler(authService)

	// Pending tokens are accepted only while the OTP challenge is open.
	challengeAuth := middleware.Auth(authService, domain.PurposePending, domain.PurposeSession)

	// --- Auth routes ---
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/verify-otp", authHandler.VerifyOTP, challengeAuth)
	e.POST("/auth/request-otp", authHandler.RequestOTP, challengeAuth)
	e.POST("/auth/send-email", authHandler.SendPasswordResetEmail)
	e.POST("/auth/forgot-password", authHandler.ForgotPassword)
	e.POST("/auth/reset-password", authHandler.ResetPassword)
	e.POST("/auth/logout", authHandler.Logout)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}
