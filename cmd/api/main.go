package main

import (
	"context"

	"github.com/99minutos/identity-api/internal/api"
	mongodb "github.com/99minutos/identity-api/internal/infrastructure/db/mongo"
	redisdb "github.com/99minutos/identity-api/internal/infrastructure/db/redis"
	"github.com/99minutos/identity-api/internal/infrastructure/email"
	"github.com/99minutos/identity-api/internal/pkg/config"
	"github.com/99minutos/identity-api/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx := context.Background()

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() { _ = client.Disconnect(ctx) }()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	mailer, err := email.NewMailer(email.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mailer configuration invalid")
	}

	e := api.NewRouter(db, rdb, mailer, cfg, log)

	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("identity api listening")
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
