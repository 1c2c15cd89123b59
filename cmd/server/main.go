package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/citywatch/incident-api/internal/api"
	"github.com/citywatch/incident-api/internal/core/service"
	"github.com/citywatch/incident-api/internal/infrastructure/db/mongo"
	"github.com/citywatch/incident-api/internal/infrastructure/db/redis"
	"github.com/citywatch/incident-api/internal/infrastructure/email"
	"github.com/citywatch/incident-api/internal/pkg/config"
	"github.com/citywatch/incident-api/internal/realtime"
	"github.com/citywatch/incident-api/pkg/logger"
)

// @title        CityWatch Incident API
// @version      1.0
// @description  Citizen incident reporting with a realtime feed.
// @BasePath     /api
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Durable stores ---
	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	userRepo := mongo.NewUserRepository(db)
	incidentRepo := mongo.NewIncidentRepository(db)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create user indexes")
	}
	if err := incidentRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create incident indexes")
	}

	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	// --- Collaborators and services ---
	mailer := email.NewService(email.Config{
		Host:         cfg.SMTP.Host,
		Port:         cfg.SMTP.Port,
		Username:     cfg.SMTP.Username,
		Password:     cfg.SMTP.Password,
		From:         cfg.SMTP.From,
		FromName:     cfg.SMTP.FromName,
		ResetURLBase: cfg.FrontendURL,
	})
	if !mailer.IsConfigured() {
		log.Warn().Msg("smtp not configured, password reset emails will fail")
	}

	hub := realtime.NewHub(log)
	go hub.Run(ctx)

	authService := service.NewAuthService(
		userRepo,
		mailer,
		redis.NewResetThrottle(rdb),
		cfg.JWTSecret,
		cfg.TokenTTL,
		log,
	)
	incidentService := service.NewIncidentService(incidentRepo, hub, log)

	e := api.NewRouter(api.Deps{
		AuthService:     authService,
		IncidentService: incidentService,
		Hub:             hub,
		Mongo:           db,
		Redis:           rdb,
		JWTSecret:       cfg.JWTSecret,
		AllowedOrigins:  cfg.AllowedOrigins,
		Logger:          log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Msg("citywatch api listening")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}
