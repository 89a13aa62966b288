package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"unimart/internal/cache"
	"unimart/internal/config"
	"unimart/internal/database"
	"unimart/internal/events"
	"unimart/internal/handlers"
	"unimart/internal/jobs"
	"unimart/internal/log"
	"unimart/internal/repository"
	"unimart/internal/security"
	"unimart/internal/server"
	"unimart/internal/service"
	"unimart/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	store, err := database.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable; listing events disabled")
	}

	var publisher service.EventPublisher
	if redisClient != nil {
		publisher = events.NewPublisher(redisClient, cfg.Redis.Stream, logger)
	}

	var objects service.ObjectWriter
	if cfg.Storage.Endpoint != "" {
		objectStore, err := storage.NewObjectStore(cfg.Storage)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init object store")
		}
		if err := objectStore.EnsureBucket(ctx); err != nil {
			logger.Warn().Err(err).Msg("ensure bucket failed")
		}
		objects = objectStore
	} else {
		logger.Info().Msg("object storage not configured; photo uploads disabled")
	}

	tokens := security.NewTokenService(cfg.Security.JWTSecret, cfg.Security.AdminSecret(), cfg.Security.TokenTTL)
	authService := service.NewAuthService(store, tokens, logger)
	listingService := service.NewListingService(store, publisher, logger)
	photoService := service.NewPhotoService(store, objects, publisher, logger)

	bootstrapAdmin(ctx, cfg.Bootstrap, authService, logger)

	handlerSet := handlers.NewHandlerSet(logger, cfg, store, redisClient, handlers.Services{
		Tokens:   tokens,
		Auth:     authService,
		Listings: listingService,
		Photos:   photoService,
	})
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(cfg.Jobs.ReminderSpec, listingService, publisher, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, store, redisClient)
}

func bootstrapAdmin(ctx context.Context, cfg config.BootstrapConfig, auth *service.AuthService, logger zerolog.Logger) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := auth.EnsureAdmin(ctx, service.RegisterInput{
		Name:     cfg.AdminName,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
	})
	if err != nil {
		logger.Error().Err(err).Msg("bootstrap admin failed")
	}
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, store repository.Store, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop()

	if err := store.Close(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("store close error")
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
