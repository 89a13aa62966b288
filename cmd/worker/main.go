package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"unimart/internal/cache"
	"unimart/internal/config"
	"unimart/internal/log"
	"unimart/internal/queue"
	"unimart/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.Worker.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	if client == nil {
		logger.Fatal().Msg("redis.addr is required for the worker")
	}
	defer client.Close()

	processor := tasks.NewProcessor(logger)
	consumer := queue.NewConsumer(
		client,
		cfg.Redis.Stream,
		cfg.Redis.Group,
		cfg.Redis.Consumer,
		cfg.Worker.ClaimInterval,
		logger,
		processor,
	)

	logger.Info().Str("stream", cfg.Redis.Stream).Str("group", cfg.Redis.Group).Msg("worker started")

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("consumer stopped unexpectedly")
	}

	logger.Info().Msg("worker exited")
}
