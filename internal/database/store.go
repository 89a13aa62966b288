package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"unimart/internal/config"
	"unimart/internal/repository"
	"unimart/internal/repository/memstore"
	"unimart/internal/repository/mongostore"
	"unimart/internal/repository/pgstore"
)

// Open builds the store for cfg.Store.Driver. A backend that is configured
// but unreachable is logged and still returned: requests then fail
// individually until it comes back.
func Open(ctx context.Context, cfg *config.AppConfig, log zerolog.Logger) (repository.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreMongo:
		client, err := NewMongoClient(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		store := mongostore.New(client, cfg.Mongo.Database)
		if err := checkReachable(ctx, store, log); err == nil {
			if err := store.EnsureIndexes(ctx); err != nil {
				log.Warn().Err(err).Msg("ensure mongo indexes failed")
			}
		}
		return store, nil

	case config.StorePostgres:
		pool, err := NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		store := pgstore.New(pool)
		if err := checkReachable(ctx, store, log); err == nil {
			if err := store.EnsureSchema(ctx); err != nil {
				log.Error().Err(err).Msg("ensure postgres schema failed")
			}
		}
		return store, nil

	case config.StoreMemory:
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return memstore.New(), nil
	}

	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func checkReachable(ctx context.Context, store repository.Store, log zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := store.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("store unreachable at startup")
		return err
	}
	log.Info().Msg("store connected")
	return nil
}
