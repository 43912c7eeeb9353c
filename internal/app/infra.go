package app

import (
	"github.com/2300031420/Tastoria5/internal/config"
	"github.com/2300031420/Tastoria5/internal/logger"
	"github.com/2300031420/Tastoria5/internal/storage"
)

type infra struct {
	store   storage.Store
	cleanup func() error
}

// setupInfra picks the persistent store: Redis when configured, the
// in-memory store otherwise (sessions and carts then live only as long
// as the process).
func setupInfra(cfg config.Config) (*infra, error) {
	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set, using in-memory store", nil)
		return &infra{
			store:   storage.NewMemoryStore(),
			cleanup: func() error { return nil },
		}, nil
	}

	client, err := storage.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return nil, err
	}

	logger.Info("redis ready", nil)

	return &infra{
		store:   storage.NewRedisStore(client),
		cleanup: client.Close,
	}, nil
}
