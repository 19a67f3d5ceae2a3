package app

import (
	"fmt"
	"strings"

	"github.com/yungbote/findable-backend/internal/clients/redis"
	"github.com/yungbote/findable-backend/internal/pkg/logger"
)

type Clients struct {
	Redis *redis.Client
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis is optional: without it events are dropped and the realtime cache is off.
	if strings.TrimSpace(cfg.Redis.Addr) == "" {
		return Clients{}, nil
	}
	rdb, err := redis.NewClient(log, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Channel:  cfg.Redis.Channel,
	})
	if err != nil {
		return Clients{}, fmt.Errorf("init redis client: %w", err)
	}
	return Clients{Redis: rdb}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
