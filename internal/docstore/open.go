package docstore

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

type Options struct {
	Driver        string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Open connects the configured driver. An empty driver picks postgres when a
// database url is set, then redis when an address is set, then memory.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(opts.Driver))
	if driver == "" {
		switch {
		case opts.DatabaseURL != "":
			driver = DriverPostgres
		case opts.RedisAddr != "":
			driver = DriverRedis
		default:
			driver = DriverMemory
		}
	}

	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverRedis:
		store := NewRedis(NewRedisClient(RedisOptions{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		}), logger)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return store, nil
	case DriverPostgres:
		pool, err := NewPool(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		store := NewPostgres(pool, logger)
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("postgres migrate: %w", err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
}
