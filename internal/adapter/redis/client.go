package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/app/config"
	"github.com/redis/go-redis/v9"
)

const (
	clientName   = "rental-service"
	pingAttempts = 3
	pingTimeout  = 2 * time.Second
	pingBackoff  = 500 * time.Millisecond
)

func clientOptions(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   clientName,
		DialTimeout:  pingTimeout,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}
}

// NewClient connects to Redis, retrying the initial ping with a growing backoff.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(clientOptions(cfg))

	for attempt := 1; ; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			return client, nil
		}
		if attempt == pingAttempts {
			_ = client.Close()
			return nil, fmt.Errorf("redis at %s is unreachable after %d attempts: %w", cfg.Addr, attempt, err)
		}
		select {
		case <-ctx.Done():
			_ = client.Close()
			return nil, fmt.Errorf("redis at %s is unreachable: %w", cfg.Addr, ctx.Err())
		case <-time.After(time.Duration(attempt) * pingBackoff):
		}
	}
}
