// Package cache provides the Redis-backed store used for the cache-aside
// helper and the token revocation blocklist.
package cache

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/Bigbebra2/bazarchik-api/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// Store wraps a Redis client behind the operations the application needs.
// Services and repositories receive a Store at construction. A nil Store
// (or one built around a nil client) degrades: cached reads fall through
// to their loaders and the blocklist fails closed.
type Store struct {
	client *redis.Client
}

// NewStore returns a Store around an already-dialed client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Client exposes the underlying Redis client for health checks and rate
// limiting.
func (s *Store) Client() *redis.Client {
	if s == nil {
		return nil
	}
	return s.client
}

func (s *Store) ready() bool {
	return s != nil && s.client != nil
}

type metricsHook struct{}

func (h metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			middleware.RedisErrors.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (h metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			middleware.RedisErrors.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// Connect dials Redis at the given address or URL. Connection failures are
// logged and yield a nil client, so the returned Store degrades instead of
// blocking startup.
func Connect(addr string) *redis.Client {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			log.Printf("Redis connection warning: invalid REDIS_URL %q: %v (continuing without cache)", addr, err)
			return nil
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)
	client.AddHook(metricsHook{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis connection warning: %v (continuing without cache)", err)
		return nil
	}
	log.Println("Redis connected successfully")
	return client
}
