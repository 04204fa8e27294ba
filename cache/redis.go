package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions to connect the Redis cache backend.
type RedisOptions struct {

	// Address of the Redis instance, host:port.
	Address string

	// Password, when the instance requires authentication.
	Password string

	// DB selects the Redis logical database.
	DB int

	// KeyPrefix namespaces the cache keys, so multiple routers can share one
	// instance. Defaults to "reroute:".
	KeyPrefix string

	// DialTimeout for the initial connection check. Defaults to the client
	// default.
	DialTimeout time.Duration
}

// Redis is a Cache backed by a shared Redis instance.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects the Redis cache backend and verifies the connection.
func NewRedis(o RedisOptions) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        o.Address,
		Password:    o.Password,
		DB:          o.DB,
		DialTimeout: o.DialTimeout,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", o.Address, err)
	}

	prefix := o.KeyPrefix
	if prefix == "" {
		prefix = "reroute:"
	}

	return &Redis{client: client, prefix: prefix}, nil
}

func (r *Redis) key(key string) string { return r.prefix + key }

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}

	return value, err
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.key(key), value, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
