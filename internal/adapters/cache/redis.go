package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/econgpt/internal/domain/types"
)

// Redis caches the table in a redis key, snappy compressed.
type Redis struct {
	client *redis.Client
	cfg    settings
}

// NewRedis connects to the redis server at url (redis://host:port/db).
func NewRedis(ctx context.Context, url string, opts ...Option) (*Redis, error) {
	ropts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	client := redis.NewClient(ropts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return NewRedisFromClient(client, opts...), nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *redis.Client, opts ...Option) *Redis {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Redis{client: client, cfg: cfg}
}

func (r *Redis) Get(ctx context.Context) (types.Table, bool, error) {
	data, err := r.client.Get(ctx, r.cfg.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", r.cfg.key, err)
	}
	table, err := decode(data)
	if err != nil {
		return nil, false, err
	}
	return table, true, nil
}

func (r *Redis) Set(ctx context.Context, table types.Table) error {
	data, err := encode(table)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.cfg.key, data, r.cfg.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.cfg.key, err)
	}
	return nil
}

func (r *Redis) Close() error { return r.client.Close() }
