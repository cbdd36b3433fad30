package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kingrea/forumterm/internal/forum"
)

const defaultPrefix = "forumterm:current:"

// Redis keeps the current entities in Redis as JSON values, so several
// terminals share the same selection.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to redisURL and checks the connection.
func NewRedis(redisURL string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("cache: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache: connect to redis: %w", err)
	}
	return NewRedisWithClient(client), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client) *Redis {
	return &Redis{client: client, prefix: defaultPrefix}
}

func (r *Redis) key(t forum.Type) string {
	return r.prefix + string(t)
}

func (r *Redis) Current(ctx context.Context, t forum.Type) (forum.Entity, error) {
	raw, err := r.client.Get(ctx, r.key(t)).Bytes()
	if errors.Is(err, redis.Nil) {
		return forum.Entity{}, ErrMiss
	}
	if err != nil {
		return forum.Entity{}, fmt.Errorf("cache: get %s: %w", t, err)
	}
	var e forum.Entity
	if err := json.Unmarshal(raw, &e); err != nil {
		return forum.Entity{}, fmt.Errorf("cache: decode %s: %w", t, err)
	}
	return e, nil
}

func (r *Redis) SetCurrent(ctx context.Context, e forum.Entity) error {
	if err := e.Ref.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", e.Ref, err)
	}
	if err := r.client.Set(ctx, r.key(e.Ref.Type), data, 0).Err(); err != nil {
		return fmt.Errorf("cache: set %s: %w", e.Ref, err)
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context, t forum.Type) error {
	if err := r.client.Del(ctx, r.key(t)).Err(); err != nil {
		return fmt.Errorf("cache: clear %s: %w", t, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
